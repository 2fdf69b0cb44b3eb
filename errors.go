package mpreach

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates a read past the end of the attribute data.
	ErrTruncated = errors.New("truncated")
	// ErrMalformed indicates data that fits the buffer but cannot be a valid
	// record, e.g. a prefix length exceeding the address family.
	ErrMalformed = errors.New("malformed")
)

// DecodeError describes where decoding of an attribute stopped. Records
// completed before the failure are still returned alongside it.
type DecodeError struct {
	Op     string
	AFI    uint16
	SAFI   uint8
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s afi=%d safi=%d offset=%d: %v", e.Op, e.AFI, e.SAFI, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// errKind returns a short label for err suitable for metrics.
func errKind(err error) string {
	switch {
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "other"
	}
}
