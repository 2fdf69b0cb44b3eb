package mpreach

// Observer receives decode outcomes. Implementations must be safe for
// concurrent use when a decoder is shared between goroutines.
type Observer interface {
	// AttributeDecoded fires once per MP_REACH_NLRI / MP_UNREACH_NLRI
	// attribute whose header was decoded, with the number of records
	// produced.
	AttributeDecoded(code uint8, family AFISAFI, records int)
	// AttributeSkipped fires when a valid attribute uses an AFI/SAFI that is
	// not decoded.
	AttributeSkipped(code uint8, family AFISAFI, reason SkipReason)
	// DecodeFailed fires when decoding stops early. kind is "truncated",
	// "malformed" or "other".
	DecodeFailed(code uint8, family AFISAFI, kind string)
}

type nopObserver struct{}

func (nopObserver) AttributeDecoded(uint8, AFISAFI, int) {}
func (nopObserver) AttributeSkipped(uint8, AFISAFI, SkipReason) {}
func (nopObserver) DecodeFailed(uint8, AFISAFI, string) {}
