package mpreach

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
)

// nlriShape selects how a single NLRI record is laid out after its optional
// path identifier.
type nlriShape uint8

const (
	// <length, prefix>
	// https://www.rfc-editor.org/rfc/rfc4760#section-5
	shapeUnicast nlriShape = iota
	// <length, label stack, prefix>
	// https://www.rfc-editor.org/rfc/rfc3107#section-3
	shapeLabeled
)

// nlriDecoder decodes a sequence of NLRI records of one shape for a single
// <AFI, SAFI>.
type nlriDecoder struct {
	shape   nlriShape
	afi     uint16
	safi    uint8
	addPath bool
	logger  *slog.Logger
}

// decode consumes b entirely. When a record cannot be decoded the records
// completed before it are returned with a *DecodeError.
func (d nlriDecoder) decode(b []byte) ([]NLRIRecord, error) {
	if len(b) == 0 {
		return nil, nil
	}
	debug := d.logger.Enabled(context.Background(), slog.LevelDebug)
	c := newCursor(b)
	records := make([]NLRIRecord, 0)
	for c.remaining() > 0 {
		start := c.offset()
		r := NLRIRecord{
			AFI:  d.afi,
			SAFI: d.safi,
		}
		// https://www.rfc-editor.org/rfc/rfc7911#section-3
		if d.addPath && c.remaining() >= 4 {
			r.PathID, _ = c.uint32()
			if d.shape == shapeLabeled && c.remaining() == 0 {
				// trailing path identifier with no record behind it
				break
			}
		}
		var err error
		if d.shape == shapeLabeled {
			err = d.labeledPrefix(&c, &r)
		} else {
			err = d.prefix(&c, &r)
		}
		if err != nil {
			return records, &DecodeError{
				Op:     "decode nlri",
				AFI:    d.afi,
				SAFI:   d.safi,
				Offset: start,
				Err:    err,
			}
		}
		if debug {
			d.logger.Debug("decoded nlri",
				slog.Uint64("path_id", uint64(r.PathID)),
				slog.String("prefix", r.Prefix.String()),
				slog.Int("prefix_len", int(r.PrefixLength)),
				slog.Int("labels", len(r.Labels)),
			)
		}
		records = append(records, r)
	}
	return records, nil
}

func (d nlriDecoder) maxBits() int {
	if d.afi == AFI_IPV4 {
		return 32
	}
	return 128
}

func (d nlriDecoder) prefix(c *cursor, r *NLRIRecord) error {
	bits, err := c.uint8()
	if err != nil {
		return err
	}
	if int(bits) > d.maxBits() {
		return fmt.Errorf("prefix length %d exceeds %d bits: %w", bits, d.maxBits(), ErrMalformed)
	}
	addr, err := c.take((int(bits) + 7) / 8)
	if err != nil {
		return err
	}
	r.PrefixLength = bits
	d.setAddr(r, addr)
	return nil
}

func (d nlriDecoder) labeledPrefix(c *cursor, r *NLRIRecord) error {
	bits, err := c.uint8()
	if err != nil {
		return err
	}
	// the length covers the label stack and the prefix together
	remBits := int(bits)
	octets := (remBits + 7) / 8
	for octets >= 3 {
		lb, err := c.take(3)
		if err != nil {
			return err
		}
		l := DecodeLabel([3]byte(lb))
		octets -= 3
		remBits -= 24
		r.Labels = append(r.Labels, l)
		if l.BottomOfStack || l.IsWithdraw() {
			break
		}
	}
	if remBits < 0 {
		// the length ends inside the last label; keep the labels read so
		// far and report an empty address
		remBits = 0
	}
	if remBits > d.maxBits() {
		return fmt.Errorf("prefix length %d exceeds %d bits: %w", remBits, d.maxBits(), ErrMalformed)
	}
	addr, err := c.take(octets)
	if err != nil {
		return err
	}
	r.PrefixLength = uint8(remBits)
	d.setAddr(r, addr)
	return nil
}

// setAddr zero-fills the address so that a short prefix never carries bytes
// from a previous record.
func (d nlriDecoder) setAddr(r *NLRIRecord, b []byte) {
	var buf [16]byte
	copy(buf[:], b)
	if d.afi == AFI_IPV4 {
		r.Prefix = netip.AddrFrom4([4]byte(buf[:4]))
	} else {
		r.Prefix = netip.AddrFrom16(buf)
	}
	copy(r.PrefixBin[:], buf[:4])
}
