package mpreach

import (
	"log/slog"
)

// DecodeUnreach decodes the MP_UNREACH_NLRI attribute data in b. Withdrawn
// routes use the same encodings as MP_REACH_NLRI, so the same AFI/SAFI
// support, add-path handling and partial-result semantics apply.
// https://www.rfc-editor.org/rfc/rfc4760#section-4
func (d *ReachDecoder) DecodeUnreach(b []byte) (*ParsedUnreach, error) {
	c := newCursor(b)
	afi, err := c.uint16()
	var safi uint8
	if err == nil {
		safi, err = c.uint8()
	}
	f := AFISAFI{AFI: afi, SAFI: safi}
	if err != nil {
		d.logger().Warn("MP_UNREACH header exceeds attribute length, skipping parse",
			slog.Int("attr_len", len(b)),
		)
		d.opts.observer.DecodeFailed(PATH_ATTR_MP_UNREACH_NLRI, f, errKind(err))
		return nil, &DecodeError{
			Op:     "decode mp_unreach header",
			AFI:    afi,
			Offset: c.offset(),
			Err:    err,
		}
	}
	p := &ParsedUnreach{
		AFI:  afi,
		SAFI: safi,
	}
	v, skip := lookupVariant(f)
	if skip != NotSkipped {
		d.skipped(PATH_ATTR_MP_UNREACH_NLRI, f, skip)
		p.Skipped = skip
		return p, nil
	}
	// an empty withdrawn field is End-of-RIB for the family
	// https://www.rfc-editor.org/rfc/rfc4724#section-2
	p.Withdrawn, err = d.nlriDecoder(v, f).decode(c.rest())
	if err != nil {
		d.logger().Warn("MP_UNREACH NLRI decode stopped early",
			slog.String("family", f.String()),
			slog.Int("records", len(p.Withdrawn)),
			slog.String("error", err.Error()),
		)
		d.opts.observer.DecodeFailed(PATH_ATTR_MP_UNREACH_NLRI, f, errKind(err))
		return p, err
	}
	d.opts.observer.AttributeDecoded(PATH_ATTR_MP_UNREACH_NLRI, f, len(p.Withdrawn))
	return p, nil
}

// EndOfRIB reports whether p is an End-of-RIB marker for its family.
func (p *ParsedUnreach) EndOfRIB() bool {
	return p.Skipped == NotSkipped && len(p.Withdrawn) == 0
}
