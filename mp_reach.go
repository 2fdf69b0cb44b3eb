package mpreach

import (
	"log/slog"
	"net/netip"
)

// reachVariant is the NLRI decoding strategy selected for an <AFI, SAFI>.
type reachVariant uint8

const (
	variantUnsupported reachVariant = iota
	variantUnicast
	variantLabeled
	variantBGPLS
)

var reachVariants = map[AFISAFI]reachVariant{
	{AFI: AFI_IPV4, SAFI: SAFI_UNICAST}:    variantUnicast,
	{AFI: AFI_IPV6, SAFI: SAFI_UNICAST}:    variantUnicast,
	{AFI: AFI_IPV4, SAFI: SAFI_NLRI_LABEL}: variantLabeled,
	{AFI: AFI_IPV6, SAFI: SAFI_NLRI_LABEL}: variantLabeled,
}

func lookupVariant(f AFISAFI) (reachVariant, SkipReason) {
	if v, ok := reachVariants[f]; ok {
		return v, NotSkipped
	}
	switch f.AFI {
	case AFI_BGPLS:
		// recognized, decoded elsewhere
		return variantBGPLS, SkipBGPLS
	case AFI_IPV4, AFI_IPV6:
		return variantUnsupported, SkipUnsupportedSAFI
	}
	return variantUnsupported, SkipUnsupportedAFI
}

// ReachDecoder decodes MP_REACH_NLRI and MP_UNREACH_NLRI attribute data for
// IPv4/IPv6 unicast and labeled unicast. A ReachDecoder holds no per-call
// state and may be used from multiple goroutines if its AddPathChecker and
// Observer allow it.
type ReachDecoder struct {
	opts decoderOptions
}

// NewReachDecoder returns a new ReachDecoder.
func NewReachDecoder(opts ...DecoderOption) *ReachDecoder {
	o := defaultDecoderOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &ReachDecoder{opts: o}
}

func (d *ReachDecoder) logger() *slog.Logger {
	if d.opts.logger != nil {
		return d.opts.logger
	}
	return defaultLogger()
}

func (d *ReachDecoder) nlriDecoder(v reachVariant, f AFISAFI) nlriDecoder {
	shape := shapeUnicast
	if v == variantLabeled {
		shape = shapeLabeled
	}
	return nlriDecoder{
		shape:   shape,
		afi:     f.AFI,
		safi:    f.SAFI,
		addPath: d.opts.addPath.SupportsAddPath(f.AFI, f.SAFI),
		logger:  d.logger(),
	}
}

// Decode decodes the MP_REACH_NLRI attribute data in b (the attribute value,
// without flags, type, or length).
// https://www.rfc-editor.org/rfc/rfc4760#section-3
//
// If the fixed header does not fit in b, Decode returns a nil *ParsedReach
// and an error wrapping ErrTruncated. Once the header is decoded a non-nil
// *ParsedReach is always returned: its NextHop is set, and on an NLRI decode
// error it holds the records completed before the failure. An unsupported
// AFI/SAFI is not an error; Skipped is set and Records is empty.
func (d *ReachDecoder) Decode(b []byte) (*ParsedReach, error) {
	log := d.logger()
	c := newCursor(b)
	afi, err := c.uint16()
	var safi, nhLen uint8
	var nh []byte
	if err == nil {
		safi, err = c.uint8()
	}
	if err == nil {
		nhLen, err = c.uint8()
	}
	if err == nil {
		nh, err = c.take(int(nhLen))
	}
	if err == nil {
		_, err = c.uint8() // reserved
	}
	f := AFISAFI{AFI: afi, SAFI: safi}
	if err != nil {
		log.Warn("MP_REACH next hop and reserved octet exceed attribute length, skipping parse",
			slog.Int("attr_len", len(b)),
			slog.Int("nh_len", int(nhLen)),
			slog.String("error", err.Error()),
		)
		d.opts.observer.DecodeFailed(PATH_ATTR_MP_REACH_NLRI, f, errKind(err))
		return nil, &DecodeError{
			Op:     "decode mp_reach header",
			AFI:    afi,
			SAFI:   safi,
			Offset: c.offset(),
			Err:    err,
		}
	}
	nlri := c.rest()
	log.Debug("decoded mp_reach header",
		slog.Int("afi", int(afi)),
		slog.Int("safi", int(safi)),
		slog.Int("nh_len", int(nhLen)),
		slog.Int("nlri_len", len(nlri)),
	)

	p := &ParsedReach{
		AFI:     afi,
		SAFI:    safi,
		NextHop: nextHopAddr(afi, nh),
	}
	v, skip := lookupVariant(f)
	if skip != NotSkipped {
		d.skipped(PATH_ATTR_MP_REACH_NLRI, f, skip)
		p.Skipped = skip
		return p, nil
	}
	p.Records, err = d.nlriDecoder(v, f).decode(nlri)
	if err != nil {
		log.Warn("MP_REACH NLRI decode stopped early",
			slog.String("family", f.String()),
			slog.Int("records", len(p.Records)),
			slog.String("error", err.Error()),
		)
		d.opts.observer.DecodeFailed(PATH_ATTR_MP_REACH_NLRI, f, errKind(err))
		return p, err
	}
	d.opts.observer.AttributeDecoded(PATH_ATTR_MP_REACH_NLRI, f, len(p.Records))
	return p, nil
}

func (d *ReachDecoder) skipped(code uint8, f AFISAFI, reason SkipReason) {
	log := d.logger()
	switch reason {
	case SkipBGPLS:
		log.Debug("BGP-LS NLRI not decoded", slog.Int("attr", int(code)))
	case SkipUnsupportedSAFI:
		log.Info("SAFI is not implemented yet, skipping",
			slog.Int("attr", int(code)),
			slog.Int("afi", int(f.AFI)),
			slog.Int("safi", int(f.SAFI)),
		)
	default:
		log.Info("AFI is not implemented yet, skipping",
			slog.Int("attr", int(code)),
			slog.Int("afi", int(f.AFI)),
		)
	}
	d.opts.observer.AttributeSkipped(code, f, reason)
}

// nextHopAddr formats up to 16 bytes of nh. IPv4 and IPv6 AFIs select the
// family; for other AFIs a 4 byte next hop is taken as IPv4.
func nextHopAddr(afi uint16, nh []byte) netip.Addr {
	var buf [16]byte
	copy(buf[:], nh)
	if afi == AFI_IPV4 || (afi != AFI_IPV6 && len(nh) == 4) {
		return netip.AddrFrom4([4]byte(buf[:4]))
	}
	return netip.AddrFrom16(buf)
}
