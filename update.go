package mpreach

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"
	"strings"
)

// PathAttrFlags represents the flags for a path attribute.
type PathAttrFlags uint8

// Optional defines whether the attribute is optional (if set to 1) or
// well-known (if set to 0).
func (p PathAttrFlags) Optional() bool {
	return 1<<7&p != 0
}

// Transitive defines whether an optional attribute is transitive (if set to 1)
// or non-transitive (if set to 0).
func (p PathAttrFlags) Transitive() bool {
	return 1<<6&p != 0
}

// Partial defines whether the information contained in the optional transitive
// attribute is partial (if set to 1) or complete (if set to 0).
func (p PathAttrFlags) Partial() bool {
	return 1<<5&p != 0
}

// ExtendedLen defines whether the Attribute Length is one octet (if set to 0)
// or two octets (if set to 1).
func (p PathAttrFlags) ExtendedLen() bool {
	return 1<<4&p != 0
}

// Attr is a path attribute rendered as text.
type Attr struct {
	OfficialType uint8
	Flags        PathAttrFlags
	Name         string
	Values       []string
}

var attrNames = map[uint8]string{
	PATH_ATTR_ORIGIN:     "origin",
	PATH_ATTR_AS_PATH:    "asPath",
	PATH_ATTR_NEXT_HOP:   "nextHop",
	PATH_ATTR_MED:        "med",
	PATH_ATTR_LOCAL_PREF: "localPref",
	PATH_ATTR_COMMUNITY:  "communities",
}

// ParsedUpdate aggregates everything decoded from one UPDATE message.
type ParsedUpdate struct {
	// Attrs is keyed by path attribute type code. The next hop carried in
	// MP_REACH_NLRI is stored under PATH_ATTR_NEXT_HOP.
	Attrs     map[uint8]*Attr
	NLRI      []NLRIRecord
	Withdrawn []NLRIRecord
	Reach     *ParsedReach
	Unreach   *ParsedUnreach
	// Errs joins the contained per-field errors. The fields that decoded
	// successfully are still populated.
	Errs error
}

// Attr returns the attribute for code, or nil.
func (u *ParsedUpdate) Attr(code uint8) *Attr {
	return u.Attrs[code]
}

func (u *ParsedUpdate) setAttr(code uint8, flags PathAttrFlags, values ...string) {
	a, ok := u.Attrs[code]
	if !ok {
		a = &Attr{
			OfficialType: code,
			Flags:        flags,
			Name:         attrNames[code],
		}
		u.Attrs[code] = a
	}
	a.Values = append(a.Values, values...)
}

// UpdateParser decodes UPDATE messages into a ParsedUpdate, handing
// MP_REACH_NLRI and MP_UNREACH_NLRI to a ReachDecoder.
type UpdateParser struct {
	reach *ReachDecoder
}

// NewUpdateParser returns a new UpdateParser. The options are shared with the
// underlying ReachDecoder.
func NewUpdateParser(opts ...DecoderOption) *UpdateParser {
	return &UpdateParser{
		reach: NewReachDecoder(opts...),
	}
}

func (p *UpdateParser) logger() *slog.Logger {
	return p.reach.logger()
}

func (p *UpdateParser) ipv4Decoder() nlriDecoder {
	return p.reach.nlriDecoder(variantUnicast, AFISAFI{AFI: AFI_IPV4, SAFI: SAFI_UNICAST})
}

func malformedAttrListErr() *Notification {
	return &Notification{
		Code:    NOTIF_CODE_UPDATE_MESSAGE_ERR,
		Subcode: NOTIF_SUBCODE_MALFORMED_ATTR_LIST,
	}
}

// Parse decodes the UPDATE message body in b, i.e. the message without its
// 19 byte header.
//
// A *Notification error is returned when the message cannot be framed, in
// which case the returned *ParsedUpdate may be nil. Problems confined to a
// single field or attribute are logged, joined into ParsedUpdate.Errs and do
// not stop the parse.
func (p *UpdateParser) Parse(b []byte) (*ParsedUpdate, error) {
	// withdrawn routes length + total path attributes length
	if len(b) < 4 {
		return nil, &Notification{
			Code: NOTIF_CODE_UPDATE_MESSAGE_ERR,
		}
	}

	// https://www.rfc-editor.org/rfc/rfc4271#section-6.3
	// Error checking of an UPDATE message begins by examining the path
	// attributes.  If the Withdrawn Routes Length or Total Attribute Length
	// is too large (i.e., if Withdrawn Routes Length + Total Attribute
	// Length + 23 exceeds the message Length), then the Error Subcode MUST
	// be set to Malformed Attribute List.
	wrl := int(binary.BigEndian.Uint16(b[:2]))
	b = b[2:]
	if len(b) < wrl+2 {
		return nil, malformedAttrListErr()
	}
	pal := int(binary.BigEndian.Uint16(b[wrl : wrl+2]))
	if len(b[wrl+2:]) < pal {
		return nil, malformedAttrListErr()
	}

	u := &ParsedUpdate{
		Attrs: make(map[uint8]*Attr),
	}

	withdrawn, err := p.ipv4Decoder().decode(b[:wrl])
	u.Withdrawn = append(u.Withdrawn, withdrawn...)
	if err != nil {
		p.logger().Warn("withdrawn routes decode stopped early", slog.String("error", err.Error()))
		u.Errs = errors.Join(u.Errs, fmt.Errorf("withdrawn routes: %w", err))
	}
	b = b[wrl+2:]

	if err := p.parsePathAttrs(u, b[:pal]); err != nil {
		return u, err
	}
	b = b[pal:]

	nlri, err := p.ipv4Decoder().decode(b)
	u.NLRI = append(u.NLRI, nlri...)
	if err != nil {
		p.logger().Warn("nlri decode stopped early", slog.String("error", err.Error()))
		u.Errs = errors.Join(u.Errs, fmt.Errorf("nlri: %w", err))
	}
	return u, nil
}

type attrsBitmap [256 / 32]uint32

func (a *attrsBitmap) set(b uint8) {
	a[b/32] |= uint32(1) << (b % 32)
}

func (a *attrsBitmap) isSet(b uint8) bool {
	return a[b/32]&uint32(1<<(b%32)) != 0
}

// parsePathAttrs isolates each attribute by its length and decodes the ones
// it knows. Only a duplicate MP_REACH_NLRI / MP_UNREACH_NLRI is fatal.
func (p *UpdateParser) parsePathAttrs(u *ParsedUpdate, b []byte) error {
	var seen attrsBitmap
	for len(b) > 0 {
		flags := PathAttrFlags(b[0])
		if len(b) < 2 {
			u.Errs = errors.Join(u.Errs, fmt.Errorf("path attribute header: %w", ErrTruncated))
			break
		}
		code := b[1]
		var attrLen int
		if flags.ExtendedLen() {
			if len(b) < 4 {
				u.Errs = errors.Join(u.Errs, fmt.Errorf("attribute %d header: %w", code, ErrTruncated))
				break
			}
			attrLen = int(binary.BigEndian.Uint16(b[2:4]))
			b = b[4:]
		} else {
			if len(b) < 3 {
				u.Errs = errors.Join(u.Errs, fmt.Errorf("attribute %d header: %w", code, ErrTruncated))
				break
			}
			attrLen = int(b[2])
			b = b[3:]
		}
		if len(b) < attrLen {
			// https://www.rfc-editor.org/rfc/rfc7606#section-4
			// the length of the last encountered path attribute would cause
			// the Total Attribute Length to be exceeded
			p.logger().Warn("path attribute length exceeds total attribute length",
				slog.Int("attr", int(code)),
				slog.Int("attr_len", attrLen),
				slog.Int("remaining", len(b)),
			)
			u.Errs = errors.Join(u.Errs, fmt.Errorf("attribute %d: %w", code, ErrTruncated))
			break
		}
		if seen.isSet(code) {
			// https://www.rfc-editor.org/rfc/rfc7606#section-3
			// If the MP_REACH_NLRI attribute or the MP_UNREACH_NLRI [RFC4760]
			// attribute appears more than once in the UPDATE message, then a
			// NOTIFICATION message MUST be sent with the Error Subcode
			// "Malformed Attribute List".  If any other attribute (whether
			// recognized or unrecognized) appears more than once in an UPDATE
			// message, then all the occurrences of the attribute other than the
			// first one SHALL be discarded and the UPDATE message will continue
			// to be processed.
			if code == PATH_ATTR_MP_REACH_NLRI || code == PATH_ATTR_MP_UNREACH_NLRI {
				return errors.Join(u.Errs, malformedAttrListErr())
			}
			b = b[attrLen:]
			continue
		}
		seen.set(code)
		if err := p.parsePathAttr(u, code, flags, b[:attrLen]); err != nil {
			u.Errs = errors.Join(u.Errs, err)
		}
		b = b[attrLen:]
	}
	return nil
}

func attrLenErr(code uint8, got int, want string) error {
	return fmt.Errorf("attribute %d length %d, want %s: %w", code, got, want, ErrMalformed)
}

func (p *UpdateParser) parsePathAttr(u *ParsedUpdate, code uint8, flags PathAttrFlags, b []byte) error {
	switch code {
	case PATH_ATTR_ORIGIN:
		if len(b) != 1 || b[0] > 2 {
			return attrLenErr(code, len(b), "1 with value <= 2")
		}
		u.setAttr(code, flags, [...]string{"igp", "egp", "incomplete"}[b[0]])
	case PATH_ATTR_AS_PATH:
		path, err := decodeASPath(b)
		if err != nil {
			return err
		}
		u.setAttr(code, flags, path...)
	case PATH_ATTR_NEXT_HOP:
		if len(b) != 4 {
			return attrLenErr(code, len(b), "4")
		}
		u.setAttr(code, flags, netip.AddrFrom4([4]byte(b)).String())
	case PATH_ATTR_MED, PATH_ATTR_LOCAL_PREF:
		if len(b) != 4 {
			return attrLenErr(code, len(b), "4")
		}
		u.setAttr(code, flags, strconv.FormatUint(uint64(binary.BigEndian.Uint32(b)), 10))
	case PATH_ATTR_COMMUNITY:
		if len(b) == 0 || len(b)%4 != 0 {
			return attrLenErr(code, len(b), "a non-zero multiple of 4")
		}
		for ; len(b) > 0; b = b[4:] {
			u.setAttr(code, flags, fmt.Sprintf("%d:%d",
				binary.BigEndian.Uint16(b), binary.BigEndian.Uint16(b[2:])))
		}
	case PATH_ATTR_MP_REACH_NLRI:
		pr, err := p.reach.Decode(b)
		if pr == nil {
			return err
		}
		u.Reach = pr
		// the next hop is kept even if the NLRI did not decode
		u.setAttr(PATH_ATTR_NEXT_HOP, flags, pr.NextHop.String())
		u.NLRI = append(u.NLRI, pr.Records...)
		return err
	case PATH_ATTR_MP_UNREACH_NLRI:
		pu, err := p.reach.DecodeUnreach(b)
		if pu == nil {
			return err
		}
		u.Unreach = pu
		u.Withdrawn = append(u.Withdrawn, pu.Withdrawn...)
		return err
	}
	return nil
}

// decodeASPath renders four-octet AS_PATH segments, sequences as one value
// per AS and sets as a single "{a,b}" value.
func decodeASPath(b []byte) ([]string, error) {
	out := make([]string, 0)
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, fmt.Errorf("as_path segment header: %w", ErrTruncated)
		}
		segType := b[0]
		segLen := int(b[1]) * 4
		b = b[2:]
		if segLen == 0 || len(b) < segLen {
			return nil, fmt.Errorf("as_path segment length %d: %w", segLen, ErrMalformed)
		}
		asns := make([]string, 0, segLen/4)
		for seg := b[:segLen]; len(seg) > 0; seg = seg[4:] {
			asns = append(asns, strconv.FormatUint(uint64(binary.BigEndian.Uint32(seg)), 10))
		}
		switch segType {
		case 1:
			out = append(out, "{"+strings.Join(asns, ",")+"}")
		case 2:
			out = append(out, asns...)
		default:
			return nil, fmt.Errorf("as_path segment type %d: %w", segType, ErrMalformed)
		}
		b = b[segLen:]
	}
	return out, nil
}
