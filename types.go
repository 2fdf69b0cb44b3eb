package mpreach

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

func afiName(afi uint16) string {
	switch afi {
	case AFI_IPV4:
		return "ipv4"
	case AFI_IPV6:
		return "ipv6"
	case AFI_BGPLS:
		return "bgpls"
	}
	return strconv.Itoa(int(afi))
}

func safiName(safi uint8) string {
	switch safi {
	case SAFI_UNICAST:
		return "unicast"
	case SAFI_MULTICAST:
		return "multicast"
	case SAFI_NLRI_LABEL:
		return "labeled-unicast"
	case SAFI_BGPLS:
		return "bgpls"
	}
	return strconv.Itoa(int(safi))
}

// ParseAFISAFI parses the "afi/safi" form produced by AFISAFI.String, e.g.
// "ipv6/labeled-unicast" or "1/4".
func ParseAFISAFI(s string) (AFISAFI, error) {
	afiStr, safiStr, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "/")
	if !ok {
		return AFISAFI{}, fmt.Errorf("invalid afi/safi %q", s)
	}
	var a AFISAFI
	switch afiStr {
	case "ipv4":
		a.AFI = AFI_IPV4
	case "ipv6":
		a.AFI = AFI_IPV6
	case "bgpls":
		a.AFI = AFI_BGPLS
	default:
		n, err := strconv.ParseUint(afiStr, 10, 16)
		if err != nil {
			return AFISAFI{}, fmt.Errorf("invalid afi in %q: %w", s, err)
		}
		a.AFI = uint16(n)
	}
	switch safiStr {
	case "unicast":
		a.SAFI = SAFI_UNICAST
	case "multicast":
		a.SAFI = SAFI_MULTICAST
	case "labeled-unicast", "label":
		a.SAFI = SAFI_NLRI_LABEL
	case "bgpls":
		a.SAFI = SAFI_BGPLS
	default:
		n, err := strconv.ParseUint(safiStr, 10, 8)
		if err != nil {
			return AFISAFI{}, fmt.Errorf("invalid safi in %q: %w", s, err)
		}
		a.SAFI = uint8(n)
	}
	return a, nil
}

// NLRIRecord is a single decoded NLRI entry.
type NLRIRecord struct {
	AFI  uint16
	SAFI uint8
	// PathID is zero when add-path is not in use, which is indistinguishable
	// from an explicit path identifier of 0.
	PathID uint32
	// PrefixLength excludes the bits of any label stack.
	PrefixLength uint8
	Prefix       netip.Addr
	// PrefixBin holds the first 4 bytes of the address regardless of family.
	PrefixBin [4]byte
	Labels    []Label
}

// NetipPrefix returns the record as a netip.Prefix.
func (r NLRIRecord) NetipPrefix() netip.Prefix {
	return netip.PrefixFrom(r.Prefix, int(r.PrefixLength))
}

func (r NLRIRecord) String() string {
	var sb strings.Builder
	if r.PathID != 0 {
		fmt.Fprintf(&sb, "id %d ", r.PathID)
	}
	sb.WriteString(r.NetipPrefix().String())
	if len(r.Labels) > 0 {
		sb.WriteString(" labels")
		for _, l := range r.Labels {
			fmt.Fprintf(&sb, " %d", l.Value)
		}
	}
	return sb.String()
}

// NLRIFields is the textual view of an NLRIRecord.
type NLRIFields struct {
	PathID       string   `json:"path_id"`
	PrefixLength string   `json:"prefix_len"`
	Prefix       string   `json:"prefix"`
	PrefixBin    string   `json:"prefix_bin"`
	Labels       []string `json:"labels,omitempty"`
}

// Fields renders r as decimal and textual strings. PrefixBin is the raw 4
// bytes, hex encoded.
func (r NLRIRecord) Fields() NLRIFields {
	f := NLRIFields{
		PathID:       strconv.FormatUint(uint64(r.PathID), 10),
		PrefixLength: strconv.Itoa(int(r.PrefixLength)),
		Prefix:       r.Prefix.String(),
		PrefixBin:    hex.EncodeToString(r.PrefixBin[:]),
	}
	for _, l := range r.Labels {
		f.Labels = append(f.Labels, strconv.FormatUint(uint64(l.Value), 10))
	}
	return f
}

// SkipReason explains why a structurally valid attribute produced no records.
type SkipReason uint8

const (
	NotSkipped SkipReason = iota
	SkipBGPLS
	SkipUnsupportedAFI
	SkipUnsupportedSAFI
)

func (s SkipReason) String() string {
	switch s {
	case NotSkipped:
		return "none"
	case SkipBGPLS:
		return "bgpls"
	case SkipUnsupportedAFI:
		return "unsupported_afi"
	case SkipUnsupportedSAFI:
		return "unsupported_safi"
	}
	return "unknown"
}

// ParsedReach is the result of decoding an MP_REACH_NLRI attribute.
type ParsedReach struct {
	AFI     uint16
	SAFI    uint8
	NextHop netip.Addr
	Records []NLRIRecord
	Skipped SkipReason
}

// ParsedUnreach is the result of decoding an MP_UNREACH_NLRI attribute.
type ParsedUnreach struct {
	AFI       uint16
	SAFI      uint8
	Withdrawn []NLRIRecord
	Skipped   SkipReason
}
