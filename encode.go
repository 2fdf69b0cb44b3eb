package mpreach

import (
	"encoding/binary"
)

// EncodeNLRI encodes records in the wire format decoded by ReachDecoder. A
// path identifier is written for every record when addPath is true. Records
// with labels are written as labeled NLRI; the caller is responsible for
// setting BottomOfStack on the last label. Prefix bytes not covered by
// r.Prefix, e.g. for a zero Addr, are written as zeros.
func EncodeNLRI(records []NLRIRecord, addPath bool) []byte {
	b := make([]byte, 0)
	for _, r := range records {
		var addr [32]byte
		copy(addr[:], r.Prefix.AsSlice())
		if addPath {
			b = binary.BigEndian.AppendUint32(b, r.PathID)
		}
		b = append(b, r.PrefixLength+uint8(24*len(r.Labels)))
		for _, l := range r.Labels {
			enc := l.Encode()
			b = append(b, enc[:]...)
		}
		octets := (int(r.PrefixLength) + 7) / 8
		b = append(b, addr[:octets]...)
	}
	return b
}
