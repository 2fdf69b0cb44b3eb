package mpreach

// withdrawLabel is the 24-bit label field value RFC 3107 places in
// withdrawn labeled NLRI (label 0x80000, bottom-of-stack clear).
const withdrawLabel = 0x800000

// Label is a single MPLS label stack entry as carried in labeled NLRI. Only
// 3 octets are present on the wire, so there is no TTL.
// https://www.rfc-editor.org/rfc/rfc3032#section-2.1
type Label struct {
	Value         uint32
	Exp           uint8
	BottomOfStack bool
}

// DecodeLabel decodes the 24-bit big-endian label field in b. Every input
// decodes to a value.
func DecodeLabel(b [3]byte) Label {
	raw := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return Label{
		Value:         raw >> 4,
		Exp:           uint8(raw>>1) & 0x7,
		BottomOfStack: raw&0x1 != 0,
	}
}

func (l Label) raw() uint32 {
	raw := (l.Value&0xfffff)<<4 | uint32(l.Exp&0x7)<<1
	if l.BottomOfStack {
		raw |= 1
	}
	return raw
}

// IsWithdraw reports whether l is the withdrawal marker of RFC 3107 section 3.
func (l Label) IsWithdraw() bool {
	return l.raw() == withdrawLabel
}

// Encode is the inverse of DecodeLabel.
func (l Label) Encode() [3]byte {
	raw := l.raw()
	return [3]byte{byte(raw >> 16), byte(raw >> 8), byte(raw)}
}
