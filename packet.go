package mpreach

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Capability is a BGP capability as defined by RFC5492.
type Capability struct {
	Code  uint8
	Value []byte
}

func (c Capability) Equal(d Capability) bool {
	if c.Code != d.Code {
		return false
	}
	return bytes.Equal(c.Value, d.Value)
}

// DecodeCapabilities decodes a sequence of <code, length, value> capability
// TLVs, i.e. the value of an OPEN message Capabilities optional parameter.
func DecodeCapabilities(b []byte) ([]Capability, error) {
	caps := make([]Capability, 0)
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, &Notification{Code: NOTIF_CODE_OPEN_MESSAGE_ERR}
		}
		capLen := int(b[1])
		if len(b) < capLen+2 {
			return nil, &Notification{Code: NOTIF_CODE_OPEN_MESSAGE_ERR}
		}
		value := make([]byte, capLen)
		copy(value, b[2:2+capLen])
		caps = append(caps, Capability{
			Code:  b[0],
			Value: value,
		})
		b = b[2+capLen:]
	}
	return caps, nil
}

// NewMPExtensionsCapability returns a Multiprotocol Extensions Capability for
// the provided AFI and SAFI.
func NewMPExtensionsCapability(afi uint16, safi uint8) Capability {
	mpData := make([]byte, 4)
	binary.BigEndian.PutUint16(mpData, afi)
	mpData[3] = safi
	return Capability{
		Code:  CAP_MP_EXTENSIONS,
		Value: mpData,
	}
}

// Notification describes a BGP NOTIFICATION that a session-holding caller
// should send in response to a message that could not be framed.
type Notification struct {
	Code    uint8
	Subcode uint8
	Data    []byte
}

func (n *Notification) Error() string {
	var codeDesc, subcodeDesc string
	d, ok := notifCodesMap[n.Code]
	if ok {
		codeDesc = d.desc
		s, ok := d.subcodes[n.Subcode]
		if ok {
			subcodeDesc = s
		}
	}
	return fmt.Sprintf("notification code:%d (%s) subcode:%d (%s)",
		n.Code, codeDesc, n.Subcode, subcodeDesc)
}
