package mpreach

import (
	"encoding/binary"
	"fmt"
)

// AddPathChecker reports whether NLRI for an <AFI, SAFI> are prefixed with a
// 4-byte path identifier, i.e. whether ADD-PATH receive was negotiated.
type AddPathChecker interface {
	SupportsAddPath(afi uint16, safi uint8) bool
}

// AddPathTuple is a single <AFI, SAFI, Send/Receive> entry of an ADD-PATH
// capability.
// https://www.rfc-editor.org/rfc/rfc7911#section-4
type AddPathTuple struct {
	AFI  uint16
	SAFI uint8
	Tx   bool
	Rx   bool
}

// DecodeAddPathTuples decodes the value of an ADD-PATH capability.
func DecodeAddPathTuples(b []byte) ([]AddPathTuple, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, &Notification{
			Code: NOTIF_CODE_OPEN_MESSAGE_ERR,
		}
	}
	tuples := make([]AddPathTuple, 0, len(b)/4)
	for ; len(b) > 0; b = b[4:] {
		var a AddPathTuple
		if err := a.Decode(b); err != nil {
			return nil, err
		}
		tuples = append(tuples, a)
	}
	return tuples, nil
}

func (a *AddPathTuple) Decode(b []byte) error {
	if len(b) < 4 {
		return &Notification{
			Code: NOTIF_CODE_OPEN_MESSAGE_ERR,
		}
	}
	mode := b[3]
	if mode < 1 || mode > 3 {
		return &Notification{
			Code: NOTIF_CODE_OPEN_MESSAGE_ERR,
		}
	}
	a.AFI = binary.BigEndian.Uint16(b)
	a.SAFI = b[2]
	a.Rx = mode&1 != 0
	a.Tx = mode&2 != 0
	return nil
}

func (a AddPathTuple) Encode() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b, a.AFI)
	b[2] = a.SAFI
	// https://www.rfc-editor.org/rfc/rfc7911#page-4
	// Send/Receive:
	//  This field indicates whether the sender is (a) able to receive
	//  multiple paths from its peer (value 1), (b) able to send
	//  multiple paths to its peer (value 2), or (c) both (value 3) for
	//  the <AFI, SAFI>.
	if a.Rx {
		b[3] |= 1
	}
	if a.Tx {
		b[3] |= 2
	}
	return b
}

// NewAddPathCapability returns an add-path Capability for the provided
// AddPathTuples.
func NewAddPathCapability(tuples []AddPathTuple) Capability {
	value := make([]byte, 0, 4*len(tuples))
	for _, tuple := range tuples {
		value = append(value, tuple.Encode()...)
	}
	return Capability{
		Code:  CAP_ADD_PATH,
		Value: value,
	}
}

// AFISAFI identifies an address family / subsequent address family pair.
type AFISAFI struct {
	AFI  uint16
	SAFI uint8
}

func (a AFISAFI) String() string {
	return fmt.Sprintf("%s/%s", afiName(a.AFI), safiName(a.SAFI))
}

// AddPathTable is an AddPathChecker backed by a set of <AFI, SAFI> pairs. The
// zero value has add-path disabled for every pair. AddPathTable is not safe
// for concurrent mutation; populate it before sharing across decoders.
type AddPathTable struct {
	enabled map[AFISAFI]struct{}
}

// NewAddPathTable returns an AddPathTable enabling every tuple that can be
// received (Rx set).
func NewAddPathTable(tuples ...AddPathTuple) *AddPathTable {
	t := &AddPathTable{}
	for _, tuple := range tuples {
		if tuple.Rx {
			t.Enable(tuple.AFI, tuple.SAFI)
		}
	}
	return t
}

// AddPathTableFromCapabilities builds an AddPathTable from the ADD-PATH
// capabilities found in caps.
func AddPathTableFromCapabilities(caps []Capability) (*AddPathTable, error) {
	t := &AddPathTable{}
	for _, c := range caps {
		if c.Code != CAP_ADD_PATH {
			continue
		}
		tuples, err := DecodeAddPathTuples(c.Value)
		if err != nil {
			return nil, err
		}
		for _, tuple := range tuples {
			if tuple.Rx {
				t.Enable(tuple.AFI, tuple.SAFI)
			}
		}
	}
	return t, nil
}

// Enable turns on path identifier decoding for afi/safi.
func (t *AddPathTable) Enable(afi uint16, safi uint8) {
	if t.enabled == nil {
		t.enabled = make(map[AFISAFI]struct{})
	}
	t.enabled[AFISAFI{AFI: afi, SAFI: safi}] = struct{}{}
}

func (t *AddPathTable) SupportsAddPath(afi uint16, safi uint8) bool {
	if t == nil {
		return false
	}
	_, ok := t.enabled[AFISAFI{AFI: afi, SAFI: safi}]
	return ok
}

// Families returns the enabled pairs in no particular order.
func (t *AddPathTable) Families() []AFISAFI {
	if t == nil {
		return nil
	}
	out := make([]AFISAFI, 0, len(t.enabled))
	for k := range t.enabled {
		out = append(out, k)
	}
	return out
}

type noAddPath struct{}

func (noAddPath) SupportsAddPath(uint16, uint8) bool { return false }
