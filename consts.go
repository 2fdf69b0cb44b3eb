package mpreach

// Address Family Identifiers.
// https://www.iana.org/assignments/address-family-numbers
const (
	AFI_IPV4  uint16 = 1
	AFI_IPV6  uint16 = 2
	AFI_BGPLS uint16 = 16388
)

// Subsequent Address Family Identifiers.
// https://www.iana.org/assignments/safi-namespace
const (
	SAFI_UNICAST    uint8 = 1
	SAFI_MULTICAST  uint8 = 2
	SAFI_NLRI_LABEL uint8 = 4
	SAFI_BGPLS      uint8 = 71
)

// Path attribute type codes.
const (
	PATH_ATTR_ORIGIN          uint8 = 1
	PATH_ATTR_AS_PATH         uint8 = 2
	PATH_ATTR_NEXT_HOP        uint8 = 3
	PATH_ATTR_MED             uint8 = 4
	PATH_ATTR_LOCAL_PREF      uint8 = 5
	PATH_ATTR_COMMUNITY       uint8 = 8
	PATH_ATTR_MP_REACH_NLRI   uint8 = 14
	PATH_ATTR_MP_UNREACH_NLRI uint8 = 15
)

// Capability codes.
const (
	CAP_MP_EXTENSIONS uint8 = 1
	CAP_FOUR_OCTET_AS uint8 = 65
	CAP_ADD_PATH      uint8 = 69
)

// Notification error codes.
const (
	NOTIF_CODE_MESSAGE_HEADER_ERR uint8 = 1
	NOTIF_CODE_OPEN_MESSAGE_ERR   uint8 = 2
	NOTIF_CODE_UPDATE_MESSAGE_ERR uint8 = 3
)

// UPDATE message error subcodes.
const (
	NOTIF_SUBCODE_MALFORMED_ATTR_LIST   uint8 = 1
	NOTIF_SUBCODE_ATTR_LEN_ERR          uint8 = 5
	NOTIF_SUBCODE_INVALID_NETWORK_FIELD uint8 = 10
)

type notifCodeDesc struct {
	desc     string
	subcodes map[uint8]string
}

var notifCodesMap = map[uint8]notifCodeDesc{
	NOTIF_CODE_MESSAGE_HEADER_ERR: {
		desc:     "message header error",
		subcodes: map[uint8]string{},
	},
	NOTIF_CODE_OPEN_MESSAGE_ERR: {
		desc:     "open message error",
		subcodes: map[uint8]string{},
	},
	NOTIF_CODE_UPDATE_MESSAGE_ERR: {
		desc: "update message error",
		subcodes: map[uint8]string{
			NOTIF_SUBCODE_MALFORMED_ATTR_LIST:   "malformed attribute list",
			NOTIF_SUBCODE_ATTR_LEN_ERR:          "attribute length error",
			NOTIF_SUBCODE_INVALID_NETWORK_FIELD: "invalid network field",
		},
	},
}
