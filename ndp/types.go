package ndp

// MsgType identifies one of the five NDP message types, or ALL when used
// as a handler registration filter. The numeric value is the ICMPv6 type
// octet for every value except MsgTypeAll, which never appears on the
// wire.
type MsgType uint8

const (
	// MsgTypeAll matches every message type in a handler registration. It
	// is never the Type of an actual Message.
	MsgTypeAll MsgType = 0

	MsgTypeRS       MsgType = 133 // Router Solicitation
	MsgTypeRA       MsgType = 134 // Router Advertisement
	MsgTypeNS       MsgType = 135 // Neighbor Solicitation
	MsgTypeNA       MsgType = 136 // Neighbor Advertisement
	MsgTypeRedirect MsgType = 137 // Redirect
)

func (t MsgType) String() string {
	switch t {
	case MsgTypeAll:
		return "all"
	case MsgTypeRS:
		return "rs"
	case MsgTypeRA:
		return "ra"
	case MsgTypeNS:
		return "ns"
	case MsgTypeNA:
		return "na"
	case MsgTypeRedirect:
		return "r"
	default:
		return "unknown"
	}
}

// ParseMsgType maps a CLI-style message type string ("rs", "ra", "ns",
// "na", "r", or "" / "all") to its MsgType, mirroring the original
// ndptool's -t/--msg_type argument.
func ParseMsgType(s string) (MsgType, error) {
	switch s {
	case "", "all":
		return MsgTypeAll, nil
	case "rs":
		return MsgTypeRS, nil
	case "ra":
		return MsgTypeRA, nil
	case "ns":
		return MsgTypeNS, nil
	case "na":
		return MsgTypeNA, nil
	case "r":
		return MsgTypeRedirect, nil
	default:
		return 0, errInvalidArgument("unknown message type %q", s)
	}
}

// fixedHeaderLen returns the length of the fixed ICMPv6 header+body for a
// message type, per RFC 4861 §4: RS and the trailing reserved word is 8
// bytes, RA is 16, NS/NA carry a 16-byte target address after a 4-byte
// reserved/flags word (24 bytes total), and Redirect carries both a
// target and destination address (40 bytes total).
func fixedHeaderLen(t MsgType) (int, error) {
	switch t {
	case MsgTypeRS:
		return 8, nil
	case MsgTypeRA:
		return 16, nil
	case MsgTypeNS, MsgTypeNA:
		return 24, nil
	case MsgTypeRedirect:
		return 40, nil
	default:
		return 0, errInvalidArgument("unknown message type %v", t)
	}
}

// OptType identifies an NDP option TLV's type octet.
type OptType uint8

const (
	OptTypeSourceLinkLayerAddr OptType = 1
	OptTypeTargetLinkLayerAddr OptType = 2
	OptTypePrefixInformation   OptType = 3
	OptTypeMTU                 OptType = 5
	OptTypeRouteInformation    OptType = 24 // RFC 4191
	OptTypeRDNSS               OptType = 25 // RFC 6106
)

func (t OptType) String() string {
	switch t {
	case OptTypeSourceLinkLayerAddr:
		return "source link-layer address"
	case OptTypeTargetLinkLayerAddr:
		return "target link-layer address"
	case OptTypePrefixInformation:
		return "prefix information"
	case OptTypeMTU:
		return "mtu"
	case OptTypeRouteInformation:
		return "route information"
	case OptTypeRDNSS:
		return "recursive dns server"
	default:
		return "unknown"
	}
}
