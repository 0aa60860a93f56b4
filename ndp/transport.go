package ndp

import (
	"net"
	"syscall"

	"golang.org/x/net/ipv6"
)

// allNodesMulticast is the all-nodes multicast group RFC 4861 NDP traffic
// arrives on and most outbound NDP types default to.
var allNodesMulticast = net.ParseIP("ff02::1")

// allRoutersMulticast is the destination a Router Solicitation defaults
// to when the caller doesn't set one.
var allRoutersMulticast = net.ParseIP("ff02::2")

// ndpHopLimit is the hop limit RFC 4861 §4 mandates for every NDP
// message, inbound and outbound.
const ndpHopLimit = 255

// transport is the raw ICMPv6 endpoint: socket creation, the five-type
// ICMPv6 filter, packet-info/hop-limit ancillary data, all-nodes
// multicast membership, and the send/receive primitives. It never
// interprets message contents beyond the bytes/metadata described in
// spec.md §4.3 — that belongs to the message codec.
type transport struct {
	conn net.PacketConn
	p6   *ipv6.PacketConn
}

// openTransport opens a raw ICMPv6 socket on listenAddr (typically "::")
// and configures it per spec.md §4.3.
func openTransport(listenAddr string) (*transport, error) {
	if listenAddr == "" {
		listenAddr = "::"
	}
	conn, err := net.ListenPacket("ip6:ipv6-icmp", listenAddr)
	if err != nil {
		return nil, newSystemError("socket", err)
	}

	p6 := ipv6.NewPacketConn(conn)

	filter := new(ipv6.ICMPFilter)
	filter.SetAll(true)
	for _, t := range []ipv6.ICMPType{
		ipv6.ICMPTypeRouterSolicitation,
		ipv6.ICMPTypeRouterAdvertisement,
		ipv6.ICMPTypeNeighborSolicitation,
		ipv6.ICMPTypeNeighborAdvertisement,
		ipv6.ICMPTypeRedirect,
	} {
		filter.Accept(t)
	}
	if err := p6.SetICMPFilter(filter); err != nil {
		conn.Close()
		return nil, newSystemError("setsockopt(ICMP6_FILTER)", err)
	}

	if err := p6.SetControlMessage(ipv6.FlagHopLimit|ipv6.FlagInterface|ipv6.FlagDst, true); err != nil {
		conn.Close()
		return nil, newSystemError("setsockopt(control message flags)", err)
	}

	if err := p6.SetHopLimit(ndpHopLimit); err != nil {
		conn.Close()
		return nil, newSystemError("setsockopt(unicast hop limit)", err)
	}
	if err := p6.SetMulticastHopLimit(ndpHopLimit); err != nil {
		conn.Close()
		return nil, newSystemError("setsockopt(multicast hop limit)", err)
	}

	joinAllNodes(p6)

	return &transport{conn: conn, p6: p6}, nil
}

// joinAllNodes joins the all-nodes multicast group on every interface
// that is up and multicast-capable at open time (the all-interfaces-
// at-open strategy spec.md §9's open question resolves to, see
// SPEC_FULL.md §4.3). Interfaces that come up afterward are not
// retroactively joined. Join failures on individual interfaces are not
// fatal to opening the transport; if every interface fails, falls back
// to joining with ifindex 0 ("any"), the simplest compliant strategy
// spec.md §4.3 names.
func joinAllNodes(p6 *ipv6.PacketConn) {
	group := &net.IPAddr{IP: allNodesMulticast}

	ifs, err := net.Interfaces()
	if err != nil {
		_ = p6.JoinGroup(nil, group)
		return
	}

	joined := false
	for i := range ifs {
		ifi := ifs[i]
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if err := p6.JoinGroup(&ifi, group); err == nil {
			joined = true
		}
	}
	if !joined {
		_ = p6.JoinGroup(nil, group)
	}
}

// rawReceive reads one datagram into buf along with its ancillary data.
// It performs no NDP-level validation; that happens one layer up, in
// Context's receive path, which turns (buf[:n], hopLimit) into a Message
// or a drop decision.
func (t *transport) rawReceive(buf []byte) (n int, src net.IP, ifIndex int, hopLimit int, err error) {
	n, cm, addr, err := t.p6.ReadFrom(buf)
	if err != nil {
		return 0, nil, 0, 0, newSystemError("recvmsg", err)
	}
	src = addrToIP(addr)
	if cm != nil {
		ifIndex = cm.IfIndex
		hopLimit = cm.HopLimit
	}
	return n, src, ifIndex, hopLimit, nil
}

// send serializes m and writes it to the socket. If m.AddrTo is unset or
// the unspecified address, the destination defaults per spec.md §4.3.
func (t *transport) send(m *Message) error {
	dst := m.AddrTo()
	if dst == nil || dst.IsUnspecified() {
		var err error
		dst, err = defaultDestination(m)
		if err != nil {
			return err
		}
	}

	var cm *ipv6.ControlMessage
	if m.IfIndex() != 0 {
		cm = &ipv6.ControlMessage{IfIndex: m.IfIndex()}
	}

	_, err := t.p6.WriteTo(m.Bytes(), cm, &net.IPAddr{IP: dst})
	if err != nil {
		return newSystemError("sendmsg", err)
	}
	return nil
}

// defaultDestination picks the per-type multicast destination spec.md
// §4.3 names for a Message whose AddrTo was left unset.
func defaultDestination(m *Message) (net.IP, error) {
	switch m.Type() {
	case MsgTypeRS:
		return allRoutersMulticast, nil
	case MsgTypeRA, MsgTypeNA:
		return allNodesMulticast, nil
	case MsgTypeNS:
		target, err := m.TargetAddress()
		if err != nil {
			return nil, err
		}
		return solicitedNodeMulticast(target), nil
	case MsgTypeRedirect:
		return nil, errInvalidArgument("redirect message requires an explicit destination address")
	default:
		return nil, errInvalidArgument("unknown message type %v", m.Type())
	}
}

// solicitedNodeMulticast derives the ff02::1:ffXX:XXXX solicited-node
// multicast address for target, per RFC 4291 §2.7.1.
func solicitedNodeMulticast(target net.IP) net.IP {
	t16 := target.To16()
	addr := make(net.IP, 16)
	addr[0], addr[1] = 0xff, 0x02
	addr[11] = 0x01
	addr[12] = 0xff
	if t16 != nil {
		addr[13], addr[14], addr[15] = t16[13], t16[14], t16[15]
	}
	return addr
}

func addrToIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPAddr:
		return v.IP
	case *net.UDPAddr:
		return v.IP
	default:
		return nil
	}
}

// fd returns the integer file descriptor backing the transport's socket,
// for the event-source façade (spec.md §4.5). It does not duplicate the
// descriptor: the Go runtime's netpoller retains ownership, so this value
// is meant for informational/fd_of-style use by a caller already driving
// this library through Service rather than for registering a second,
// independent epoll/kqueue watch on the same descriptor.
func (t *transport) fd() (int, error) {
	sc, ok := t.conn.(syscall.Conn)
	if !ok {
		return -1, errInvalidArgument("underlying connection does not expose a raw descriptor")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, newSystemError("syscallconn", err)
	}
	var fd int
	ctrlErr := raw.Control(func(f uintptr) { fd = int(f) })
	if ctrlErr != nil {
		return -1, newSystemError("control", ctrlErr)
	}
	return fd, nil
}

func (t *transport) close() error {
	if err := t.conn.Close(); err != nil {
		return newSystemError("close", err)
	}
	return nil
}
