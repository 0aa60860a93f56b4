package ndp

import (
	"encoding/binary"
	"fmt"
	"net"
)

// maxMessageLen bounds how far Message.SetPayloadLen and AppendOption may
// grow a buffer. spec.md requires "at least 1500 bytes"; this matches a
// standard Ethernet MTU, generous for any realistic NDP option set.
const maxMessageLen = 1500

// Message is a variable-length ICMPv6 NDP message buffer plus the
// metadata a Transport attaches to it on send or receive. The zero value
// is not usable; construct with NewMessage.
//
// A Message handed to a registered handler is borrowed for the duration
// of that callback: the handler must not retain the Message, nor any
// slice obtained from it (Options, LinkLayerAddr, ...), past return.
type Message struct {
	typ     MsgType
	buf     []byte
	addrTo  net.IP
	ifIndex int
}

// NewMessage allocates a Message of the given type with a zeroed fixed
// header: the ICMPv6 type octet is set to t's wire value, the code octet
// and checksum are zero, and every type-specific field defaults to zero.
func NewMessage(t MsgType) (*Message, error) {
	hlen, err := fixedHeaderLen(t)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, hlen)
	buf[0] = byte(t)
	return &Message{typ: t, buf: buf}, nil
}

// newMessageFromWire builds a Message from a received datagram. It
// returns a *MalformedMessageError if buf is shorter than the fixed
// header implied by its own type octet, its type octet is not one of
// the five NDP types, or its option area fails validation.
func newMessageFromWire(buf []byte, addrTo net.IP, ifIndex int) (*Message, error) {
	if len(buf) < 1 {
		return nil, errMalformed("empty datagram")
	}
	t := MsgType(buf[0])
	hlen, err := fixedHeaderLen(t)
	if err != nil {
		return nil, errMalformed("unrecognized ICMPv6 type %d", buf[0])
	}
	if len(buf) < hlen {
		return nil, errMalformed("%s message too short: %d bytes, want at least %d", t, len(buf), hlen)
	}
	if err := validateOptions(buf[hlen:]); err != nil {
		return nil, errMalformed("%s option area: %v", t, err)
	}
	m := &Message{typ: t, buf: buf, addrTo: addrTo, ifIndex: ifIndex}
	return m, nil
}

// Type reports the message's NDP type.
func (m *Message) Type() MsgType { return m.typ }

// AddrTo is the destination address on an outbound Message, or the
// source address on one received from a Transport.
func (m *Message) AddrTo() net.IP { return m.addrTo }

// SetAddrTo sets the destination address to use when this Message is
// sent. Leaving it unset (or the unspecified address, "::") causes
// Context.Send to fall back to the per-type default multicast
// destination described in spec.md §4.3.
func (m *Message) SetAddrTo(addr net.IP) { m.addrTo = addr }

// IfIndex is the outgoing interface on send, or the arriving interface
// on receive. Zero means unset.
func (m *Message) IfIndex() int { return m.ifIndex }

// SetIfIndex sets the outgoing interface index for a subsequent Send.
func (m *Message) SetIfIndex(ifIndex int) { m.ifIndex = ifIndex }

// Bytes returns the full ICMPv6 body, including the fixed header and the
// option area. The returned slice aliases the Message's internal buffer.
func (m *Message) Bytes() []byte { return m.buf }

// PayloadLen returns the current buffer length (fixed header + options).
func (m *Message) PayloadLen() int { return len(m.buf) }

// SetPayloadLen grows or shrinks the buffer to exactly n bytes, which
// must be at least the fixed header length for the Message's type and at
// most maxMessageLen. New bytes introduced by growing are zeroed.
func (m *Message) SetPayloadLen(n int) error {
	hlen, err := fixedHeaderLen(m.typ)
	if err != nil {
		return err
	}
	if n < hlen {
		return errInvalidArgument("payload length %d shorter than fixed header %d for %s", n, hlen, m.typ)
	}
	if n > maxMessageLen {
		return errInvalidArgument("payload length %d exceeds maximum %d", n, maxMessageLen)
	}
	if n == len(m.buf) {
		return nil
	}
	buf := make([]byte, n)
	copy(buf, m.buf)
	m.buf = buf
	return nil
}

func (m *Message) optionsArea() []byte {
	hlen, err := fixedHeaderLen(m.typ)
	if err != nil || hlen > len(m.buf) {
		return nil
	}
	return m.buf[hlen:]
}

// AppendOption appends one option TLV to the Message's option area,
// padding value to the next 8-byte boundary as RFC 4861 §4.6 requires.
// It fails if the resulting buffer would exceed maxMessageLen.
func (m *Message) AppendOption(t OptType, value []byte) error {
	total := len(value) + 2
	units := (total + 7) / 8
	if units == 0 {
		units = 1
	}
	padded := units * 8
	newLen := len(m.buf) + padded
	if newLen > maxMessageLen {
		return errInvalidArgument("appending option would grow message to %d bytes, exceeding %d", newLen, maxMessageLen)
	}
	buf := make([]byte, newLen)
	copy(buf, m.buf)
	off := len(m.buf)
	buf[off] = byte(t)
	buf[off+1] = byte(units)
	copy(buf[off+2:], value)
	m.buf = buf
	return nil
}

func (m *Message) requireType(want MsgType) error {
	if m.typ != want {
		return &WrongTypeError{Want: want, Got: m.typ}
	}
	return nil
}

// String renders a one-line human summary of the Message, grounded on
// the table-row formatting in the teacher's display code.
func (m *Message) String() string {
	return fmt.Sprintf("%s from=%s ifindex=%d len=%d", m.typ, m.addrTo, m.ifIndex, len(m.buf))
}

// --- Router Advertisement (type 134) ---

// CurHopLimit returns the RA's advertised hop limit for on-link hosts.
func (m *Message) CurHopLimit() (uint8, error) {
	if err := m.requireType(MsgTypeRA); err != nil {
		return 0, err
	}
	return m.buf[4], nil
}

// SetCurHopLimit sets the RA's advertised hop limit.
func (m *Message) SetCurHopLimit(v uint8) error {
	if err := m.requireType(MsgTypeRA); err != nil {
		return err
	}
	m.buf[4] = v
	return nil
}

// FlagManaged reports the RA's M (managed address configuration) flag.
func (m *Message) FlagManaged() (bool, error) {
	if err := m.requireType(MsgTypeRA); err != nil {
		return false, err
	}
	return m.buf[5]&0x80 != 0, nil
}

// SetFlagManaged sets the RA's M flag.
func (m *Message) SetFlagManaged(v bool) error {
	return m.setRAFlagBit(0x80, v)
}

// FlagOther reports the RA's O (other configuration) flag.
func (m *Message) FlagOther() (bool, error) {
	if err := m.requireType(MsgTypeRA); err != nil {
		return false, err
	}
	return m.buf[5]&0x40 != 0, nil
}

// SetFlagOther sets the RA's O flag.
func (m *Message) SetFlagOther(v bool) error {
	return m.setRAFlagBit(0x40, v)
}

// FlagHomeAgent reports the RA's H (home agent) flag, RFC 3775.
func (m *Message) FlagHomeAgent() (bool, error) {
	if err := m.requireType(MsgTypeRA); err != nil {
		return false, err
	}
	return m.buf[5]&0x20 != 0, nil
}

// SetFlagHomeAgent sets the RA's H flag.
func (m *Message) SetFlagHomeAgent(v bool) error {
	return m.setRAFlagBit(0x20, v)
}

func (m *Message) setRAFlagBit(bit uint8, v bool) error {
	if err := m.requireType(MsgTypeRA); err != nil {
		return err
	}
	if v {
		m.buf[5] |= bit
	} else {
		m.buf[5] &^= bit
	}
	return nil
}

// RouterLifetime returns the RA's router lifetime, in seconds.
func (m *Message) RouterLifetime() (uint16, error) {
	if err := m.requireType(MsgTypeRA); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(m.buf[6:8]), nil
}

// SetRouterLifetime sets the RA's router lifetime, in seconds.
func (m *Message) SetRouterLifetime(v uint16) error {
	if err := m.requireType(MsgTypeRA); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(m.buf[6:8], v)
	return nil
}

// ReachableTime returns the RA's reachable time, in milliseconds.
func (m *Message) ReachableTime() (uint32, error) {
	if err := m.requireType(MsgTypeRA); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(m.buf[8:12]), nil
}

// SetReachableTime sets the RA's reachable time, in milliseconds.
func (m *Message) SetReachableTime(v uint32) error {
	if err := m.requireType(MsgTypeRA); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(m.buf[8:12], v)
	return nil
}

// RetransmitTime returns the RA's retransmit timer, in milliseconds.
func (m *Message) RetransmitTime() (uint32, error) {
	if err := m.requireType(MsgTypeRA); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(m.buf[12:16]), nil
}

// SetRetransmitTime sets the RA's retransmit timer, in milliseconds.
func (m *Message) SetRetransmitTime(v uint32) error {
	if err := m.requireType(MsgTypeRA); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(m.buf[12:16], v)
	return nil
}

// --- Neighbor Solicitation (type 135) / Neighbor Advertisement (type 136) ---

// TargetAddress returns the target address carried by an NS, NA, or
// Redirect message.
func (m *Message) TargetAddress() (net.IP, error) {
	switch m.typ {
	case MsgTypeNS, MsgTypeNA:
		return net.IP(m.buf[8:24]), nil
	case MsgTypeRedirect:
		return net.IP(m.buf[8:24]), nil
	default:
		return nil, &WrongTypeError{Want: MsgTypeNS, Got: m.typ}
	}
}

// SetTargetAddress sets the target address carried by an NS, NA, or
// Redirect message. addr must be a 16-byte IPv6 address.
func (m *Message) SetTargetAddress(addr net.IP) error {
	addr16 := addr.To16()
	if addr16 == nil {
		return errInvalidArgument("target address %v is not a valid IPv6 address", addr)
	}
	switch m.typ {
	case MsgTypeNS, MsgTypeNA, MsgTypeRedirect:
		copy(m.buf[8:24], addr16)
		return nil
	default:
		return &WrongTypeError{Want: MsgTypeNS, Got: m.typ}
	}
}

// NA flag bits within byte offset 4, RFC 4861 §4.4.
const (
	naFlagRouter    = 0x80
	naFlagSolicited = 0x40
	naFlagOverride  = 0x20
)

// FlagRouter reports an NA's R (router) flag.
func (m *Message) FlagRouter() (bool, error) {
	if err := m.requireType(MsgTypeNA); err != nil {
		return false, err
	}
	return m.buf[4]&naFlagRouter != 0, nil
}

// SetFlagRouter sets an NA's R flag.
func (m *Message) SetFlagRouter(v bool) error { return m.setNAFlagBit(naFlagRouter, v) }

// FlagSolicited reports an NA's S (solicited) flag.
func (m *Message) FlagSolicited() (bool, error) {
	if err := m.requireType(MsgTypeNA); err != nil {
		return false, err
	}
	return m.buf[4]&naFlagSolicited != 0, nil
}

// SetFlagSolicited sets an NA's S flag.
func (m *Message) SetFlagSolicited(v bool) error { return m.setNAFlagBit(naFlagSolicited, v) }

// FlagOverride reports an NA's O (override) flag.
func (m *Message) FlagOverride() (bool, error) {
	if err := m.requireType(MsgTypeNA); err != nil {
		return false, err
	}
	return m.buf[4]&naFlagOverride != 0, nil
}

// SetFlagOverride sets an NA's O flag.
func (m *Message) SetFlagOverride(v bool) error { return m.setNAFlagBit(naFlagOverride, v) }

func (m *Message) setNAFlagBit(bit uint8, v bool) error {
	if err := m.requireType(MsgTypeNA); err != nil {
		return err
	}
	if v {
		m.buf[4] |= bit
	} else {
		m.buf[4] &^= bit
	}
	return nil
}

// --- Redirect (type 137) ---

// DestinationAddress returns a Redirect message's destination address
// (the address the target is a better first hop for).
func (m *Message) DestinationAddress() (net.IP, error) {
	if err := m.requireType(MsgTypeRedirect); err != nil {
		return nil, err
	}
	return net.IP(m.buf[24:40]), nil
}

// SetDestinationAddress sets a Redirect message's destination address.
func (m *Message) SetDestinationAddress(addr net.IP) error {
	if err := m.requireType(MsgTypeRedirect); err != nil {
		return err
	}
	addr16 := addr.To16()
	if addr16 == nil {
		return errInvalidArgument("destination address %v is not a valid IPv6 address", addr)
	}
	copy(m.buf[24:40], addr16)
	return nil
}
