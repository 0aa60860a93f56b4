package ndp

import (
	"errors"
	"log/slog"
	"net"
	"reflect"
	"time"
)

// HandlerFunc is a registered callback: it receives the owning Context,
// the Message that matched its filter (borrowed for the call's duration
// only), and the opaque user pointer supplied at registration. A non-nil
// return aborts the current dispatch pass; the error propagates out of
// Service.
type HandlerFunc func(c *Context, m *Message, priv any) error

// registration is one entry in a Context's handler list. Equality for
// Unregister compares callback identity plus MsgType, IfIndex, and Priv.
type registration struct {
	callback HandlerFunc
	msgType  MsgType
	ifIndex  int
	priv     any
	valid    bool
}

// EventSource is a readable descriptor a caller integrates into its own
// select/poll/epoll/kqueue loop. A Context currently exposes exactly one
// (its raw ICMPv6 socket).
type EventSource struct {
	fd int
}

// FD returns the integer file descriptor backing this event source.
func (s *EventSource) FD() int { return s.fd }

// openConfig holds Open's optional settings.
type openConfig struct {
	listenAddr string
}

// OpenOption configures Open. The functional-options shape generalizes
// the teacher's NDPListenerConfig struct-of-fields, since a library
// Context (unlike the TUI tool's one-shot config) is opened repeatedly
// across tests and callers.
type OpenOption func(*openConfig)

// WithListenAddr sets the local address the raw ICMPv6 socket binds to.
// Defaults to "::" (all addresses).
func WithListenAddr(addr string) OpenOption {
	return func(c *openConfig) { c.listenAddr = addr }
}

// Context is the process-long library handle: a transport, an injected
// log sink with a priority floor, and an ordered list of handler
// registrations. The zero value is not usable; construct with Open.
//
// Context is not safe for concurrent use from multiple goroutines. A
// single Context must be driven from a single goroutine, or externally
// serialized.
type Context struct {
	t    *transport
	log  *slog.Logger
	regs []*registration
	es   EventSource
}

// Open creates a Context: it opens the raw ICMPv6 transport described in
// spec.md §4.3 and installs a null log sink.
func Open(opts ...OpenOption) (*Context, error) {
	cfg := openConfig{listenAddr: "::"}
	for _, opt := range opts {
		opt(&cfg)
	}

	t, err := openTransport(cfg.listenAddr)
	if err != nil {
		return nil, err
	}

	c := &Context{t: t, log: slog.New(discardHandler{})}
	if fd, err := t.fd(); err == nil {
		c.es.fd = fd
	} else {
		c.es.fd = -1
	}
	return c, nil
}

// Close releases the transport and frees all registrations. No callback
// fires during or after Close. Close is synchronous.
func (c *Context) Close() error {
	c.regs = nil
	return c.t.close()
}

// SetReadDeadline forwards to the underlying socket, letting a caller's
// own loop bound how long Service may block — the same pattern the
// teacher's listener uses to honor context cancellation promptly.
func (c *Context) SetReadDeadline(t time.Time) error {
	if err := c.t.conn.SetReadDeadline(t); err != nil {
		return newSystemError("setreaddeadline", err)
	}
	return nil
}

// Register appends a handler registration. Duplicate registrations are
// permitted; each fires independently. wantType may be MsgTypeAll to
// match every message type; wantIfIndex may be 0 to match every
// interface.
func (c *Context) Register(cb HandlerFunc, wantType MsgType, wantIfIndex int, priv any) error {
	if cb == nil {
		return errInvalidArgument("callback must not be nil")
	}
	if wantIfIndex < 0 {
		return errInvalidArgument("ifindex must be non-negative, got %d", wantIfIndex)
	}
	c.regs = append(c.regs, &registration{
		callback: cb,
		msgType:  wantType,
		ifIndex:  wantIfIndex,
		priv:     priv,
		valid:    true,
	})
	return nil
}

// Unregister removes the first registration whose four fields match
// exactly. Removing a registration that isn't present is a silent no-op.
func (c *Context) Unregister(cb HandlerFunc, wantType MsgType, wantIfIndex int, priv any) {
	for i, r := range c.regs {
		if !r.valid {
			continue
		}
		if sameCallback(r.callback, cb) && r.msgType == wantType && r.ifIndex == wantIfIndex && privEqual(r.priv, priv) {
			r.valid = false
			c.regs = append(c.regs[:i], c.regs[i+1:]...)
			return
		}
	}
}

func sameCallback(a, b HandlerFunc) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func privEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// dispatch invokes every registration matching m, in insertion order,
// over a snapshot of the registration list taken before the first
// callback fires: a handler may unregister itself mid-pass without
// disturbing the iteration, and any registration unregistered during the
// pass is skipped via its invalidated snapshot entry rather than by
// re-reading the live list.
func (c *Context) dispatch(m *Message) error {
	snapshot := make([]*registration, len(c.regs))
	copy(snapshot, c.regs)

	for _, r := range snapshot {
		if !r.valid {
			continue
		}
		if r.msgType != MsgTypeAll && r.msgType != m.Type() {
			continue
		}
		if r.ifIndex != 0 && r.ifIndex != m.IfIndex() {
			continue
		}
		if err := r.callback(c, m, r.priv); err != nil {
			return err
		}
	}
	return nil
}

// NextEventSource enumerates the Context's readable descriptors.
// Currently a singleton: pass nil to get it, pass the previously
// returned source to get nil (end of enumeration).
func (c *Context) NextEventSource(prev *EventSource) *EventSource {
	if prev != nil {
		return nil
	}
	return &c.es
}

// Service performs exactly one receive-and-dispatch cycle on s without
// blocking beyond what a level-triggered readable descriptor implies: it
// is meant to be called once the caller's own readiness loop reports s's
// descriptor as readable. If the underlying read yields nothing this
// round (interrupted, would-block, a dropped malformed message, or a
// hop-limit violation), Service returns nil without dispatching.
func (c *Context) Service(s *EventSource) error {
	if s != &c.es {
		return errInvalidArgument("event source does not belong to this context")
	}
	return c.receiveOne()
}

func (c *Context) receiveOne() error {
	buf := make([]byte, 65535)
	n, src, ifIndex, hopLimit, err := c.t.rawReceive(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	}
	return c.processInbound(buf[:n], src, ifIndex, hopLimit)
}

// processInbound applies the hop-limit gate and malformed-message drop
// rules to one already-read datagram, then dispatches it. Split out of
// receiveOne so the gate and drop behavior can be exercised without a
// real raw socket.
func (c *Context) processInbound(data []byte, src net.IP, ifIndex, hopLimit int) error {
	if hopLimit != ndpHopLimit {
		// RFC 4861 §6.1.2/§7.1.1: ignore silently, no log.
		return nil
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	msg, perr := newMessageFromWire(raw, src, ifIndex)
	if perr != nil {
		c.log.Warn("dropping malformed NDP message", "err", perr, "src", src, "ifindex", ifIndex)
		return nil
	}

	return c.dispatch(msg)
}

// Send serializes m and writes it to the transport, applying the
// per-type default destination when m.AddrTo is unset.
func (c *Context) Send(m *Message) error {
	return c.t.send(m)
}
