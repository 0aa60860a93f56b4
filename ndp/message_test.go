package ndp

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessage_FixedHeader(t *testing.T) {
	cases := []struct {
		typ  MsgType
		want int
	}{
		{MsgTypeRS, 8},
		{MsgTypeRA, 16},
		{MsgTypeNS, 24},
		{MsgTypeNA, 24},
		{MsgTypeRedirect, 40},
	}

	for _, tc := range cases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			m, err := NewMessage(tc.typ)
			require.NoError(t, err)
			require.Equal(t, tc.want, m.PayloadLen())
			require.Equal(t, byte(tc.typ), m.Bytes()[0], "type octet")
			require.Equal(t, byte(0), m.Bytes()[1], "code octet")
			require.Equal(t, []byte{0, 0}, m.Bytes()[2:4], "checksum")
		})
	}
}

func TestNewMessage_UnknownType(t *testing.T) {
	if _, err := NewMessage(MsgTypeAll); err == nil {
		t.Fatal("NewMessage(MsgTypeAll) should fail: ALL is a filter sentinel, not a wire type")
	}
}

func TestRAAccessors_RoundTrip(t *testing.T) {
	m, err := NewMessage(MsgTypeRA)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.SetCurHopLimit(64); err != nil {
		t.Fatal(err)
	}
	if err := m.SetFlagManaged(true); err != nil {
		t.Fatal(err)
	}
	if err := m.SetFlagOther(false); err != nil {
		t.Fatal(err)
	}
	if err := m.SetRouterLifetime(1800); err != nil {
		t.Fatal(err)
	}
	if err := m.SetReachableTime(30000); err != nil {
		t.Fatal(err)
	}
	if err := m.SetRetransmitTime(1000); err != nil {
		t.Fatal(err)
	}

	// Decode from the raw buffer independently of the accessors under
	// test, the way a wire round-trip should be checked.
	raw := m.Bytes()
	if raw[4] != 64 {
		t.Fatalf("hop limit byte = %d, want 64", raw[4])
	}
	if raw[5]&0x80 == 0 {
		t.Fatal("managed flag bit not set")
	}
	if raw[5]&0x40 != 0 {
		t.Fatal("other flag bit unexpectedly set")
	}
	if got := binary.BigEndian.Uint16(raw[6:8]); got != 1800 {
		t.Fatalf("router lifetime = %d, want 1800", got)
	}

	decoded, err := NewMessage(MsgTypeRA)
	if err != nil {
		t.Fatal(err)
	}
	decoded.buf = raw

	hl, err := decoded.CurHopLimit()
	if err != nil || hl != 64 {
		t.Fatalf("CurHopLimit() = (%d, %v), want (64, nil)", hl, err)
	}
	managed, err := decoded.FlagManaged()
	if err != nil || !managed {
		t.Fatalf("FlagManaged() = (%v, %v), want (true, nil)", managed, err)
	}
	other, err := decoded.FlagOther()
	if err != nil || other {
		t.Fatalf("FlagOther() = (%v, %v), want (false, nil)", other, err)
	}
	lifetime, err := decoded.RouterLifetime()
	if err != nil || lifetime != 1800 {
		t.Fatalf("RouterLifetime() = (%d, %v), want (1800, nil)", lifetime, err)
	}
	reach, err := decoded.ReachableTime()
	if err != nil || reach != 30000 {
		t.Fatalf("ReachableTime() = (%d, %v), want (30000, nil)", reach, err)
	}
	retrans, err := decoded.RetransmitTime()
	if err != nil || retrans != 1000 {
		t.Fatalf("RetransmitTime() = (%d, %v), want (1000, nil)", retrans, err)
	}
}

func TestAccessor_WrongType(t *testing.T) {
	m, err := NewMessage(MsgTypeRS)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.CurHopLimit(); err == nil {
		t.Fatal("CurHopLimit() on an RS message should fail with WrongTypeError")
	} else if _, ok := err.(*WrongTypeError); !ok {
		t.Fatalf("got %T, want *WrongTypeError", err)
	}
}

func TestNSTargetAddressAndNAFlags(t *testing.T) {
	target := net.ParseIP("2001:db8::1")

	ns, err := NewMessage(MsgTypeNS)
	if err != nil {
		t.Fatal(err)
	}
	if err := ns.SetTargetAddress(target); err != nil {
		t.Fatal(err)
	}
	got, err := ns.TargetAddress()
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(target) {
		t.Fatalf("TargetAddress() = %v, want %v", got, target)
	}

	na, err := NewMessage(MsgTypeNA)
	if err != nil {
		t.Fatal(err)
	}
	if err := na.SetFlagRouter(true); err != nil {
		t.Fatal(err)
	}
	if err := na.SetFlagSolicited(true); err != nil {
		t.Fatal(err)
	}
	if err := na.SetFlagOverride(false); err != nil {
		t.Fatal(err)
	}
	if r, _ := na.FlagRouter(); !r {
		t.Fatal("FlagRouter() = false, want true")
	}
	if s, _ := na.FlagSolicited(); !s {
		t.Fatal("FlagSolicited() = false, want true")
	}
	if o, _ := na.FlagOverride(); o {
		t.Fatal("FlagOverride() = true, want false")
	}
}

func TestRedirectTargetAndDestinationRoundTrip(t *testing.T) {
	r, err := NewMessage(MsgTypeRedirect)
	if err != nil {
		t.Fatal(err)
	}
	target := net.ParseIP("fe80::1")
	dest := net.ParseIP("2001:db8::dead")

	if err := r.SetTargetAddress(target); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDestinationAddress(dest); err != nil {
		t.Fatal(err)
	}
	got, err := r.TargetAddress()
	if err != nil || !got.Equal(target) {
		t.Fatalf("TargetAddress() = (%v, %v), want (%v, nil)", got, err, target)
	}
	gotDest, err := r.DestinationAddress()
	if err != nil || !gotDest.Equal(dest) {
		t.Fatalf("DestinationAddress() = (%v, %v), want (%v, nil)", gotDest, err, dest)
	}
}

func TestAppendOption_Padding(t *testing.T) {
	m, err := NewMessage(MsgTypeRS)
	if err != nil {
		t.Fatal(err)
	}
	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	if err := m.AppendOption(OptTypeSourceLinkLayerAddr, mac); err != nil {
		t.Fatal(err)
	}
	// 6-byte MAC + 2-byte header = 8, already a multiple of 8: no padding.
	if got := m.PayloadLen(); got != 8+8 {
		t.Fatalf("PayloadLen() = %d, want %d", got, 16)
	}

	opts, err := m.Options()
	if err != nil {
		t.Fatalf("Options(): %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("len(Options()) = %d, want 1", len(opts))
	}
	if opts[0].Type != OptTypeSourceLinkLayerAddr {
		t.Fatalf("option type = %v, want source-linkaddr", opts[0].Type)
	}
	if got := net.HardwareAddr(opts[0].Value()); got.String() != mac.String() {
		t.Fatalf("option value = %v, want %v", got, mac)
	}
}
