package main

import (
	"net"
	"testing"
	"time"

	"github.com/ndplib/ndp/ndp"
)

func mustParseIP(t *testing.T, s string) net.IP {
	t.Helper()
	ip := net.ParseIP(s)
	if ip == nil {
		t.Fatalf("net.ParseIP(%q) failed", s)
	}
	return ip
}

func TestNewStats(t *testing.T) {
	window := 5 * time.Minute
	s := NewStats(window)
	if s == nil {
		t.Fatal("NewStats returned nil")
	}
	if s.Window() != window {
		t.Errorf("Window() = %v, want %v", s.Window(), window)
	}
}

func TestRecordMessage_NewPeer(t *testing.T) {
	s := NewStats(5 * time.Minute)
	addr := mustParseIP(t, "fe80::1")

	s.RecordMessage(addr, ndp.MsgTypeRS)

	summaries := s.GetStats()
	if len(summaries) != 1 {
		t.Fatalf("GetStats() returned %d peers, want 1", len(summaries))
	}
	if summaries[0].Address != addr.String() {
		t.Errorf("Address = %q, want %q", summaries[0].Address, addr.String())
	}
	if summaries[0].Counts[ndp.MsgTypeRS] != 1 {
		t.Errorf("RS count = %d, want 1", summaries[0].Counts[ndp.MsgTypeRS])
	}
	if summaries[0].Total != 1 {
		t.Errorf("Total = %d, want 1", summaries[0].Total)
	}
}

func TestRecordMessage_MultiplePeersSortedByTotal(t *testing.T) {
	s := NewStats(5 * time.Minute)
	peer1 := mustParseIP(t, "fe80::1")
	peer2 := mustParseIP(t, "fe80::2")
	peer3 := mustParseIP(t, "fe80::3")

	for i := 0; i < 5; i++ {
		s.RecordMessage(peer1, ndp.MsgTypeRS)
	}
	for i := 0; i < 3; i++ {
		s.RecordMessage(peer2, ndp.MsgTypeNS)
	}
	for i := 0; i < 7; i++ {
		s.RecordMessage(peer3, ndp.MsgTypeRA)
	}

	summaries := s.GetStats()
	if len(summaries) != 3 {
		t.Fatalf("GetStats() returned %d peers, want 3", len(summaries))
	}

	want := []struct {
		addr  string
		total int
	}{
		{peer3.String(), 7},
		{peer1.String(), 5},
		{peer2.String(), 3},
	}
	for i, w := range want {
		if summaries[i].Address != w.addr || summaries[i].Total != w.total {
			t.Errorf("summaries[%d] = {%s %d}, want {%s %d}", i, summaries[i].Address, summaries[i].Total, w.addr, w.total)
		}
	}
}

func TestRecordMessage_MultipleTypesPerPeer(t *testing.T) {
	s := NewStats(5 * time.Minute)
	addr := mustParseIP(t, "fe80::1")

	s.RecordMessage(addr, ndp.MsgTypeRS)
	s.RecordMessage(addr, ndp.MsgTypeRA)
	s.RecordMessage(addr, ndp.MsgTypeNS)

	summaries := s.GetStats()
	if len(summaries) != 1 {
		t.Fatalf("GetStats() returned %d peers, want 1", len(summaries))
	}
	peer := summaries[0]
	if peer.Counts[ndp.MsgTypeRS] != 1 || peer.Counts[ndp.MsgTypeRA] != 1 || peer.Counts[ndp.MsgTypeNS] != 1 {
		t.Fatalf("Counts = %v, want one each of RS/RA/NS", peer.Counts)
	}
	if peer.Total != 3 {
		t.Errorf("Total = %d, want 3", peer.Total)
	}
}

func TestRecordMAC(t *testing.T) {
	s := NewStats(5 * time.Minute)
	addr := mustParseIP(t, "fe80::1")
	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

	s.RecordMessage(addr, ndp.MsgTypeNS)
	s.RecordMAC(addr, mac)

	summaries := s.GetStats()
	if len(summaries) != 1 {
		t.Fatalf("GetStats() returned %d peers, want 1", len(summaries))
	}
	if summaries[0].MAC != mac.String() {
		t.Errorf("MAC = %q, want %q", summaries[0].MAC, mac.String())
	}
}

func TestPrune_RemovesExpiredPeers(t *testing.T) {
	s := NewStats(100 * time.Millisecond)
	addr := mustParseIP(t, "fe80::1")
	s.RecordMessage(addr, ndp.MsgTypeRS)

	if got := s.GetStats()[0].Total; got != 1 {
		t.Fatalf("initial total = %d, want 1", got)
	}

	time.Sleep(150 * time.Millisecond)
	s.Prune()

	if summaries := s.GetStats(); len(summaries) != 0 {
		t.Errorf("after prune, got %d peers, want 0", len(summaries))
	}
}

func TestPrune_KeepsFreshPeers(t *testing.T) {
	s := NewStats(1 * time.Second)
	addr := mustParseIP(t, "fe80::1")
	s.RecordMessage(addr, ndp.MsgTypeRS)

	s.Prune()

	summaries := s.GetStats()
	if len(summaries) != 1 {
		t.Fatalf("after immediate prune, got %d peers, want 1", len(summaries))
	}
	if summaries[0].Total != 1 {
		t.Errorf("total after prune = %d, want 1", summaries[0].Total)
	}
}
