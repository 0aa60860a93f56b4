package main

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/ndplib/ndp/ndp"
)

// peerStats holds per-peer statistics. Guarded by Stats.mu.
type peerStats struct {
	firstSeen time.Time
	lastSeen  time.Time
	messages  map[ndp.MsgType][]time.Time
	mac       string
}

// PeerSummary is a snapshot of one peer's stats for display, with only
// messages inside the configured window counted.
type PeerSummary struct {
	Address   string
	FirstSeen time.Time
	LastSeen  time.Time
	Counts    map[ndp.MsgType]int
	Total     int
	MAC       string
}

// Stats tracks every peer observed on the wire within a sliding window.
// It lives outside the ndp.Context's single-goroutine contract: the
// Context calls RecordMessage from inside a handler on its own service
// goroutine, while the TUI polls GetStats from bubbletea's Update loop,
// so access is mutex-guarded here the way the teacher's listener guards
// its stats cache.
type Stats struct {
	mu     sync.RWMutex
	peers  map[string]*peerStats
	window time.Duration
}

// NewStats creates a tracker with the given sliding window duration.
func NewStats(window time.Duration) *Stats {
	return &Stats{
		peers:  make(map[string]*peerStats),
		window: window,
	}
}

// RecordMessage is registered as an ndp.HandlerFunc via a thin closure in
// main, recording one observation for the message's source address.
func (s *Stats) RecordMessage(addr net.IP, kind ndp.MsgType) {
	now := time.Now()
	key := addr.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	peer := s.getOrCreate(key, now)
	peer.lastSeen = now
	peer.messages[kind] = append(peer.messages[kind], now)
}

// RecordMAC records the link-layer address extracted from a message's
// source/target link-layer-address option, if one was present.
func (s *Stats) RecordMAC(addr net.IP, mac net.HardwareAddr) {
	if len(mac) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	peer := s.getOrCreate(addr.String(), time.Now())
	peer.mac = mac.String()
}

func (s *Stats) getOrCreate(key string, now time.Time) *peerStats {
	peer, ok := s.peers[key]
	if !ok {
		peer = &peerStats{
			firstSeen: now,
			messages:  make(map[ndp.MsgType][]time.Time),
		}
		s.peers[key] = peer
	}
	return peer
}

// GetStats returns a sorted snapshot of every peer's stats, chattiest
// first, counting only messages that fall within the configured window.
func (s *Stats) GetStats() []PeerSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-s.window)
	out := make([]PeerSummary, 0, len(s.peers))

	for addr, peer := range s.peers {
		summary := PeerSummary{
			Address:   addr,
			FirstSeen: peer.firstSeen,
			LastSeen:  peer.lastSeen,
			Counts:    make(map[ndp.MsgType]int),
			MAC:       peer.mac,
		}
		for kind, timestamps := range peer.messages {
			n := 0
			for _, ts := range timestamps {
				if ts.After(cutoff) {
					n++
				}
			}
			summary.Counts[kind] = n
			summary.Total += n
		}
		out = append(out, summary)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// Prune drops timestamps that have aged out of the window, and removes
// any peer left with no messages at all.
func (s *Stats) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.window)
	for addr, peer := range s.peers {
		total := 0
		for kind, timestamps := range peer.messages {
			kept := timestamps[:0]
			for _, ts := range timestamps {
				if ts.After(cutoff) {
					kept = append(kept, ts)
				}
			}
			if len(kept) > 0 {
				peer.messages[kind] = kept
				total += len(kept)
			} else {
				delete(peer.messages, kind)
			}
		}
		if total == 0 {
			delete(s.peers, addr)
		}
	}
}

// Window returns the configured sliding window duration.
func (s *Stats) Window() time.Duration { return s.window }
