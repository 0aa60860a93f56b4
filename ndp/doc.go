// Package ndp implements IPv6 Neighbor Discovery Protocol (RFC 4861)
// message handling: a raw ICMPv6 transport bound to the all-nodes
// multicast group, a codec for the five NDP message types and their
// option TLVs, and a handler-registration/dispatch engine filtered by
// message type and interface index.
//
// The package is a stateless codec plus a single-threaded dispatcher: it
// does not maintain a neighbor cache, run duplicate address detection,
// or generate solicitations on a timer. Callers drive it by integrating
// the descriptor from NextEventSource/EventSource.FD into their own
// event loop and calling Service once it is readable.
package ndp
