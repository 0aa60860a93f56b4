package ndp

import "encoding/binary"

// Option is a non-owning view into one TLV of a Message's option area.
// The byte slices it exposes alias the owning Message's buffer and must
// not be retained past that Message's lifetime, matching the borrowing
// rule spec'd for Message itself.
type Option struct {
	Type OptType
	// Len is the TLV length in 8-byte units, as carried on the wire.
	Len uint8
	raw []byte // full TLV, length == 8*Len
}

// Value returns the option payload, i.e. everything after the 2-byte
// type/length header.
func (o Option) Value() []byte { return o.raw[2:] }

// Bytes returns the full TLV including its type/length header.
func (o Option) Bytes() []byte { return o.raw }

// walkOptions performs one forward pass over an option area, invoking
// yield for each well-formed TLV encountered. It stops and returns a
// *MalformedOptionError the instant a TLV declares a zero length or a
// length that would overrun the area; it never calls yield for that
// TLV or any that would follow it.
func walkOptions(area []byte, yield func(Option) bool) error {
	off := 0
	for off < len(area) {
		if off+2 > len(area) {
			return errMalformedOption("truncated option header at offset %d", off)
		}
		lenUnits := area[off+1]
		if lenUnits == 0 {
			return errMalformedOption("zero-length option at offset %d", off)
		}
		total := int(lenUnits) * 8
		if off+total > len(area) {
			return errMalformedOption("option at offset %d declares %d bytes, only %d remain", off, total, len(area)-off)
		}
		opt := Option{Type: OptType(area[off]), Len: lenUnits, raw: area[off : off+total]}
		if !yield(opt) {
			return nil
		}
		off += total
	}
	return nil
}

// validateOptions walks the full option area and reports the first
// malformed TLV, without invoking any callback. Used as the wire-level
// admission gate: a Message whose option area fails this check is
// dropped before dispatch (spec scenario: truncated option).
func validateOptions(area []byte) error {
	return walkOptions(area, func(Option) bool { return true })
}

// findOption returns the first occurrence of want in area, in forward
// walk order. Subsequent duplicates are ignored, per spec. A malformed
// TLV encountered before any match simply ends the search early; callers
// that need to know whether the area is well-formed should use
// validateOptions first (as the receive path does).
func findOption(area []byte, want OptType) (Option, bool) {
	var found Option
	ok := false
	_ = walkOptions(area, func(o Option) bool {
		if o.Type == want {
			found, ok = o, true
			return false
		}
		return true
	})
	return found, ok
}

// Options returns every option in the Message's option area, in forward
// walk order. It returns an error if the area is malformed.
func (m *Message) Options() ([]Option, error) {
	area := m.optionsArea()
	var opts []Option
	err := walkOptions(area, func(o Option) bool {
		opts = append(opts, o)
		return true
	})
	return opts, err
}

// LinkLayerAddr returns the raw link-layer address carried by a
// Source/Target Link-Layer Address option, or false if that option is
// absent. want must be OptTypeSourceLinkLayerAddr or
// OptTypeTargetLinkLayerAddr.
func (m *Message) LinkLayerAddr(want OptType) ([]byte, bool) {
	opt, ok := findOption(m.optionsArea(), want)
	if !ok {
		return nil, false
	}
	return opt.Value(), true
}

// PrefixInformation is the typed view of a Prefix Information option
// (type 3, RFC 4861 §4.6.2).
type PrefixInformation struct {
	PrefixLen        uint8
	OnLink           bool // flag L
	Autonomous       bool // flag A
	ValidLifetime    uint32 // seconds; 0xFFFFFFFF == infinity
	PreferredLifetime uint32 // seconds; 0xFFFFFFFF == infinity
	Prefix           [16]byte
}

// InfiniteLifetime is the sentinel value denoting "no expiry" for the
// Prefix Information option's lifetime fields.
const InfiniteLifetime uint32 = 0xFFFFFFFF

// PrefixInformation returns the Message's first Prefix Information
// option. An option whose declared length is not exactly 32 bytes (4
// units) is treated as absent: the rest of the option area still
// parses, this occurrence is skipped, and the search continues with the
// next Prefix Information option, reporting not-found if none fits.
func (m *Message) PrefixInformation() (PrefixInformation, bool) {
	area := m.optionsArea()
	var pi PrefixInformation
	ok := false
	_ = walkOptions(area, func(o Option) bool {
		if o.Type != OptTypePrefixInformation {
			return true
		}
		if len(o.raw) != 32 {
			// Fixed-size mismatch: ignore this occurrence, keep scanning.
			return true
		}
		pi.PrefixLen = o.raw[2]
		pi.OnLink = o.raw[3]&0x80 != 0
		pi.Autonomous = o.raw[3]&0x40 != 0
		pi.ValidLifetime = binary.BigEndian.Uint32(o.raw[4:8])
		pi.PreferredLifetime = binary.BigEndian.Uint32(o.raw[8:12])
		copy(pi.Prefix[:], o.raw[16:32])
		ok = true
		return false
	})
	return pi, ok
}

// MTU returns the Message's first MTU option value (type 5, RFC 4861
// §4.6.4). An option declaring a length other than 8 bytes (1 unit) is
// treated as absent.
func (m *Message) MTU() (uint32, bool) {
	area := m.optionsArea()
	var mtu uint32
	ok := false
	_ = walkOptions(area, func(o Option) bool {
		if o.Type != OptTypeMTU {
			return true
		}
		if len(o.raw) != 8 {
			return true
		}
		mtu = binary.BigEndian.Uint32(o.raw[4:8])
		ok = true
		return false
	})
	return mtu, ok
}

// RouteInformation is the typed view of a Route Information option
// (type 24, RFC 4191). Not part of the minimal option set spec.md
// mandates, but parsed the same way the teacher's ad hoc RA parsing
// already did.
type RouteInformation struct {
	PrefixLen  uint8
	Preference int8 // -1 (low), 0 (medium), 1 (high); other encodings clamp to 0
	Lifetime   uint32
	Prefix     [16]byte
}

// RouteInformation returns the Message's first Route Information option.
func (m *Message) RouteInformation() (RouteInformation, bool) {
	area := m.optionsArea()
	var ri RouteInformation
	ok := false
	_ = walkOptions(area, func(o Option) bool {
		if o.Type != OptTypeRouteInformation || len(o.raw) < 8 {
			return true
		}
		ri.PrefixLen = o.raw[2]
		switch (o.raw[3] >> 3) & 0x03 {
		case 0x1:
			ri.Preference = 1
		case 0x3:
			ri.Preference = -1
		default:
			ri.Preference = 0
		}
		ri.Lifetime = binary.BigEndian.Uint32(o.raw[4:8])
		n := len(o.raw) - 8
		if n > 16 {
			n = 16
		}
		copy(ri.Prefix[:n], o.raw[8:8+n])
		ok = true
		return false
	})
	return ri, ok
}

// RDNSS returns the DNS server addresses and lifetime carried by the
// Message's first Recursive DNS Server option (type 25, RFC 6106).
func (m *Message) RDNSS() (lifetime uint32, servers [][16]byte, ok bool) {
	area := m.optionsArea()
	_ = walkOptions(area, func(o Option) bool {
		if o.Type != OptTypeRDNSS || len(o.raw) < 24 {
			return true
		}
		lifetime = binary.BigEndian.Uint32(o.raw[4:8])
		for off := 8; off+16 <= len(o.raw); off += 16 {
			var addr [16]byte
			copy(addr[:], o.raw[off:off+16])
			servers = append(servers, addr)
		}
		ok = true
		return false
	})
	return lifetime, servers, ok
}
