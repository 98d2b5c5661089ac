// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package cidr implements the prefix model used for aggregation: a network
// address and prefix length of either address family, held in a single
// 128-bit word so that both families share one implementation.
package cidr

import (
	"cmp"
	"net"
	"net/netip"
	"strconv"
)

// Family selects the address width a Prefix is interpreted with.
type Family uint8

const (
	FamilyV4 Family = iota + 1
	FamilyV6
)

// Bits returns the address width of the family, or 0 for an unknown family.
func (f Family) Bits() uint8 {
	switch f {
	case FamilyV4:
		return 32
	case FamilyV6:
		return 128
	}
	return 0
}

func (f Family) String() string {
	switch f {
	case FamilyV4:
		return "ipv4"
	case FamilyV6:
		return "ipv6"
	}
	return "unknown"
}

// FamilyOf returns the family of addr. IPv4-mapped IPv6 addresses are IPv6.
func FamilyOf(addr netip.Addr) Family {
	switch {
	case addr.Is4():
		return FamilyV4
	case addr.Is6():
		return FamilyV6
	}
	return 0
}

// Prefix is a network address plus the number of significant leading bits.
// The zero value is not a valid prefix.
type Prefix struct {
	addr   uint128
	bits   uint8
	family Family
}

// PrefixFrom returns the prefix addr/bits without masking the host bits.
// It returns the zero Prefix if addr is invalid or bits is out of range for
// the family. Any IPv6 zone is dropped.
func PrefixFrom(addr netip.Addr, bits int) Prefix {
	f := FamilyOf(addr)
	if f == 0 || bits < 0 || bits > int(f.Bits()) {
		return Prefix{}
	}
	return Prefix{
		addr:   uint128FromAddr(addr.WithZone("")),
		bits:   uint8(bits),
		family: f,
	}
}

// FromNetip converts a netip.Prefix, masking it.
func FromNetip(p netip.Prefix) Prefix {
	if !p.IsValid() {
		return Prefix{}
	}
	return PrefixFrom(p.Addr(), p.Bits()).Masked()
}

// IsValid reports whether p holds a prefix of a known family.
func (p Prefix) IsValid() bool {
	return p.family != 0
}

func (p Prefix) Family() Family { return p.family }

// Bits returns the prefix length.
func (p Prefix) Bits() int { return int(p.bits) }

// Addr returns the (possibly non-canonical) address of p.
func (p Prefix) Addr() netip.Addr {
	if !p.IsValid() {
		return netip.Addr{}
	}
	return p.addr.addr(p.family)
}

// hostBits is the number of insignificant low-order bits.
func (p Prefix) hostBits() uint8 {
	return p.family.Bits() - p.bits
}

// Masked returns p in canonical form, with every bit beyond the prefix
// length cleared.
func (p Prefix) Masked() Prefix {
	if !p.IsValid() {
		return p
	}
	p.addr = p.addr.clearLow(p.hostBits())
	return p
}

// IsCanonical reports whether no bit beyond the prefix length is set.
func (p Prefix) IsCanonical() bool {
	return p.Masked() == p
}

// Contains reports whether the address space of o is a subset of p's. Both
// prefixes must be canonical. A prefix contains itself.
func (p Prefix) Contains(o Prefix) bool {
	if !p.IsValid() || p.family != o.family || p.bits > o.bits {
		return false
	}
	if p.bits == 0 {
		return true
	}
	return p.addr.xor(o.addr).rsh(p.hostBits()).isZero()
}

// IsSiblingOf reports whether p and o have the same length and differ
// exactly in the last bit of that length, i.e. whether together they are
// the two halves of a prefix one bit shorter. Both prefixes must be
// canonical. Zero-length prefixes have no siblings and no prefix is its own
// sibling.
func (p Prefix) IsSiblingOf(o Prefix) bool {
	if !p.IsValid() || p.family != o.family || p.bits != o.bits || p.bits == 0 {
		return false
	}
	if p.addr == o.addr {
		return false
	}
	shift := p.hostBits() + 1
	return p.addr.rsh(shift) == o.addr.rsh(shift)
}

// Merge returns the parent of two siblings. ok is false when p and o are
// not siblings.
func (p Prefix) Merge(o Prefix) (merged Prefix, ok bool) {
	if !p.IsSiblingOf(o) {
		return Prefix{}, false
	}
	merged = p
	merged.bits--
	return merged.Masked(), true
}

// Compare orders prefixes by family, then address, then prefix length.
func (p Prefix) Compare(o Prefix) int {
	if c := cmp.Compare(p.family, o.family); c != 0 {
		return c
	}
	if c := p.addr.compare(o.addr); c != 0 {
		return c
	}
	return cmp.Compare(p.bits, o.bits)
}

// First returns the lowest address covered by p.
func (p Prefix) First() netip.Addr {
	return p.Masked().Addr()
}

// Last returns the highest address covered by p.
func (p Prefix) Last() netip.Addr {
	if !p.IsValid() {
		return netip.Addr{}
	}
	return p.Masked().addr.or(lowMask(p.hostBits())).addr(p.family)
}

// Netip converts p to a netip.Prefix.
func (p Prefix) Netip() netip.Prefix {
	if !p.IsValid() {
		return netip.Prefix{}
	}
	return netip.PrefixFrom(p.Addr(), p.Bits())
}

// IPNet converts p to a net.IPNet, for callers still on the older types.
func (p Prefix) IPNet() *net.IPNet {
	if !p.IsValid() {
		return nil
	}
	return &net.IPNet{
		IP:   p.First().AsSlice(),
		Mask: net.CIDRMask(p.Bits(), int(p.family.Bits())),
	}
}

// String returns p in address/length form.
func (p Prefix) String() string {
	if !p.IsValid() {
		return "invalid Prefix"
	}
	return p.Addr().String() + "/" + strconv.Itoa(p.Bits())
}

// MarshalText implements encoding.TextMarshaler using String.
func (p Prefix) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return []byte(""), nil
	}
	return []byte(p.String()), nil
}
