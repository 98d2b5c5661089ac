// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cidr

import (
	"cmp"
	"encoding/binary"
	"net/netip"
)

// uint128 is the address word shared by both families. IPv4 addresses live
// in the low 32 bits of lo.
type uint128 struct {
	hi uint64
	lo uint64
}

func uint128FromAddr(addr netip.Addr) uint128 {
	if addr.Is4() {
		b := addr.As4()
		return uint128{lo: uint64(binary.BigEndian.Uint32(b[:]))}
	}
	b := addr.As16()
	return uint128{
		hi: binary.BigEndian.Uint64(b[:8]),
		lo: binary.BigEndian.Uint64(b[8:]),
	}
}

func (u uint128) addr(f Family) netip.Addr {
	if f == FamilyV4 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(u.lo))
		return netip.AddrFrom4(b)
	}
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], u.hi)
	binary.BigEndian.PutUint64(b[8:], u.lo)
	return netip.AddrFrom16(b)
}

func (u uint128) isZero() bool {
	return u.hi|u.lo == 0
}

func (u uint128) xor(v uint128) uint128 {
	return uint128{u.hi ^ v.hi, u.lo ^ v.lo}
}

func (u uint128) or(v uint128) uint128 {
	return uint128{u.hi | v.hi, u.lo | v.lo}
}

func (u uint128) not() uint128 {
	return uint128{^u.hi, ^u.lo}
}

// rsh shifts u right by n bits. Shifts of 128 or more yield zero.
func (u uint128) rsh(n uint8) uint128 {
	switch {
	case n >= 128:
		return uint128{}
	case n >= 64:
		return uint128{lo: u.hi >> (n - 64)}
	case n == 0:
		return u
	}
	return uint128{
		hi: u.hi >> n,
		lo: u.lo>>n | u.hi<<(64-n),
	}
}

// lsh shifts u left by n bits. Shifts of 128 or more yield zero.
func (u uint128) lsh(n uint8) uint128 {
	switch {
	case n >= 128:
		return uint128{}
	case n >= 64:
		return uint128{hi: u.lo << (n - 64)}
	case n == 0:
		return u
	}
	return uint128{
		hi: u.hi<<n | u.lo>>(64-n),
		lo: u.lo << n,
	}
}

// clearLow zeroes the n least significant bits.
func (u uint128) clearLow(n uint8) uint128 {
	return u.rsh(n).lsh(n)
}

// lowMask returns a word with the n least significant bits set.
func lowMask(n uint8) uint128 {
	return uint128{}.not().lsh(n).not()
}

func (u uint128) compare(v uint128) int {
	if c := cmp.Compare(u.hi, v.hi); c != 0 {
		return c
	}
	return cmp.Compare(u.lo, v.lo)
}
