// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cidr

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

var (
	// ErrInvalidAddress is returned for address text that is not a plain
	// literal of the parser's family.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrFamilyMismatch is returned for a well-formed address of the other
	// family.
	ErrFamilyMismatch = errors.New("address family mismatch")

	// ErrInvalidLength is returned when the prefix length is not a decimal
	// number.
	ErrInvalidLength = errors.New("invalid prefix length")

	// ErrLengthOutOfRange is returned when the prefix length exceeds the
	// address width.
	ErrLengthOutOfRange = errors.New("prefix length out of range")

	// ErrNonCanonical is returned in strict mode for records with bits set
	// beyond the prefix length.
	ErrNonCanonical = errors.New("host bits set beyond prefix length")
)

// ParseError describes a record that could not be turned into a Prefix.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid netblock %q: %s", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser turns text records into canonical prefixes of one family.
type Parser struct {
	Family Family

	// Strict rejects records with host bits set instead of masking them.
	Strict bool
}

// Parse parses "<address>/<length>" or a bare "<address>", which implies the
// full address width. The returned prefix is always canonical.
func (ps Parser) Parse(s string) (Prefix, error) {
	addrStr, lenStr, hasLen := strings.Cut(s, "/")

	addr, err := netip.ParseAddr(addrStr)
	if err != nil || addr.Zone() != "" {
		return Prefix{}, &ParseError{Input: s, Err: ErrInvalidAddress}
	}
	if FamilyOf(addr) != ps.Family {
		return Prefix{}, &ParseError{Input: s, Err: ErrFamilyMismatch}
	}

	bits := int(ps.Family.Bits())
	if hasLen {
		n, err := strconv.ParseUint(lenStr, 10, 8)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return Prefix{}, &ParseError{Input: s, Err: ErrLengthOutOfRange}
			}
			return Prefix{}, &ParseError{Input: s, Err: ErrInvalidLength}
		}
		if n > uint64(bits) {
			return Prefix{}, &ParseError{Input: s, Err: ErrLengthOutOfRange}
		}
		bits = int(n)
	}

	p := PrefixFrom(addr, bits)
	if ps.Strict && !p.IsCanonical() {
		return Prefix{}, &ParseError{Input: s, Err: ErrNonCanonical}
	}
	return p.Masked(), nil
}

// MustParse is like Parse with a non-strict parser for the family of the
// address text, and panics on error. It is meant for tests and constants.
func MustParse(s string) Prefix {
	f := FamilyV4
	if strings.Contains(s, ":") {
		f = FamilyV6
	}
	p, err := Parser{Family: f}.Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrefixes parses every record in records, returning the valid prefixes
// in input order and the records that failed to parse.
func (ps Parser) ParsePrefixes(records []string) (valid []Prefix, invalid []string) {
	valid = make([]Prefix, 0, len(records))
	for _, r := range records {
		p, err := ps.Parse(r)
		if err != nil {
			invalid = append(invalid, r)
			continue
		}
		valid = append(valid, p)
	}
	return valid, invalid
}
