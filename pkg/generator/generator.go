// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package generator produces random prefixes to stress the aggregator: one
// half single addresses, the other half canonical netblocks.
package generator

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"net/netip"

	"github.com/cilium/cidragg/pkg/cidr"
	"github.com/cilium/cidragg/pkg/defaults"
)

// Config controls what Generate produces.
type Config struct {
	Family cidr.Family

	// Count is the total number of records; an odd count is rounded down.
	Count int

	// MinBits and MaxBits bound the netblock prefix length, inclusive.
	// defaults.GeneratorPrefixLenFromFamily picks the family default.
	MinBits int
	MaxBits int

	// Seed makes the output reproducible; 0 seeds from the runtime source.
	Seed uint64
}

// PrefixLenRange returns the default netblock length bounds for f.
func PrefixLenRange(f cidr.Family) (minBits, maxBits int) {
	if f == cidr.FamilyV6 {
		return defaults.GeneratorV6MinPrefixLen, defaults.GeneratorV6MaxPrefixLen
	}
	return defaults.GeneratorV4MinPrefixLen, defaults.GeneratorV4MaxPrefixLen
}

// Generator is a seeded source of random prefixes. It is not safe for
// concurrent use.
type Generator struct {
	family  cidr.Family
	count   int
	minBits int
	maxBits int
	seed    uint64
	prng    *rand.Rand
}

// New validates cfg and returns a Generator for it.
func New(cfg Config) (*Generator, error) {
	if cfg.Family.Bits() == 0 {
		return nil, fmt.Errorf("unknown address family %d", cfg.Family)
	}
	if cfg.Count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", cfg.Count)
	}

	minDef, maxDef := PrefixLenRange(cfg.Family)
	if cfg.MinBits == defaults.GeneratorPrefixLenFromFamily {
		cfg.MinBits = minDef
	}
	if cfg.MaxBits == defaults.GeneratorPrefixLenFromFamily {
		cfg.MaxBits = maxDef
	}
	width := int(cfg.Family.Bits())
	if cfg.MinBits < 0 || cfg.MaxBits > width || cfg.MinBits > cfg.MaxBits {
		return nil, fmt.Errorf("invalid %s prefix length range %d-%d", cfg.Family, cfg.MinBits, cfg.MaxBits)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Generator{
		family:  cfg.Family,
		count:   cfg.Count,
		minBits: cfg.MinBits,
		maxBits: cfg.MaxBits,
		seed:    seed,
		prng:    rand.New(rand.NewPCG(seed, seed)),
	}, nil
}

// Seed returns the seed the generator was created with, so that a run with
// a random seed can be repeated.
func (g *Generator) Seed() uint64 {
	return g.seed
}

func (g *Generator) randomAddr() netip.Addr {
	if g.family == cidr.FamilyV4 {
		var b [4]byte
		for i := range b {
			b[i] = byte(g.prng.Uint32() & 0xff)
		}
		return netip.AddrFrom4(b)
	}
	var b [16]byte
	for i := range b {
		b[i] = byte(g.prng.Uint32() & 0xff)
	}
	return netip.AddrFrom16(b)
}

// Host returns a random full-length prefix.
func (g *Generator) Host() cidr.Prefix {
	return cidr.PrefixFrom(g.randomAddr(), int(g.family.Bits()))
}

// Netblock returns a random canonical prefix with a length in the
// configured range.
func (g *Generator) Netblock() cidr.Prefix {
	bits := g.minBits + g.prng.IntN(g.maxBits-g.minBits+1)
	return cidr.PrefixFrom(g.randomAddr(), bits).Masked()
}

// Prefixes returns Count/2 hosts followed by Count/2 netblocks.
func (g *Generator) Prefixes() []cidr.Prefix {
	half := g.count / 2
	out := make([]cidr.Prefix, 0, 2*half)
	for range half {
		out = append(out, g.Host())
	}
	for range half {
		out = append(out, g.Netblock())
	}
	return out
}

// Write writes Prefixes to w, one per line.
func (g *Generator) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, p := range g.Prefixes() {
		if _, err := fmt.Fprintln(bw, p); err != nil {
			return err
		}
	}
	return bw.Flush()
}
