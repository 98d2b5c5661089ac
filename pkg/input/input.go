// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package input reads prefix records, one per line, from a file or standard
// input. Records that cannot be used are skipped and accounted for; only
// failures to open or read the input are returned as errors.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/cilium/cidragg/pkg/cidr"
	"github.com/cilium/cidragg/pkg/logging"
	"github.com/cilium/cidragg/pkg/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "input")

// ErrInvalidUTF8 marks a line that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("line is not valid UTF-8")

// Skip reasons, used as metric label values.
const (
	ReasonInvalidUTF8    = "invalid-utf8"
	ReasonInvalidAddress = "invalid-address"
	ReasonFamilyMismatch = "family-mismatch"
	ReasonInvalidLength  = "invalid-length"
	ReasonLengthRange    = "length-out-of-range"
	ReasonNonCanonical   = "non-canonical"
	ReasonUnknown        = "unknown"
)

// Reason maps a record error to its skip reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidUTF8):
		return ReasonInvalidUTF8
	case errors.Is(err, cidr.ErrInvalidAddress):
		return ReasonInvalidAddress
	case errors.Is(err, cidr.ErrFamilyMismatch):
		return ReasonFamilyMismatch
	case errors.Is(err, cidr.ErrInvalidLength):
		return ReasonInvalidLength
	case errors.Is(err, cidr.ErrLengthOutOfRange):
		return ReasonLengthRange
	case errors.Is(err, cidr.ErrNonCanonical):
		return ReasonNonCanonical
	}
	return ReasonUnknown
}

// Stats counts what happened to the lines of one input.
type Stats struct {
	Lines    int
	Blank    int
	Accepted int
	Skipped  map[string]int
}

// SkippedTotal returns the number of skipped records over all reasons.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Open returns the named file, or stdin wrapped so that closing it is a
// no-op when path is empty or "-".
func Open(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open input: %w", err)
	}
	return f, nil
}

// ReadPrefixes reads r to the end and returns every record parser accepts,
// in input order. Lines are trimmed; blank lines are ignored.
func ReadPrefixes(r io.Reader, parser cidr.Parser) ([]cidr.Prefix, Stats, error) {
	stats := Stats{Skipped: map[string]int{}}
	prefixes := []cidr.Prefix{}
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			stats.Lines++
			p, perr := parseLine(line, parser)
			switch {
			case perr == nil && !p.IsValid():
				stats.Blank++
			case perr != nil:
				reason := Reason(perr)
				stats.Skipped[reason]++
				log.WithError(perr).WithFields(logrus.Fields{
					logfields.Line:   stats.Lines,
					logfields.Reason: reason,
				}).Debug("Skipping record")
			default:
				stats.Accepted++
				prefixes = append(prefixes, p)
			}
		}
		if err == io.EOF {
			return prefixes, stats, nil
		}
		if err != nil {
			return nil, stats, fmt.Errorf("unable to read input: %w", err)
		}
	}
}

// parseLine returns the zero Prefix and no error for a blank line.
func parseLine(line []byte, parser cidr.Parser) (cidr.Prefix, error) {
	if !utf8.Valid(line) {
		return cidr.Prefix{}, ErrInvalidUTF8
	}
	text := strings.TrimSpace(string(bytes.TrimSuffix(line, []byte("\n"))))
	if text == "" {
		return cidr.Prefix{}, nil
	}
	return parser.Parse(text)
}
