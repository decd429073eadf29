// seqQC: a high-performance quality control tool for sequencing reads.
// Copyright (c) 2025-2026 the seqQC authors.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/bioqc/seqqc/blob/master/LICENSE.txt>.

// Package adapters searches reads for known short adapter probe sequences
// using bit-parallel exact matching. Up to five 12-base probes share one
// 64-bit shift-AND automaton, so a whole batch is tested with a constant
// number of word operations per input symbol.
package adapters

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// ProbeLength is the fixed probe size. It is 12 so that five probes fit
// into one 64-bit automaton word (5 x 12 bits); longer probes would force
// multiple words per batch and one extra word operation per symbol each.
const ProbeLength = 12

const probesPerWord = 5

// Nucleotide classes: N and anything that is not A, C, G or T share
// class 0, so probes restricted to ACGT can never match through an
// ambiguous or foreign symbol.
const nucClasses = 5

// nucToIndex maps an ASCII symbol, case-insensitively, to its class.
var nucToIndex [256]byte

func init() {
	for i, base := range []byte{'A', 'C', 'G', 'T'} {
		nucToIndex[base] = byte(i + 1)
		nucToIndex[base+'a'-'A'] = byte(i + 1)
	}
}

// Anchor is the read-relative position class where a probe is expected.
type Anchor int

// Probes are anchored either to the first or to the last ProbeLength
// symbols of a read.
const (
	Start Anchor = iota
	End
)

func (a Anchor) String() string {
	if a == Start {
		return "start"
	}
	return "end"
}

// A Probe is a named adapter subsequence with its expected anchor
// position and the sequencing technology it belongs to.
type Probe struct {
	Name       string
	Technology string
	Sequence   string
	Anchor     Anchor
}

// matcherWord is one shift-AND automaton holding up to probesPerWord
// probes with the same anchor. Probe group g occupies bits
// [g*ProbeLength, (g+1)*ProbeLength).
type matcherWord struct {
	anchor    Anchor
	initMask  uint64
	foundMask uint64
	bitmasks  [nucClasses]uint64
	probes    []int
}

// A Matcher tests reads against a fixed batch of probes. It is immutable
// after construction and safe for concurrent use.
type Matcher struct {
	probes []Probe
	words  []matcherWord
}

// NewMatcher builds a matcher for the given probes. Every probe sequence
// must be exactly ProbeLength bases of A, C, G or T.
func NewMatcher(probes []Probe) (*Matcher, error) {
	m := &Matcher{probes: probes}
	for index, probe := range probes {
		if len(probe.Sequence) != ProbeLength {
			return nil, fmt.Errorf("adapters: probe %v is %v bases long, must be exactly %v", probe.Name, len(probe.Sequence), ProbeLength)
		}
		for _, base := range []byte(probe.Sequence) {
			if nucToIndex[base] == 0 {
				return nil, fmt.Errorf("adapters: probe %v contains %c, only A, C, G and T are allowed", probe.Name, base)
			}
		}
		word := m.wordFor(probe.Anchor)
		group := len(word.probes)
		offset := uint(group * ProbeLength)
		for i := 0; i < ProbeLength; i++ {
			word.bitmasks[nucToIndex[probe.Sequence[i]]] |= 1 << (offset + uint(i))
		}
		word.initMask |= 1 << offset
		word.foundMask |= 1 << (offset + ProbeLength - 1)
		word.probes = append(word.probes, index)
	}
	return m, nil
}

// wordFor returns the last automaton word for the given anchor that still
// has a free probe group, appending a new word when needed.
func (m *Matcher) wordFor(anchor Anchor) *matcherWord {
	for i := range m.words {
		if m.words[i].anchor == anchor && len(m.words[i].probes) < probesPerWord {
			return &m.words[i]
		}
	}
	m.words = append(m.words, matcherWord{anchor: anchor})
	return &m.words[len(m.words)-1]
}

// Probes returns the batch this matcher was built for, in bit order.
func (m *Matcher) Probes() []Probe {
	return m.probes
}

// Match reports which probes occur exactly at their anchor position: the
// first ProbeLength symbols for start-anchored probes, the last
// ProbeLength for end-anchored ones. Bit i of the result corresponds to
// probes[i]. Reads shorter than ProbeLength match nothing.
func (m *Matcher) Match(read []byte) *bitset.BitSet {
	result := bitset.New(uint(len(m.probes)))
	if len(read) < ProbeLength {
		return result
	}
	for i := range m.words {
		word := &m.words[i]
		window := read[:ProbeLength]
		if word.anchor == End {
			window = read[len(read)-ProbeLength:]
		}
		// Re-injecting the init mask at every step cannot produce a
		// false positive here: the window is exactly as long as a probe,
		// so the found bit can only be reached by a run that started at
		// the first window symbol. A found bit shifting into the next
		// group lands on that group's init bit, which the init mask sets
		// every step anyway.
		var r uint64
		for _, symbol := range window {
			r = (r << 1) | word.initMask
			r &= word.bitmasks[nucToIndex[symbol]]
		}
		if hits := r & word.foundMask; hits != 0 {
			for group, probe := range word.probes {
				if hits&(1<<uint(group*ProbeLength+ProbeLength-1)) != 0 {
					result.Set(uint(probe))
				}
			}
		}
	}
	return result
}

// Scan searches the whole read for each probe regardless of anchor and
// returns, per probe, the position of its earliest exact occurrence, or
// -1 if it does not occur.
func (m *Matcher) Scan(read []byte) []int {
	positions := make([]int, len(m.probes))
	for i := range positions {
		positions[i] = -1
	}
	for i := range m.words {
		word := &m.words[i]
		var r, alreadyFound uint64
		for pos := 0; pos < len(read); pos++ {
			r = (r << 1) | word.initMask
			r &= word.bitmasks[nucToIndex[read[pos]]]
			hits := r & word.foundMask &^ alreadyFound
			if hits == 0 {
				continue
			}
			for group, probe := range word.probes {
				foundBit := uint64(1) << uint(group*ProbeLength+ProbeLength-1)
				if hits&foundBit != 0 {
					positions[probe] = pos - ProbeLength + 1
					alreadyFound |= foundBit
				}
			}
		}
	}
	return positions
}
