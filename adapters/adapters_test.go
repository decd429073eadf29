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

package adapters

import (
	"strings"
	"testing"
)

var fiveProbes = []Probe{
	{"P0", "test", "AGATCGGAAGAG", Start},
	{"P1", "test", "TGGAATTCTCGG", Start},
	{"P2", "test", "CTGTCTCTTATA", Start},
	{"P3", "test", "AAAAAAAAAAAA", Start},
	{"P4", "test", "GGGGGGGGGGGG", Start},
}

func TestMatchStartAnchor(t *testing.T) {
	m, err := NewMatcher(fiveProbes)
	if err != nil {
		t.Fatal(err)
	}
	read := []byte("AGATCGGAAGAGTTTTCCCCAAAA")
	hits := m.Match(read)
	if !hits.Test(0) {
		t.Error("P0 should match at the start anchor")
	}
	for probe := uint(1); probe < 5; probe++ {
		if hits.Test(probe) {
			t.Errorf("P%v should not match", probe)
		}
	}
}

func TestMatchEndAnchor(t *testing.T) {
	m, err := NewMatcher([]Probe{{"E0", "test", "AGATCGGAAGAG", End}})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Match([]byte("TTTTCCCCGGGGAGATCGGAAGAG")).Test(0) {
		t.Error("E0 should match at the end anchor")
	}
	// Same probe sequence at the start must not count as an end match.
	if m.Match([]byte("AGATCGGAAGAGTTTTCCCCGGGG")).Test(0) {
		t.Error("E0 matched away from its anchor")
	}
}

func TestMatchExactness(t *testing.T) {
	m, err := NewMatcher([]Probe{{"S0", "test", "AGATCGGAAGAG", Start}})
	if err != nil {
		t.Fatal(err)
	}
	probe := "AGATCGGAAGAG"
	for i := 0; i < len(probe); i++ {
		for _, substitution := range "ACGT" {
			if byte(substitution) == probe[i] {
				continue
			}
			mutated := probe[:i] + string(substitution) + probe[i+1:]
			if m.Match([]byte(mutated + "TTTT")).Test(0) {
				t.Errorf("substitution at %v (%v) should not match", i, mutated)
			}
		}
	}
	if !m.Match([]byte(probe + "TTTT")).Test(0) {
		t.Error("the unmutated probe should match")
	}
}

func TestMatchFiveProbesIndependently(t *testing.T) {
	m, err := NewMatcher(fiveProbes)
	if err != nil {
		t.Fatal(err)
	}
	for index, probe := range fiveProbes {
		read := []byte(probe.Sequence + "CTCTCTCTCT")
		hits := m.Match(read)
		for other := range fiveProbes {
			if other == index {
				if !hits.Test(uint(other)) {
					t.Errorf("probe %v should match its own read", other)
				}
			} else if hits.Test(uint(other)) {
				t.Errorf("probe %v should not match the read for probe %v", other, index)
			}
		}
	}
}

func TestMatchShortRead(t *testing.T) {
	m, err := NewMatcher(fiveProbes)
	if err != nil {
		t.Fatal(err)
	}
	if hits := m.Match([]byte("AGATCGGAAGA")); hits.Any() {
		t.Error("a read shorter than a probe cannot match")
	}
	if hits := m.Match(nil); hits.Any() {
		t.Error("an empty read cannot match")
	}
}

func TestMatchRejectsAmbiguousSymbols(t *testing.T) {
	m, err := NewMatcher([]Probe{{"S0", "test", "AGATCGGAAGAG", Start}})
	if err != nil {
		t.Fatal(err)
	}
	if m.Match([]byte("AGATCGGAAGNG")).Test(0) {
		t.Error("N must not match any probe base")
	}
}

func TestScan(t *testing.T) {
	m, err := NewMatcher(fiveProbes)
	if err != nil {
		t.Fatal(err)
	}
	read := []byte("TTTT" + "AGATCGGAAGAG" + "CC" + "TGGAATTCTCGG" + "AGATCGGAAGAG")
	positions := m.Scan(read)
	if positions[0] != 4 {
		t.Errorf("P0 earliest occurrence = %v, want 4", positions[0])
	}
	if positions[1] != 18 {
		t.Errorf("P1 earliest occurrence = %v, want 18", positions[1])
	}
	for probe := 2; probe < 5; probe++ {
		if positions[probe] != -1 {
			t.Errorf("P%v should not occur, got %v", probe, positions[probe])
		}
	}
}

func TestScanOverlappingRepeat(t *testing.T) {
	m, err := NewMatcher([]Probe{{"PolyA", "test", "AAAAAAAAAAAA", End}})
	if err != nil {
		t.Fatal(err)
	}
	positions := m.Scan([]byte(strings.Repeat("A", 30)))
	if positions[0] != 0 {
		t.Errorf("polyA earliest occurrence = %v, want 0", positions[0])
	}
}

func TestNewMatcherValidation(t *testing.T) {
	if _, err := NewMatcher([]Probe{{"bad", "test", "ACGT", Start}}); err == nil {
		t.Error("short probe sequences must be rejected")
	}
	if _, err := NewMatcher([]Probe{{"bad", "test", "ACGTACGTACGN", Start}}); err == nil {
		t.Error("non-ACGT probe sequences must be rejected")
	}
}

func TestDefaultProbes(t *testing.T) {
	m, err := NewMatcher(DefaultProbes())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Probes()) != len(DefaultProbes()) {
		t.Error("probe order must be preserved")
	}
}
