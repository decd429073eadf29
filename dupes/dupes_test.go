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

package dupes

import (
	"math/rand"
	"strings"
	"testing"
)

func TestNewEstimatorValidation(t *testing.T) {
	if _, err := NewEstimator(20, 100, 1); err == nil {
		t.Error("even fragment lengths must be rejected")
	}
	if _, err := NewEstimator(33, 100, 1); err == nil {
		t.Error("fragment lengths above 31 must be rejected")
	}
	if _, err := NewEstimator(21, 0, 1); err == nil {
		t.Error("zero capacity must be rejected")
	}
	if _, err := NewEstimator(21, 100, 0); err == nil {
		t.Error("zero sample rate must be rejected")
	}
}

func TestDuplicateDetection(t *testing.T) {
	e, err := NewEstimator(21, 1000, 1)
	if err != nil {
		t.Fatal(err)
	}
	read := []byte("GGCCTTAGACCAATTGGCCAA")
	for i := 0; i < 10; i++ {
		e.AddRead(read)
	}
	if e.Sequences() != 10 || e.SampledSequences() != 10 {
		t.Errorf("sequences = %v, sampled = %v", e.Sequences(), e.SampledSequences())
	}
	if e.UniqueFragments() != 1 {
		t.Errorf("unique fragments = %v, want 1", e.UniqueFragments())
	}
	if e.TotalFragments() != 10 {
		t.Errorf("total fragments = %v, want 10", e.TotalFragments())
	}
	spectrum := e.Spectrum(50)
	if spectrum[10] != 1 {
		t.Errorf("spectrum = %v, want one fragment seen 10 times", spectrum)
	}
}

func TestStrandInvariantCounting(t *testing.T) {
	e, err := NewEstimator(21, 1000, 1)
	if err != nil {
		t.Fatal(err)
	}
	// A fragment and its reverse complement share one fingerprint.
	e.AddRead([]byte("GGCCTTAGACCAATTGGCCAA"))
	e.AddRead([]byte("TTGGCCAATTGGTCTAAGGCC"))
	if e.UniqueFragments() != 1 {
		t.Errorf("unique fragments = %v, want 1", e.UniqueFragments())
	}
}

func TestAmbiguousFragmentsSkipped(t *testing.T) {
	e, err := NewEstimator(21, 1000, 1)
	if err != nil {
		t.Fatal(err)
	}
	e.AddRead([]byte("GGCCTTAGACNAATTGGCCAA"))
	if e.UniqueFragments() != 0 || e.TotalFragments() != 0 {
		t.Errorf("fragments with N must be skipped, got %v unique", e.UniqueFragments())
	}
}

func TestSampling(t *testing.T) {
	e, err := NewEstimator(21, 1000, 8)
	if err != nil {
		t.Fatal(err)
	}
	read := []byte("GGCCTTAGACCAATTGGCCAA")
	for i := 0; i < 16; i++ {
		e.AddRead(read)
	}
	if e.SampledSequences() != 2 {
		t.Errorf("sampled = %v, want 2", e.SampledSequences())
	}
}

func TestOverrepresented(t *testing.T) {
	e, err := NewEstimator(21, 10000, 1)
	if err != nil {
		t.Fatal(err)
	}
	frequent := "GGCCTTAGACCAATTGGCCAA"
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		e.AddRead([]byte(frequent))
	}
	for i := 0; i < 100; i++ {
		seq := make([]byte, 21)
		for j := range seq {
			seq[j] = "ACGT"[r.Intn(4)]
		}
		e.AddRead(seq)
	}
	over := e.Overrepresented(0.2)
	if len(over) != 1 {
		t.Fatalf("overrepresented = %v, want exactly the frequent fragment", over)
	}
	if over[0].Count != 100 {
		t.Errorf("count = %v, want 100", over[0].Count)
	}
	// The sequence is reconstructed from the stored hash; it must be the
	// canonical form of the frequent fragment.
	reverse := reverseComplementString(frequent)
	if over[0].Sequence != frequent && over[0].Sequence != reverse {
		t.Errorf("sequence = %v, want %v or %v", over[0].Sequence, frequent, reverse)
	}
}

func TestCapacityLimit(t *testing.T) {
	e, err := NewEstimator(3, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, read := range []string{"AAA", "AAC", "AAG", "AAT"} {
		e.AddRead([]byte(read))
	}
	if e.UniqueFragments() != 2 {
		t.Errorf("unique fragments = %v, want the capacity of 2", e.UniqueFragments())
	}
	if e.TotalFragments() != 4 {
		t.Errorf("total fragments = %v, want 4 counted past capacity", e.TotalFragments())
	}
}

func reverseComplementString(s string) string {
	complement := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}
	var b strings.Builder
	for i := len(s) - 1; i >= 0; i-- {
		b.WriteByte(complement[s[i]])
	}
	return b.String()
}
