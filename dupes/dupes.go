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

// Package dupes estimates sequence duplication and overrepresentation by
// sampling canonical fragments from reads. Each fragment is fingerprinted
// with the reversible wanghash, and only the hash is stored; when a
// representative sequence needs to be reported, the fragment is
// reconstructed from the hash with the inverse transform instead of
// keeping raw fragments in the working set.
package dupes

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/google/uuid"

	"github.com/bioqc/seqqc/kmer"
	"github.com/bioqc/seqqc/wanghash"
)

// Defaults mirror what works well for short and long read sets alike: an
// odd fragment length so palindromic canonicalization ties cannot occur,
// and sampling every eighth read to bound the table size.
const (
	DefaultFragmentLength = 21
	DefaultMaxFragments   = 5000000
	DefaultSampleEvery    = 8
)

// An Estimator samples canonical fragments from the reads it is fed and
// tracks how often each distinct fragment occurs. It must not be shared
// between goroutines without external coordination: sampling depends on
// read order.
type Estimator struct {
	runID          uuid.UUID
	fragmentLength int
	sampleEvery    int
	maxFragments   int

	hashes []uint64
	counts []uint32
	mask   uint64

	sequences       uint64
	sampled         uint64
	totalFragments  uint64
	uniqueFragments int
}

// NewEstimator returns an estimator sampling fragments of fragmentLength
// bases from every sampleEvery-th read, tracking at most maxFragments
// distinct fragments. The fragment length must be an odd number between 3
// and 31.
func NewEstimator(fragmentLength, maxFragments, sampleEvery int) (*Estimator, error) {
	if fragmentLength&1 == 0 || fragmentLength < 3 || fragmentLength > 31 {
		return nil, fmt.Errorf("dupes: fragment length must be an odd number between 3 and 31, got %v", fragmentLength)
	}
	if maxFragments < 1 {
		return nil, fmt.Errorf("dupes: max fragments must be at least 1, got %v", maxFragments)
	}
	if sampleEvery < 1 {
		return nil, fmt.Errorf("dupes: sample rate must be at least 1, got %v", sampleEvery)
	}
	// A power-of-two table lets the modulo be a bitwise AND. Scaling by
	// 1.5 before rounding up keeps the table at most two-thirds full.
	tableBits := bits.Len64(uint64(maxFragments) * 3 / 2)
	tableSize := uint64(1) << uint(tableBits)
	return &Estimator{
		runID:          uuid.New(),
		fragmentLength: fragmentLength,
		sampleEvery:    sampleEvery,
		maxFragments:   maxFragments,
		hashes:         make([]uint64, tableSize),
		counts:         make([]uint32, tableSize),
		mask:           tableSize - 1,
	}, nil
}

// RunID identifies this estimator's run in reports.
func (e *Estimator) RunID() uuid.UUID {
	return e.runID
}

// AddRead samples canonical fragments from the read if it falls on the
// sampling grid. Fragments are taken without overlap from the front up to
// a midpoint and from the back down to it, so that adapter fragments at
// either end always land in the same frame instead of spreading over many
// distinct table entries. Fragments containing an N or an unrecognized
// symbol are skipped.
func (e *Estimator) AddRead(sequence []byte) {
	sampled := e.sequences%uint64(e.sampleEvery) == 0
	e.sequences++
	if !sampled {
		return
	}
	e.sampled++
	length := len(sequence)
	fragment := e.fragmentLength
	if length < fragment {
		return
	}
	totalFragments := (length + fragment - 1) / fragment
	fromMidPoint := totalFragments / 2
	midPoint := length - fromMidPoint*fragment
	var fragments uint64
	for i := 0; i < midPoint; i += fragment {
		if e.insertFragment(sequence[i:]) {
			fragments++
		}
	}
	for i := midPoint; i < length; i += fragment {
		if e.insertFragment(sequence[i:]) {
			fragments++
		}
	}
	e.totalFragments += fragments
}

func (e *Estimator) insertFragment(window []byte) bool {
	packed, err := kmer.Canonical(window, e.fragmentLength)
	if err != nil {
		return false
	}
	hash := wanghash.Forward(packed)
	if hash == 0 {
		// The one key hashing to zero is indistinguishable from an
		// empty slot; skip it.
		return false
	}
	index := hash & e.mask
	for {
		entry := e.hashes[index]
		if entry == 0 {
			if e.uniqueFragments < e.maxFragments {
				e.hashes[index] = hash
				e.counts[index] = 1
				e.uniqueFragments++
			}
			return true
		}
		if entry == hash {
			e.counts[index]++
			return true
		}
		index = (index + 1) & e.mask
	}
}

// Sequences returns the number of reads fed to the estimator.
func (e *Estimator) Sequences() uint64 {
	return e.sequences
}

// SampledSequences returns the number of reads that fell on the sampling
// grid.
func (e *Estimator) SampledSequences() uint64 {
	return e.sampled
}

// TotalFragments returns the number of fragments inserted or counted.
func (e *Estimator) TotalFragments() uint64 {
	return e.totalFragments
}

// UniqueFragments returns the number of distinct fragments retained.
func (e *Estimator) UniqueFragments() int {
	return e.uniqueFragments
}

// Spectrum returns the duplication histogram: entry i holds the number of
// distinct fragments that occurred exactly i times, with the final entry
// collecting everything at or beyond maxCount.
func (e *Estimator) Spectrum(maxCount int) []uint64 {
	spectrum := make([]uint64, maxCount+1)
	for i, hash := range e.hashes {
		if hash == 0 {
			continue
		}
		count := int(e.counts[i])
		if count >= maxCount {
			count = maxCount
		}
		spectrum[count]++
	}
	return spectrum
}

// An OverrepresentedFragment is a distinct fragment whose share of all
// sampled fragments exceeded the reporting threshold. The sequence is
// reconstructed from the stored hash, never retained.
type OverrepresentedFragment struct {
	Count    uint32
	Fraction float64
	Sequence string
}

// Overrepresented returns the fragments whose fraction of all sampled
// fragments is at least minFraction, most frequent first.
func (e *Estimator) Overrepresented(minFraction float64) []OverrepresentedFragment {
	if e.totalFragments == 0 {
		return nil
	}
	var result []OverrepresentedFragment
	for i, hash := range e.hashes {
		if hash == 0 {
			continue
		}
		count := e.counts[i]
		fraction := float64(count) / float64(e.totalFragments)
		if fraction < minFraction {
			continue
		}
		packed := wanghash.Inverse(hash)
		result = append(result, OverrepresentedFragment{
			Count:    count,
			Fraction: fraction,
			Sequence: string(kmer.Sequence(packed, e.fragmentLength)),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Sequence < result[j].Sequence
	})
	return result
}
