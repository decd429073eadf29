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

// Package kmer extracts strand-independent fixed-length fingerprints from
// nucleotide sequences. A k-mer of up to 32 bases is packed into a single
// 64-bit integer, two bits per base, and canonicalized by taking the
// numerically smaller of the k-mer and its reverse complement, so that a
// fragment and its opposite-strand counterpart map to the same fingerprint.
package kmer

import (
	"errors"
	"log"
	"math/bits"

	"github.com/bioqc/seqqc/internal/caps"
)

// ErrUnknownBase is returned when a window contains a symbol outside the
// supported alphabet. It takes precedence over ErrAmbiguousBase when both
// occur in the same window.
var ErrUnknownBase = errors.New("kmer: sequence contains a base that is not A, C, G, T or N")

// ErrAmbiguousBase is returned when a window contains the ambiguity
// placeholder N.
var ErrAmbiguousBase = errors.New("kmer: sequence contains an N")

// Sentinel codes in baseToTwoBit. Both are wider than the two valid bits,
// so a bitwise OR over a window reveals whether any sentinel occurred.
const (
	codeUnknown   = 4
	codeAmbiguous = 8
)

// baseToTwoBit maps an ASCII base, case-insensitively, to its 2-bit code:
// A, C, G, T to 0 through 3. The alphabet is arranged so that
// complementary bases are bitwise complements of each other. N maps to
// codeAmbiguous, everything else to codeUnknown.
var baseToTwoBit [256]byte

func init() {
	for i := range baseToTwoBit {
		baseToTwoBit[i] = codeUnknown
	}
	for i, base := range []byte{'A', 'C', 'G', 'T'} {
		baseToTwoBit[base] = byte(i)
		baseToTwoBit[base+'a'-'A'] = byte(i)
	}
	baseToTwoBit['N'] = codeAmbiguous
	baseToTwoBit['n'] = codeAmbiguous
}

// canonical is bound once during initialization, before any concurrent
// use can begin. Both variants produce identical results for every input,
// including the sentinel precedence.
var canonical = canonicalBaseline

func init() {
	if caps.Vector {
		canonical = canonicalBlocks
	}
}

// Canonical packs the first k bases of seq into a 2-bit encoded k-mer,
// most significant bits first, and returns the numerically smaller of the
// k-mer and its reverse complement. For odd k the two can never be equal;
// for even k a palindromic window yields the same value either way.
//
// If the window contains a base outside A, C, G, T (case-insensitive),
// Canonical returns ErrUnknownBase; if it contains an N and nothing
// worse, ErrAmbiguousBase. k must be between 1 and 32 inclusive and seq
// must hold at least k bases; violating either is a programming error.
func Canonical(seq []byte, k int) (uint64, error) {
	if k < 1 || k > 32 {
		log.Panicf("kmer.Canonical: k must be in [1,32], got %v", k)
	}
	if len(seq) < k {
		log.Panicf("kmer.Canonical: sequence of %v bases is shorter than k=%v", len(seq), k)
	}
	return canonical(seq[:k])
}

func canonicalBaseline(window []byte) (uint64, error) {
	var packed uint64
	var all byte
	for _, base := range window {
		code := baseToTwoBit[base]
		all |= code
		packed = packed<<2 | uint64(code)
	}
	if all > 3 {
		return 0, sentinelError(all)
	}
	return smaller(packed, len(window)), nil
}

// canonicalBlocks classifies and packs four bases per step. The packed
// value and the sentinel accumulator are built exactly as in the
// baseline, so results are bit-identical.
func canonicalBlocks(window []byte) (uint64, error) {
	var packed uint64
	var all byte
	i := 0
	for ; i+4 <= len(window); i += 4 {
		code0 := baseToTwoBit[window[i]]
		code1 := baseToTwoBit[window[i+1]]
		code2 := baseToTwoBit[window[i+2]]
		code3 := baseToTwoBit[window[i+3]]
		all |= code0 | code1 | code2 | code3
		chunk := uint64(code0)<<6 | uint64(code1)<<4 | uint64(code2)<<2 | uint64(code3)
		packed = packed<<8 | chunk
	}
	for ; i < len(window); i++ {
		code := baseToTwoBit[window[i]]
		all |= code
		packed = packed<<2 | uint64(code)
	}
	if all > 3 {
		return 0, sentinelError(all)
	}
	return smaller(packed, len(window)), nil
}

func sentinelError(all byte) error {
	if all&codeUnknown != 0 {
		return ErrUnknownBase
	}
	return ErrAmbiguousBase
}

func smaller(packed uint64, k int) uint64 {
	revComp := ReverseComplement(packed, k)
	if revComp > packed {
		return packed
	}
	return revComp
}

// ReverseComplement returns the reverse complement of a 2-bit encoded
// k-mer. Complementing is a bitwise NOT, since complementary bases are
// bitwise complements under this encoding; the base order is then
// reversed and the result right-aligned to k codes.
func ReverseComplement(kmer uint64, k int) uint64 {
	revComp := bits.Reverse64(^kmer)
	// Reverse64 also swapped the two bits inside each code; swap them back.
	revComp = (revComp&0x5555555555555555)<<1 | (revComp&0xaaaaaaaaaaaaaaaa)>>1
	return revComp >> (64 - 2*uint(k))
}

// Sequence decodes a 2-bit encoded k-mer back into ASCII bases. It is
// the counterpart of the packing done by Canonical and is used to report
// representative sequences for fingerprints.
func Sequence(kmer uint64, k int) []byte {
	seq := make([]byte, k)
	for i := k; i > 0; i-- {
		seq[i-1] = "ACGT"[kmer&3]
		kmer >>= 2
	}
	return seq
}
