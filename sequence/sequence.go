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

// Package sequence decodes the packed per-base representations used by
// binary alignment records: nucleotides stored as 4-bit codes, two per
// byte, and quality scores stored as raw Phred values without the
// printable-ASCII offset.
package sequence

import (
	"encoding/binary"
	"log"

	"github.com/bioqc/seqqc/internal/caps"
)

// codeToBase maps a 4-bit nucleotide code to its IUPAC symbol. Code 0 is
// the unset placeholder. The mapping is fixed; downstream tools depend on
// these exact values.
var codeToBase = [16]byte{
	'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V',
	'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N',
}

// codeToBasePair maps a packed byte to its two decoded symbols, high
// nibble first.
var codeToBasePair [512]byte

// baseToCode is the reverse mapping, case-insensitive. Symbols outside
// the IUPAC set encode as N, following the usual binary alignment
// convention.
var baseToCode [256]byte

func init() {
	for i := 0; i < 256; i++ {
		codeToBasePair[2*i] = codeToBase[i>>4]
		codeToBasePair[2*i+1] = codeToBase[i&0xF]
	}
	for i := range baseToCode {
		baseToCode[i] = 15
	}
	for code, base := range codeToBase {
		baseToCode[base] = byte(code)
		if base >= 'A' && base <= 'Z' {
			baseToCode[base+'a'-'A'] = byte(code)
		}
	}
}

// decodeSequence is bound once during initialization, before any
// concurrent use can begin. Both variants produce identical output for
// every input.
var decodeSequence = decodeSequenceBaseline

var decodeQualities = decodeQualitiesBaseline

func init() {
	if caps.Vector {
		decodeSequence = decodeSequenceBlocks
		decodeQualities = decodeQualitiesBlocks
	}
}

// Decode expands n 4-bit nucleotide codes from src, packed two per byte
// with the high nibble first, into n ASCII symbols in dst. If n is odd,
// the final symbol comes from the high nibble of the last packed byte.
// All 16 code values are legal; no validation is performed.
//
// The caller must supply at least ceil(n/2) bytes in src and n bytes in
// dst; shorter buffers are a programming error.
func Decode(dst, src []byte, n int) {
	if len(dst) < n || len(src) < (n+1)>>1 {
		log.Panicf("sequence.Decode: buffers too short for %v bases (dst %v, src %v)", n, len(dst), len(src))
	}
	decodeSequence(dst, src, n)
}

// DecodeString decodes n packed nucleotide codes from src into a fresh
// string.
func DecodeString(src []byte, n int) string {
	dst := make([]byte, n)
	Decode(dst, src, n)
	return string(dst)
}

func decodeSequenceBaseline(dst, src []byte, n int) {
	full := n >> 1
	for i := 0; i < full; i++ {
		b := src[i]
		dst[2*i] = codeToBase[b>>4]
		dst[2*i+1] = codeToBase[b&0xF]
	}
	if n&1 == 1 {
		dst[n-1] = codeToBase[src[full]>>4]
	}
}

// decodeSequenceBlocks processes eight packed bytes (sixteen bases) per
// step. A single 64-bit load replaces eight byte loads, and the pair
// table turns every packed byte into both of its symbols at once.
func decodeSequenceBlocks(dst, src []byte, n int) {
	full := n >> 1
	i := 0
	for ; i+8 <= full; i += 8 {
		word := binary.LittleEndian.Uint64(src[i : i+8])
		out := dst[2*i : 2*i+16 : 2*i+16]
		for j := 0; j < 16; j += 2 {
			pair := codeToBasePair[(word&0xFF)<<1:]
			out[j] = pair[0]
			out[j+1] = pair[1]
			word >>= 8
		}
	}
	decodeSequenceBaseline(dst[2*i:], src[i:], n-2*i)
}

// DecodeQualities adds the Phred printable-ASCII offset of 33 to each of
// the n raw quality bytes in src, storing the results in dst. The caller
// must supply at least n bytes in both buffers.
func DecodeQualities(dst, src []byte, n int) {
	if len(dst) < n || len(src) < n {
		log.Panicf("sequence.DecodeQualities: buffers too short for %v scores (dst %v, src %v)", n, len(dst), len(src))
	}
	decodeQualities(dst, src, n)
}

func decodeQualitiesBaseline(dst, src []byte, n int) {
	for i := 0; i < n; i++ {
		dst[i] = src[i] + 33
	}
}

const (
	qualityOffsets = 0x2121212121212121
	low7Bits       = 0x7f7f7f7f7f7f7f7f
	high8thBits    = 0x8080808080808080
)

// decodeQualitiesBlocks adds the offset to eight quality bytes at a time.
// The low seven bits of each byte are summed in one 64-bit addition; the
// eighth bits are carried over with an XOR so no byte can spill into its
// neighbor. Bytewise identical to the baseline for all inputs.
func decodeQualitiesBlocks(dst, src []byte, n int) {
	i := 0
	for ; i+8 <= n; i += 8 {
		word := binary.LittleEndian.Uint64(src[i : i+8])
		sum := (word & low7Bits) + qualityOffsets
		binary.LittleEndian.PutUint64(dst[i:i+8], sum^(word&high8thBits))
	}
	for ; i < n; i++ {
		dst[i] = src[i] + 33
	}
}
