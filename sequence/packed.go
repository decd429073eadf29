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

package sequence

import "log"

// Packed is a read-only view over a buffer of 4-bit nucleotide codes,
// two codes per byte, high nibble first. The buffer is owned by the
// caller and never modified or retained beyond the view itself.
type Packed struct {
	length int
	bytes  []byte
}

// NewPacked returns a view over the first length codes stored in bytes.
func NewPacked(bytes []byte, length int) Packed {
	if len(bytes) < (length+1)>>1 {
		log.Panicf("sequence.NewPacked: %v bytes cannot hold %v codes", len(bytes), length)
	}
	return Packed{length: length, bytes: bytes}
}

// Pack encodes ASCII nucleotide symbols into a freshly allocated packed
// buffer. Symbols outside the IUPAC set encode as N.
func Pack(bases []byte) Packed {
	bytes := make([]byte, (len(bases)+1)>>1)
	for i, base := range bases {
		code := baseToCode[base]
		if i&1 == 0 {
			bytes[i>>1] = code << 4
		} else {
			bytes[i>>1] |= code
		}
	}
	return Packed{length: len(bases), bytes: bytes}
}

// Len returns the number of codes in the view.
func (p Packed) Len() int {
	return p.length
}

// Get returns the 4-bit code at the given index.
func (p Packed) Get(index int) byte {
	if index < 0 || index >= p.length {
		log.Panic("index out of range")
	}
	b := p.bytes[index>>1]
	if index&1 == 0 {
		return b >> 4
	}
	return b & 0xF
}

// Bases decodes the view into a fresh slice of ASCII symbols.
func (p Packed) Bases() []byte {
	dst := make([]byte, p.length)
	Decode(dst, p.bytes, p.length)
	return dst
}

// String returns the decoded symbols of the view.
func (p Packed) String() string {
	return DecodeString(p.bytes, p.length)
}
