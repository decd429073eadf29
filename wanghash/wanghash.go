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

// Package wanghash implements Thomas Wang's 64-bit integer hash and its
// exact inverse. The hash is a bijection over the full 64-bit space, so a
// data structure that needs to recover its keys can store only hash values
// and reconstruct the key with Inverse on demand.
package wanghash

// Forward returns the Thomas Wang 64-bit hash of key.
func Forward(key uint64) uint64 {
	key = (^key) + (key << 21) // key = (key << 21) - key - 1
	key = key ^ (key >> 24)
	key = (key + (key << 3)) + (key << 8) // key * 265
	key = key ^ (key >> 14)
	key = (key + (key << 2)) + (key << 4) // key * 21
	key = key ^ (key >> 28)
	key = key + (key << 31)
	return key
}

// The multiplications by 265 and 21 in Forward are undone by multiplying
// with their multiplicative inverses modulo 2^64. Both constants are odd,
// so these inverses exist.
const (
	inverse265 = 15244667743933553977
	inverse21  = 14933078535860113213
)

// Inverse returns the key that Forward maps to hash. It undoes the stages
// of Forward in reverse order: Inverse(Forward(x)) == x for all x.
func Inverse(hash uint64) uint64 {
	key := hash

	// Invert key = key + (key << 31)
	tmp := key - (key << 31)
	key = key - (tmp << 31)

	// Invert key = key ^ (key >> 28)
	tmp = key ^ key>>28
	key = key ^ tmp>>28

	// Invert key *= 21
	key *= inverse21

	// Invert key = key ^ (key >> 14)
	tmp = key ^ key>>14
	tmp = key ^ tmp>>14
	tmp = key ^ tmp>>14
	key = key ^ tmp>>14

	// Invert key *= 265
	key *= inverse265

	// Invert key = key ^ (key >> 24)
	tmp = key ^ key>>24
	key = key ^ tmp>>24

	// Invert key = (^key) + (key << 21)
	tmp = ^key
	tmp = ^(key - (tmp << 21))
	tmp = ^(key - (tmp << 21))
	key = ^(key - (tmp << 21))

	return key
}
