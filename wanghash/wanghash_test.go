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

package wanghash

import (
	"math"
	"math/rand"
	"testing"
)

func TestReferenceValues(t *testing.T) {
	if h := Forward(0); h != 0x77cfa1eef01bca90 {
		t.Errorf("Forward(0) = %#x", h)
	}
	if h := Forward(math.MaxUint64); h != 0x1f89206e3f8ec794 {
		t.Errorf("Forward(MaxUint64) = %#x", h)
	}
	if h := Forward(1); h != 0x5bca7c69b794f8ce {
		t.Errorf("Forward(1) = %#x", h)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, key := range []uint64{0, 1, 2, 21, 265, math.MaxUint64, math.MaxUint64 - 1, 1 << 63, 0x123456789abcdef0} {
		if x := Inverse(Forward(key)); x != key {
			t.Errorf("Inverse(Forward(%#x)) = %#x", key, x)
		}
		if x := Forward(Inverse(key)); x != key {
			t.Errorf("Forward(Inverse(%#x)) = %#x", key, x)
		}
	}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000000; i++ {
		key := r.Uint64()
		if x := Inverse(Forward(key)); x != key {
			t.Fatalf("Inverse(Forward(%#x)) = %#x", key, x)
		}
	}
}

func TestNoCollisionsOnSample(t *testing.T) {
	r := rand.New(rand.NewSource(17))
	seen := make(map[uint64]uint64, 200000)
	for i := 0; i < 200000; i++ {
		key := r.Uint64()
		hash := Forward(key)
		if prev, ok := seen[hash]; ok && prev != key {
			t.Fatalf("collision: Forward(%#x) == Forward(%#x)", prev, key)
		}
		seen[hash] = key
	}
}
