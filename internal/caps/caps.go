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

// Package caps takes a one-time snapshot of the processor capabilities that
// the accelerated block processors are tuned for. The snapshot is computed
// during package initialization, before any concurrent use of the engine can
// begin, so consumers that bind an implementation variant in their own init
// never observe a partially-initialized selection. The same hardware always
// produces the same selection.
package caps

import "golang.org/x/sys/cpu"

// Vector reports whether the processor has vector extensions wide enough
// that the block-oriented code paths pay off. The block processors
// themselves are portable Go; this only steers the dispatch.
var Vector = cpu.X86.HasSSSE3 || cpu.ARM64.HasASIMD
