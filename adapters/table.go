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

// DefaultProbes returns the built-in adapter probe table: the first
// ProbeLength bases of common library adapters, each anchored where the
// adapter is expected to show up in a read. The probes are deliberately
// rare enough in genomic sequence that exact anchored matching suffices.
func DefaultProbes() []Probe {
	return []Probe{
		{"Illumina Universal Adapter", "illumina", "AGATCGGAAGAG", End},
		{"Illumina Small RNA 3' Adapter", "illumina", "TGGAATTCTCGG", End},
		{"Illumina Small RNA 5' Adapter", "illumina", "GATCGTCGGACT", End},
		{"Nextera Transposase Sequence", "illumina", "CTGTCTCTTATA", End},
		{"PolyA", "all", "AAAAAAAAAAAA", End},
		{"PolyG", "illumina", "GGGGGGGGGGGG", End},
		{"Oxford Nanopore Ligation Kit Adapter", "nanopore", "AATGTACTTCGT", Start},
		{"Oxford Nanopore Rapid Adapter", "nanopore", "GCTTGGGTGTTT", Start},
	}
}
