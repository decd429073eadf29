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

// Package qc runs the per-read quality-control engine: adapter probe
// matching, base and quality statistics, and canonical-fragment sampling
// for duplication estimation. Reads stream through a pargo pipeline so
// the pure per-read work runs in parallel; only the duplication
// estimator, whose sampling depends on read order, runs in the
// sequential collector stage.
package qc

import (
	"context"
	"io"

	"github.com/exascience/pargo/pipeline"

	"github.com/bioqc/seqqc/adapters"
	"github.com/bioqc/seqqc/dupes"
	"github.com/bioqc/seqqc/utils"
)

// A Read is one sequencing read with ASCII nucleotide symbols and
// printable Phred+33 quality scores. Every quality byte must lie in
// '!'..'~'; the fastq reader validates this and the bam reader produces
// it by construction, so the engine subtracts the offset unchecked.
type Read struct {
	Name      string
	Sequence  []byte
	Qualities []byte
}

// Base classes for composition counting: N and anything outside the
// alphabet share class 0, so ambiguous symbols never skew the ACGT
// counts.
const baseClasses = 5

var baseToClass [256]byte

func init() {
	for i, base := range []byte{'A', 'C', 'G', 'T'} {
		baseToClass[base] = byte(i + 1)
		baseToClass[base+'a'-'A'] = byte(i + 1)
	}
}

// Metrics accumulates per-read and per-base statistics.
type Metrics struct {
	Reads      uint64
	Bases      uint64
	BaseCounts [baseClasses]uint64 // N/other, A, C, G, T
	QualitySum uint64              // sum of Phred scores, offset removed
	MinLength  int
	MaxLength  int

	// Per probe, in adapter table order.
	AnchorHits []uint64 // exact match at the configured anchor
	ScanHits   []uint64 // exact occurrence anywhere in the read
}

func newMetrics(probes int) *Metrics {
	return &Metrics{
		MinLength:  -1,
		AnchorHits: make([]uint64, probes),
		ScanHits:   make([]uint64, probes),
	}
}

func (m *Metrics) merge(other *Metrics) {
	m.Reads += other.Reads
	m.Bases += other.Bases
	for i := range m.BaseCounts {
		m.BaseCounts[i] += other.BaseCounts[i]
	}
	m.QualitySum += other.QualitySum
	if other.MinLength >= 0 && (m.MinLength < 0 || other.MinLength < m.MinLength) {
		m.MinLength = other.MinLength
	}
	if other.MaxLength > m.MaxLength {
		m.MaxLength = other.MaxLength
	}
	for i := range m.AnchorHits {
		m.AnchorHits[i] += other.AnchorHits[i]
		m.ScanHits[i] += other.ScanHits[i]
	}
}

// GCFraction returns the fraction of unambiguous bases that are G or C.
func (m *Metrics) GCFraction() float64 {
	at := m.BaseCounts[1] + m.BaseCounts[4]
	gc := m.BaseCounts[2] + m.BaseCounts[3]
	if at+gc == 0 {
		return 0
	}
	return float64(gc) / float64(at+gc)
}

// MeanQuality returns the mean Phred score over all bases.
func (m *Metrics) MeanQuality() float64 {
	if m.Bases == 0 {
		return 0
	}
	return float64(m.QualitySum) / float64(m.Bases)
}

// An Engine accumulates quality-control results over a stream of reads.
type Engine struct {
	matcher   *adapters.Matcher
	estimator *dupes.Estimator
	metrics   *Metrics
}

// NewEngine returns an engine matching the given probes and sampling
// fragments of fragmentLength bases from every sampleEvery-th read.
func NewEngine(probes []adapters.Probe, fragmentLength, maxFragments, sampleEvery int) (*Engine, error) {
	matcher, err := adapters.NewMatcher(probes)
	if err != nil {
		return nil, err
	}
	estimator, err := dupes.NewEstimator(fragmentLength, maxFragments, sampleEvery)
	if err != nil {
		return nil, err
	}
	return &Engine{
		matcher:   matcher,
		estimator: estimator,
		metrics:   newMetrics(len(probes)),
	}, nil
}

// Metrics returns the accumulated statistics. The result must not be
// read while Run is in progress.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Estimator returns the duplication estimator. The result must not be
// read while Run is in progress.
func (e *Engine) Estimator() *dupes.Estimator {
	return e.estimator
}

// Probes returns the adapter probes the engine matches against, in
// metrics order.
func (e *Engine) Probes() []adapters.Probe {
	return e.matcher.Probes()
}

// TechnologyHits sums the anchor hits per interned technology label.
func (e *Engine) TechnologyHits() map[utils.Symbol]uint64 {
	hits := make(map[utils.Symbol]uint64)
	for i, probe := range e.matcher.Probes() {
		hits[utils.Intern(probe.Technology)] += e.metrics.AnchorHits[i]
	}
	return hits
}

type batch struct {
	reads   []*Read
	partial *Metrics
}

// readSource adapts a read-producing function to pipeline.Source.
type readSource struct {
	next  func() (*Read, error)
	batch []*Read
	err   error
}

// Err implements the corresponding method of pipeline.Source
func (src *readSource) Err() error {
	if src.err != io.EOF {
		return src.err
	}
	return nil
}

// Prepare implements the corresponding method of pipeline.Source
func (src *readSource) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (src *readSource) Fetch(size int) (fetched int) {
	if src.err != nil {
		return 0
	}
	if size <= 0 {
		size = 512
	}
	reads := make([]*Read, 0, size)
	for len(reads) < size {
		read, err := src.next()
		if err != nil {
			src.err = err
			break
		}
		reads = append(reads, read)
	}
	src.batch = reads
	return len(reads)
}

// Data implements the corresponding method of pipeline.Source
func (src *readSource) Data() interface{} {
	return src.batch
}

// Run feeds the engine from next, which returns one read at a time and
// io.EOF when the stream ends. It must not be called concurrently on the
// same engine.
func (e *Engine) Run(next func() (*Read, error)) error {
	source := &readSource{next: next}
	var p pipeline.Pipeline
	p.Source(source)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			reads := data.([]*Read)
			return &batch{reads: reads, partial: e.processBatch(reads)}
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			b := data.(*batch)
			e.metrics.merge(b.partial)
			for _, read := range b.reads {
				e.estimator.AddRead(read.Sequence)
			}
			return data
		})),
	)
	p.Run()
	return p.Err()
}

// processBatch computes the order-independent statistics for a batch. It
// only reads shared state, so batches can be processed in parallel.
func (e *Engine) processBatch(reads []*Read) *Metrics {
	partial := newMetrics(len(e.matcher.Probes()))
	for _, read := range reads {
		partial.Reads++
		partial.Bases += uint64(len(read.Sequence))
		if partial.MinLength < 0 || len(read.Sequence) < partial.MinLength {
			partial.MinLength = len(read.Sequence)
		}
		if len(read.Sequence) > partial.MaxLength {
			partial.MaxLength = len(read.Sequence)
		}
		for _, base := range read.Sequence {
			partial.BaseCounts[baseToClass[base]]++
		}
		for _, quality := range read.Qualities {
			partial.QualitySum += uint64(quality - 33)
		}
		hits := e.matcher.Match(read.Sequence)
		for probe, ok := hits.NextSet(0); ok; probe, ok = hits.NextSet(probe + 1) {
			partial.AnchorHits[probe]++
		}
		for probe, position := range e.matcher.Scan(read.Sequence) {
			if position >= 0 {
				partial.ScanHits[probe]++
			}
		}
	}
	return partial
}
