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

package cmd

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bioqc/seqqc/adapters"
	"github.com/bioqc/seqqc/bam"
	"github.com/bioqc/seqqc/dupes"
	"github.com/bioqc/seqqc/fastq"
	"github.com/bioqc/seqqc/qc"
	"github.com/bioqc/seqqc/sequence"
)

// QcHelp is the help string for this command.
const QcHelp = "qc parameters:\n" +
	"seqqc qc sequencing-file\n" +
	"[--fragment-length number]\n" +
	"[--max-fragments number]\n" +
	"[--sample-every number]\n" +
	"[--min-fraction fraction]\n" +
	"[--log-path path]\n"

// Qc implements the seqqc qc command.
func Qc() error {
	var (
		fragmentLength, maxFragments, sampleEvery int
		minFraction                               float64
		logPath                                   string
	)

	var flags flag.FlagSet
	flags.IntVar(&fragmentLength, "fragment-length", dupes.DefaultFragmentLength, "length of the sampled fragments (odd, at most 31)")
	flags.IntVar(&maxFragments, "max-fragments", dupes.DefaultMaxFragments, "maximum number of distinct fragments to track")
	flags.IntVar(&sampleEvery, "sample-every", dupes.DefaultSampleEvery, "sample fragments from every nth read")
	flags.Float64Var(&minFraction, "min-fraction", 0.0001, "fraction of sampled fragments above which a fragment is reported")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 3, QcHelp)

	input := getFilename(os.Args[2], QcHelp)

	setLogOutput(logPath)

	engine, err := qc.NewEngine(adapters.DefaultProbes(), fragmentLength, maxFragments, sampleEvery)
	if err != nil {
		return err
	}

	log.Println("Processing", input)

	switch strings.ToLower(filepath.Ext(input)) {
	case ".bam":
		err = runBam(engine, input)
	default:
		err = runFastq(engine, input)
	}
	if err != nil {
		return err
	}

	report(engine, minFraction)
	return nil
}

func runBam(engine *qc.Engine, path string) error {
	reader, err := bam.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()
	return engine.Run(func() (*qc.Read, error) {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}
		qualities := make([]byte, len(record.Qual))
		sequence.DecodeQualities(qualities, record.Qual, len(record.Qual))
		return &qc.Read{
			Name:      record.Name,
			Sequence:  record.Seq.Bases(),
			Qualities: qualities,
		}, nil
	})
}

func runFastq(engine *qc.Engine, path string) error {
	reader, err := fastq.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()
	return engine.Run(func() (*qc.Read, error) {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}
		return &qc.Read{
			Name:      record.Name,
			Sequence:  record.Sequence,
			Qualities: record.Qualities,
		}, nil
	})
}

var baseNames = [...]string{"N", "A", "C", "G", "T"}

func report(engine *qc.Engine, minFraction float64) {
	metrics := engine.Metrics()
	estimator := engine.Estimator()

	fmt.Println("run id:", estimator.RunID())
	fmt.Println("reads:", metrics.Reads)
	fmt.Println("bases:", metrics.Bases)
	if metrics.Reads > 0 {
		fmt.Println("read length:", metrics.MinLength, "-", metrics.MaxLength)
	}
	for i, name := range baseNames {
		fmt.Printf("%v: %v\n", name, metrics.BaseCounts[i])
	}
	fmt.Printf("gc content: %.2f%%\n", 100*metrics.GCFraction())
	fmt.Printf("mean quality: %.2f\n", metrics.MeanQuality())

	fmt.Println()
	fmt.Println("adapter probes:")
	for i, probe := range engine.Probes() {
		fmt.Printf("  %v (%v, %v): %v anchored, %v anywhere\n",
			probe.Name, probe.Technology, probe.Anchor, metrics.AnchorHits[i], metrics.ScanHits[i])
	}

	fmt.Println()
	fmt.Println("duplication:")
	fmt.Println("  sampled reads:", estimator.SampledSequences(), "of", estimator.Sequences())
	fmt.Println("  fragments:", estimator.TotalFragments())
	fmt.Println("  distinct fragments:", estimator.UniqueFragments())
	if total := estimator.TotalFragments(); total > 0 {
		duplication := 1 - float64(estimator.UniqueFragments())/float64(total)
		fmt.Printf("  estimated duplication: %.2f%%\n", 100*duplication)
	}
	if overrepresented := estimator.Overrepresented(minFraction); len(overrepresented) > 0 {
		fmt.Println()
		fmt.Println("overrepresented fragments:")
		for _, fragment := range overrepresented {
			fmt.Printf("  %v: %v (%.4f%%)\n", fragment.Sequence, fragment.Count, 100*fragment.Fraction)
		}
	}
}
