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

// Package fastq reads four-line FASTQ records.
package fastq

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// maxLineLength bounds a single FASTQ line; nanopore reads can run into
// the megabases.
const maxLineLength = 64 * 1024 * 1024

// A Record is one FASTQ record. Sequence holds ASCII nucleotide symbols,
// Qualities the printable Phred+33 scores, both of equal length. The
// slices are owned by the record.
type Record struct {
	Name      string
	Sequence  []byte
	Qualities []byte
}

// A Reader iterates over the records of a FASTQ stream.
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File
	line    int
}

// NewReader returns a Reader for the given stream.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Reader{scanner: scanner}
}

// Open returns a Reader for the given file.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	reader := NewReader(file)
	reader.file = file
	return reader, nil
}

// Close closes the underlying file, if the reader was created with Open.
func (reader *Reader) Close() error {
	if reader.file == nil {
		return nil
	}
	return reader.file.Close()
}

func (reader *Reader) nextLine() ([]byte, error) {
	if !reader.scanner.Scan() {
		if err := reader.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	reader.line++
	return reader.scanner.Bytes(), nil
}

// Read returns the next record, or io.EOF at the end of the stream.
func (reader *Reader) Read() (*Record, error) {
	nameLine, err := reader.nextLine()
	if err != nil {
		return nil, err
	}
	if len(nameLine) == 0 || nameLine[0] != '@' {
		return nil, fmt.Errorf("fastq: line %v: record does not start with @", reader.line)
	}
	// The scanner may overwrite this line's bytes on the next Scan, so
	// take the copy before reading on.
	name := string(nameLine[1:])
	seq, err := reader.nextLine()
	if err != nil {
		return nil, fmt.Errorf("fastq: line %v: truncated record", reader.line)
	}
	sequence := append([]byte(nil), seq...)
	plus, err := reader.nextLine()
	if err != nil || len(plus) == 0 || plus[0] != '+' {
		return nil, fmt.Errorf("fastq: line %v: missing + separator", reader.line)
	}
	qual, err := reader.nextLine()
	if err != nil {
		return nil, fmt.Errorf("fastq: line %v: truncated record", reader.line)
	}
	if len(qual) != len(sequence) {
		return nil, fmt.Errorf("fastq: line %v: sequence and quality lengths differ (%v vs %v)", reader.line, len(sequence), len(qual))
	}
	for _, score := range qual {
		if score < '!' || score > '~' {
			return nil, fmt.Errorf("fastq: line %v: quality score %v outside the printable Phred+33 range", reader.line, score)
		}
	}
	return &Record{
		Name:      name,
		Sequence:  sequence,
		Qualities: append([]byte(nil), qual...),
	}, nil
}
