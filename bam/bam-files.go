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

// Package bam reads alignment records from uncompressed BAM files, the
// format produced by basecallers that skip the BGZF compression layer.
// Only the fields the quality-control engine needs are extracted: read
// name, packed sequence, and raw quality scores. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
package bam

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bioqc/seqqc/sequence"
)

// Field offsets within an alignment record, relative to the byte after
// block_size.
const (
	refIDIndex     = 0
	posIndex       = 4
	lReadNameIndex = posIndex + 4
	mapqIndex      = lReadNameIndex + 1
	binIndex       = mapqIndex + 1
	nCigarOpIndex  = binIndex + 2
	flagIndex      = nCigarOpIndex + 2
	lSeqIndex      = flagIndex + 2
	nextRefIDIndex = lSeqIndex + 4
	nextPosIndex   = nextRefIDIndex + 4
	tlenIndex      = nextPosIndex + 4
	readNameIndex  = tlenIndex + 4
)

// A Record is one alignment record. Seq and Qual are views into the
// reader's memory mapping and stay valid until the reader is closed.
// Qual holds raw Phred scores without the printable-ASCII offset.
type Record struct {
	Name string
	Flag uint16
	Seq  sequence.Packed
	Qual []byte
}

// A Reader iterates over the alignment records of an uncompressed BAM
// file. The file is memory-mapped read-only for the lifetime of the
// reader.
type Reader struct {
	file *os.File
	data []byte
	pos  int
}

// Open memory-maps the given uncompressed BAM file and positions the
// reader at its first alignment record.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if stat.Size() < 4 {
		_ = file.Close()
		return nil, fmt.Errorf("%v is not a BAM file", path)
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	reader := &Reader{file: file, data: data}
	if err := reader.skipHeader(); err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("invalid BAM header in %v: %v", path, err)
	}
	return reader, nil
}

// Close unmaps and closes the underlying file. Records returned by Read
// must not be used afterwards.
func (reader *Reader) Close() error {
	err := unix.Munmap(reader.data)
	reader.data = nil
	if cerr := reader.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (reader *Reader) skipHeader() error {
	if string(reader.data[:4]) != "BAM\x01" {
		return fmt.Errorf("missing magic bytes")
	}
	reader.pos = 4
	lText, err := reader.uint32Field("l_text")
	if err != nil {
		return err
	}
	if err := reader.skip(int(lText), "header text"); err != nil {
		return err
	}
	nRef, err := reader.uint32Field("n_ref")
	if err != nil {
		return err
	}
	for i := uint32(0); i < nRef; i++ {
		lName, err := reader.uint32Field("l_name")
		if err != nil {
			return err
		}
		if err := reader.skip(int(lName)+4, "reference entry"); err != nil {
			return err
		}
	}
	return nil
}

func (reader *Reader) uint32Field(name string) (uint32, error) {
	if reader.pos+4 > len(reader.data) {
		return 0, fmt.Errorf("truncated %v field", name)
	}
	value := binary.LittleEndian.Uint32(reader.data[reader.pos : reader.pos+4])
	reader.pos += 4
	return value, nil
}

func (reader *Reader) skip(n int, what string) error {
	if reader.pos+n > len(reader.data) {
		return fmt.Errorf("truncated %v", what)
	}
	reader.pos += n
	return nil
}

// Read returns the next alignment record, or io.EOF at the end of the
// file.
func (reader *Reader) Read() (*Record, error) {
	if reader.pos == len(reader.data) {
		return nil, io.EOF
	}
	blockSize, err := reader.uint32Field("block_size")
	if err != nil {
		return nil, err
	}
	if reader.pos+int(blockSize) > len(reader.data) {
		return nil, fmt.Errorf("truncated alignment record")
	}
	record := reader.data[reader.pos : reader.pos+int(blockSize)]
	reader.pos += int(blockSize)
	if len(record) < readNameIndex {
		return nil, fmt.Errorf("alignment record of %v bytes is too small", len(record))
	}
	lReadName := int(record[lReadNameIndex])
	nCigarOp := int(binary.LittleEndian.Uint16(record[nCigarOpIndex : nCigarOpIndex+2]))
	flag := binary.LittleEndian.Uint16(record[flagIndex : flagIndex+2])
	lSeq := int(int32(binary.LittleEndian.Uint32(record[lSeqIndex : lSeqIndex+4])))
	seqIndex := readNameIndex + lReadName + 4*nCigarOp
	qualIndex := seqIndex + ((lSeq + 1) >> 1)
	if lSeq < 0 || lReadName < 1 || qualIndex+lSeq > len(record) {
		return nil, fmt.Errorf("inconsistent alignment record field lengths")
	}
	return &Record{
		Name: string(record[readNameIndex : readNameIndex+lReadName-1]),
		Flag: flag,
		Seq:  sequence.NewPacked(record[seqIndex:qualIndex], lSeq),
		Qual: record[qualIndex : qualIndex+lSeq],
	}, nil
}
