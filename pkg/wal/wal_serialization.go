package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// codec transforms payloads between their in-memory and on-disk forms.
type codec interface {
	encode(data []byte) []byte
	decode(stored []byte) ([]byte, error)
}

type rawCodec struct{}

func (rawCodec) encode(data []byte) []byte            { return data }
func (rawCodec) decode(stored []byte) ([]byte, error) { return stored, nil }

type snappyCodec struct{}

func (snappyCodec) encode(data []byte) []byte { return snappy.Encode(nil, data) }

func (snappyCodec) decode(stored []byte) ([]byte, error) {
	data, err := snappy.Decode(nil, stored)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return data, nil
}

var errTornEntry = errors.New("torn or corrupt entry")

// writeEntry writes entry with its stored payload.
// Format: [LSN:8][OpType:1][DataLen:4][Data:N][Checksum:4][Timestamp:8], little endian.
func writeEntry(w *bufio.Writer, entry *Entry, stored []byte) error {
	var header [13]byte
	binary.LittleEndian.PutUint64(header[0:8], entry.LSN)
	header[8] = byte(entry.OpType)
	binary.LittleEndian.PutUint32(header[9:13], uint32(len(stored)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(stored); err != nil {
		return err
	}

	var trailer [12]byte
	binary.LittleEndian.PutUint32(trailer[0:4], entry.Checksum)
	binary.LittleEndian.PutUint64(trailer[4:12], uint64(entry.Timestamp))
	_, err := w.Write(trailer[:])
	return err
}

// readEntry reads one entry and returns it together with its stored payload.
// io.EOF means a clean end of log; errTornEntry means the tail is unusable.
func readEntry(r *bufio.Reader) (*Entry, []byte, error) {
	var header [13]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, nil, io.EOF
		}
		return nil, nil, errTornEntry
	}

	entry := &Entry{
		LSN:    binary.LittleEndian.Uint64(header[0:8]),
		OpType: OpType(header[8]),
	}
	size := binary.LittleEndian.Uint32(header[9:13])
	if size > maxEntrySize {
		return nil, nil, errTornEntry
	}

	stored := make([]byte, size)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, nil, errTornEntry
	}

	var trailer [12]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return nil, nil, errTornEntry
	}
	entry.Checksum = binary.LittleEndian.Uint32(trailer[0:4])
	entry.Timestamp = int64(binary.LittleEndian.Uint64(trailer[4:12]))

	return entry, stored, nil
}
