package wal

import (
	"bufio"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
)

// WAL is an append-only, checksummed log. Every Append is flushed and fsynced
// before it returns.
type WAL struct {
	file       *os.File
	writer     *bufio.Writer
	path       string
	codec      codec
	currentLSN uint64
	stats      Stats
	logger     logging.Logger
	mu         sync.Mutex
}

// NewWAL opens (or creates) an uncompressed log in dataDir.
func NewWAL(dataDir string) (*WAL, error) {
	return open(dataDir, plainFileName, rawCodec{})
}

// NewCompressedWAL opens (or creates) a snappy-compressed log in dataDir.
func NewCompressedWAL(dataDir string) (*WAL, error) {
	return open(dataDir, snappyFileName, snappyCodec{})
}

func open(dataDir, name string, c codec) (*WAL, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	path := filepath.Join(dataDir, name)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	w := &WAL{
		file:   file,
		path:   path,
		codec:  c,
		logger: logging.DefaultLogger().With(logging.Component("wal")),
	}

	// Drop a torn tail left by a crash so new entries are not written after garbage.
	_, validEnd, err := w.scan()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to recover WAL: %w", err)
	}
	if err := file.Truncate(validEnd); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to trim WAL tail: %w", err)
	}
	if _, err := file.Seek(validEnd, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}
	w.writer = bufio.NewWriter(file)

	return w, nil
}

// SetLogger replaces the logger used for recovery warnings.
func (w *WAL) SetLogger(logger logging.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger = logger
}

// Append writes a new entry and returns its LSN.
func (w *WAL) Append(opType OpType, data []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentLSN == ^uint64(0) {
		return 0, fmt.Errorf("WAL LSN space exhausted")
	}

	stored := w.codec.encode(data)
	entry := Entry{
		LSN:       w.currentLSN + 1,
		OpType:    opType,
		Checksum:  crc32.ChecksumIEEE(stored),
		Timestamp: time.Now().Unix(),
	}

	if err := writeEntry(w.writer, &entry, stored); err != nil {
		return 0, fmt.Errorf("failed to write WAL entry: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush WAL: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync WAL: %w", err)
	}

	w.currentLSN = entry.LSN
	w.stats.Appends++
	w.stats.BytesRaw += uint64(len(data))
	w.stats.BytesStored += uint64(len(stored))

	return entry.LSN, nil
}

// ReadAll returns every valid entry. Reading stops quietly at the first torn or
// corrupt entry; everything before it is returned.
func (w *WAL) ReadAll() ([]*Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return nil, err
	}
	entries, _, err := w.scan()
	return entries, err
}

// scan reads the file from the start and returns the valid entries and the offset
// just past the last one. It also advances currentLSN.
func (w *WAL) scan() ([]*Entry, int64, error) {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}
	defer w.file.Seek(0, io.SeekEnd)

	reader := bufio.NewReader(w.file)
	var (
		entries []*Entry
		offset  int64
	)
	for {
		entry, stored, err := readEntry(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			w.logger.Warn("WAL tail unreadable, recovery stopped",
				logging.Count(len(entries)), logging.Error(err))
			break
		}
		if crc32.ChecksumIEEE(stored) != entry.Checksum {
			w.logger.Warn("WAL checksum mismatch, recovery stopped",
				logging.Uint64("lsn", entry.LSN), logging.Count(len(entries)))
			break
		}
		data, err := w.codec.decode(stored)
		if err != nil {
			w.logger.Warn("WAL payload undecodable, recovery stopped",
				logging.Uint64("lsn", entry.LSN), logging.Error(err))
			break
		}
		entry.Data = data

		entries = append(entries, entry)
		offset += int64(entryOverhead + len(stored))
		w.currentLSN = entry.LSN
	}
	return entries, offset, nil
}

// Replay calls handler for every valid entry in LSN order.
func (w *WAL) Replay(handler func(*Entry) error) error {
	entries, err := w.ReadAll()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := handler(entry); err != nil {
			return fmt.Errorf("failed to replay entry LSN=%d: %w", entry.LSN, err)
		}
	}
	return nil
}

// Truncate empties the log. Called after a successful checkpoint.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush WAL before truncate: %w", err)
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate WAL: %w", err)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync WAL: %w", err)
	}
	w.writer.Reset(w.file)
	w.currentLSN = 0
	return nil
}

// GetCurrentLSN returns the LSN of the last appended entry.
func (w *WAL) GetCurrentLSN() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentLSN
}

// Stats returns write statistics since the log was opened.
func (w *WAL) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Path returns the log file location.
func (w *WAL) Path() string {
	return w.path
}

// Close flushes and closes the log.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}
