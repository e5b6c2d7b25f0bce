package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/wal"
)

const snapshotFile = "snapshot.json"

// WALOptions configures a WALPersister.
type WALOptions struct {
	// Compress stores log records snappy-compressed.
	Compress bool
	Logger   logging.Logger
}

// WALPersister keeps a snapshot file plus a write-ahead log of batches committed
// since that snapshot.
type WALPersister struct {
	dir    string
	log    *wal.WAL
	logger logging.Logger
	mu     sync.Mutex
}

var (
	_ Persister    = (*WALPersister)(nil)
	_ Checkpointer = (*WALPersister)(nil)
)

// NewWALPersister opens (or creates) a persister rooted at dir.
func NewWALPersister(dir string, opts WALOptions) (*WALPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("wal_persister"))

	var (
		log *wal.WAL
		err error
	)
	if opts.Compress {
		log, err = wal.NewCompressedWAL(dir)
	} else {
		log, err = wal.NewWAL(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("open wal: %w", err)
	}
	log.SetLogger(logger)

	return &WALPersister{dir: dir, log: log, logger: logger}, nil
}

// Load reads the snapshot and the batches logged after it.
func (p *WALPersister) Load() (*Snapshot, []*Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap, err := p.readSnapshot()
	if err != nil {
		return nil, nil, err
	}

	var batches []*Batch
	err = p.log.Replay(func(entry *wal.Entry) error {
		if entry.OpType != wal.OpCommit {
			return nil
		}
		b, err := UnmarshalBatch(entry.Data)
		if err != nil {
			return fmt.Errorf("lsn %d: %w", entry.LSN, err)
		}
		if snap != nil && b.Version <= snap.Version {
			return nil
		}
		batches = append(batches, b)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("replay wal: %w", err)
	}
	return snap, batches, nil
}

func (p *WALPersister) readSnapshot() (*Snapshot, error) {
	path := filepath.Join(p.dir, snapshotFile)
	r, err := mmap.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer r.Close()

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil && r.Len() > 0 {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(buf, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	p.logger.Debug("snapshot read", logging.GraphVersion(snap.Version), logging.Count(len(snap.Nodes)))
	return &snap, nil
}

// Persist appends the batch to the log and syncs it.
func (p *WALPersister) Persist(b *Batch) error {
	data, err := b.Marshal()
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.log.Append(wal.OpCommit, data); err != nil {
		return err
	}
	return nil
}

// Checkpoint atomically replaces the snapshot file and then empties the log.
// A crash between the two steps is harmless: batches already covered by the
// snapshot are skipped on load.
func (p *WALPersister) Checkpoint(s *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	final := filepath.Join(p.dir, snapshotFile)
	tmp := final + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	if err := p.log.Truncate(); err != nil {
		return fmt.Errorf("truncate wal: %w", err)
	}
	p.logger.Info("snapshot written",
		logging.GraphVersion(s.Version),
		logging.Int("bytes", len(data)))
	return nil
}

// LogStats reports the log's size counters.
func (p *WALPersister) LogStats() wal.Stats {
	return p.log.Stats()
}

// Close closes the log.
func (p *WALPersister) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log.Close()
}
