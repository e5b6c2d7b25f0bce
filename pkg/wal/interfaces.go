package wal

// WALAppender appends entries to a log.
type WALAppender interface {
	// Append returns the LSN assigned to the entry.
	Append(opType OpType, data []byte) (uint64, error)
}

// WALReader reads entries back for recovery.
type WALReader interface {
	Replay(handler func(*Entry) error) error
}

// WALManager covers log lifecycle.
type WALManager interface {
	// Truncate removes all entries, typically after a checkpoint.
	Truncate() error
	Close() error
	GetCurrentLSN() uint64
}

// WriteAheadLog is the complete log contract used by the graph store.
type WriteAheadLog interface {
	WALAppender
	WALReader
	WALManager
}

var _ WriteAheadLog = (*WAL)(nil)
