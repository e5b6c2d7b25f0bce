package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
)

// Config controls how a Store is opened.
type Config struct {
	// Persister makes commits durable. Nil keeps the graph in memory only.
	Persister Persister
	Logger    logging.Logger
	// Clock stamps timestamps; defaults to time.Now in UTC.
	Clock func() time.Time
}

// Store is the authoritative building graph.
//
// Reads run under a shared lock and always see a fully committed state. Writes
// go through Update, which holds the exclusive lock for the whole
// stage-persist-apply sequence, so commits are serialized and atomic.
type Store struct {
	mu        sync.RWMutex
	state     *graphState
	persister Persister
	logger    logging.Logger
	clock     func() time.Time

	commits   uint64
	lastWrite time.Time
	closed    bool
}

var _ Reader = (*Store)(nil)

// NewMemoryStore returns an empty store without persistence.
func NewMemoryStore() *Store {
	s, _ := Open(Config{})
	return s
}

// Open creates a store and recovers the graph from the configured persister.
func Open(cfg Config) (*Store, error) {
	s := &Store{
		state:     newGraphState(),
		persister: cfg.Persister,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.With(logging.Component("storage"))
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	if s.persister == nil {
		return s, nil
	}

	timer := logging.StartTimer(s.logger, "graph recovered")
	snap, batches, err := s.persister.Load()
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	state, err := stateFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	replayed := 0
	for _, b := range batches {
		if b.Version <= state.version {
			continue
		}
		if b.Version != state.version+1 {
			return nil, fmt.Errorf("replay: expected batch %d, found %d", state.version+1, b.Version)
		}
		if err := state.applyBatch(b); err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		replayed++
	}
	s.state = state
	timer.End()
	s.logger.Info("graph loaded",
		logging.Count(len(state.nodes)),
		logging.Int("edges", len(state.edges)),
		logging.Int("replayed_batches", replayed),
		logging.GraphVersion(state.version))
	return s, nil
}

// View runs fn against a consistent snapshot of the committed graph. fn must not
// call Update.
func (s *Store) View(fn func(Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(reader{l: s.state})
}

// Update runs fn inside a write transaction. If fn returns an error, or the batch
// cannot be persisted, nothing changes. The returned batch describes what was
// committed; it is empty when fn staged nothing.
//
// ctx is only consulted before the write lock is taken: once a commit starts it
// runs to completion.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	tx := newTx(s.state, s.clock())
	if err := fn(tx); err != nil {
		return nil, err
	}
	if len(tx.ops) == 0 {
		return &Batch{Version: s.state.version}, nil
	}

	batch := &Batch{
		Version:     s.state.version + 1,
		NextNodeSeq: tx.nextNodeSeq,
		NextEdgeSeq: tx.nextEdgeSeq,
		Ops:         tx.ops,
		CommittedAt: tx.now,
	}
	if s.persister != nil {
		if err := s.persister.Persist(batch); err != nil {
			s.logger.Error("persist failed", logging.GraphVersion(batch.Version), logging.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
	}

	// Staged ops were checked against this same state, so this only fails on a bug.
	if err := s.state.applyBatch(batch); err != nil {
		s.logger.Error("apply failed", logging.GraphVersion(batch.Version), logging.Error(err))
		return nil, fmt.Errorf("apply batch %d: %w", batch.Version, err)
	}
	s.commits++
	s.lastWrite = tx.now
	return batch, nil
}

// Snapshot returns a full copy of the committed graph.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.state.snapshot()
	snap.TakenAt = s.clock()
	return snap
}

// Checkpoint writes a snapshot through the persister, if it supports it, so
// recovery no longer needs to replay the batches before it.
func (s *Store) Checkpoint() error {
	// The write lock keeps commits out while the snapshot and log are swapped.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	cp, ok := s.persister.(Checkpointer)
	if !ok {
		return nil
	}
	snap := s.state.snapshot()
	snap.TakenAt = s.clock()
	if err := cp.Checkpoint(snap); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	s.logger.Info("checkpoint written", logging.GraphVersion(snap.Version), logging.Count(len(snap.Nodes)))
	return nil
}

// Stats describes the committed graph.
func (s *Store) Stats() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Statistics{
		NodeCount: len(s.state.nodes),
		EdgeCount: len(s.state.edges),
		Version:   s.state.version,
		Commits:   s.commits,
		LastWrite: s.lastWrite,
	}
}

// Close releases the persister. Further updates fail with ErrStorageClosed;
// reads keep working on the last committed state.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.persister != nil {
		return s.persister.Close()
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Reader methods on the store each take the read lock for a single call. Use
// View when several reads must agree with each other.

func (s *Store) GetNode(id NodeID) (n *Node, err error) {
	err = s.View(func(r Reader) error { n, err = r.GetNode(id); return err })
	return n, err
}

func (s *Store) GetEdge(id EdgeID) (e *Edge, err error) {
	err = s.View(func(r Reader) error { e, err = r.GetEdge(id); return err })
	return e, err
}

func (s *Store) GetAllNodes() (nodes []*Node) {
	_ = s.View(func(r Reader) error { nodes = r.GetAllNodes(); return nil })
	return nodes
}

func (s *Store) GetAllEdges() (edges []*Edge) {
	_ = s.View(func(r Reader) error { edges = r.GetAllEdges(); return nil })
	return edges
}

func (s *Store) Neighbors(id NodeID) (out []Neighbor, err error) {
	err = s.View(func(r Reader) error { out, err = r.Neighbors(id); return err })
	return out, err
}

func (s *Store) IncidentEdges(id NodeID) (out []*Edge, err error) {
	err = s.View(func(r Reader) error { out, err = r.IncidentEdges(id); return err })
	return out, err
}

func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.nodes)
}

func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.edges)
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.version
}
