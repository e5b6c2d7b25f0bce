package storage

// Persister makes committed batches durable.
//
// Persist is called under the store's write lock before a batch becomes visible;
// if it fails the commit is abandoned. Load is called once by Open and returns the
// latest snapshot (nil for an empty graph) plus any batches committed after it, in
// version order.
type Persister interface {
	Load() (*Snapshot, []*Batch, error)
	Persist(b *Batch) error
	Close() error
}

// Checkpointer is implemented by persisters that can compact their history into
// a snapshot.
type Checkpointer interface {
	Checkpoint(s *Snapshot) error
}
