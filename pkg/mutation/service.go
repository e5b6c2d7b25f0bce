package mutation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/metrics"
	"github.com/dd0wney/cluso-wayfinder/pkg/pubsub"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Config wires a Service to its collaborators. Only the store is required.
type Config struct {
	DeletePolicy DeletePolicy
	Logger       logging.Logger
	Metrics      *metrics.Registry
	// Events receives one Event per committed change on pubsub.TopicGraphChanges.
	Events *pubsub.PubSub
}

// Service validates and applies graph changes. Every method is atomic: it
// either commits completely or leaves the graph untouched.
type Service struct {
	store   *storage.Store
	policy  DeletePolicy
	logger  logging.Logger
	metrics *metrics.Registry
	events  *pubsub.PubSub
}

// NewService creates a mutation service over store.
func NewService(store *storage.Store, cfg Config) *Service {
	s := &Service{
		store:   store,
		policy:  cfg.DeletePolicy,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		events:  cfg.Events,
	}
	if s.policy == "" {
		s.policy = DeleteReject
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.With(logging.Component("mutation"))
	return s
}

// DeletePolicy returns the policy applied by DeleteNode.
func (s *Service) DeletePolicy() DeletePolicy { return s.policy }

// commit runs fn in a store transaction and takes care of metrics, logging and
// change events.
func (s *Service) commit(ctx context.Context, op string, fn func(*storage.Tx) error) (*storage.Batch, error) {
	logger := logging.FromContext(ctx, s.logger).With(logging.Operation(op))
	start := time.Now()

	batch, err := s.store.Update(ctx, fn)
	elapsed := time.Since(start)

	status := statusOf(err)
	if s.metrics != nil {
		s.metrics.RecordMutation(op, status, elapsed)
	}

	if err != nil {
		switch status {
		case statusCanceled:
			logger.Info("mutation canceled", logging.Error(err))
		case storage.KindUnknown.String():
			logger.Error("mutation failed", logging.Error(err), logging.Latency(elapsed))
		default:
			logger.Info("mutation rejected", logging.Kind(status), logging.Error(err))
		}
		return nil, err
	}

	if len(batch.Ops) > 0 {
		logger.Info("mutation committed",
			logging.GraphVersion(batch.Version),
			logging.Count(len(batch.Ops)),
			logging.Latency(elapsed))
		if s.metrics != nil {
			st := s.store.Stats()
			s.metrics.SetGraphSize(st.NodeCount, st.EdgeCount, st.Version)
		}
	}
	return batch, nil
}

const statusCanceled = "canceled"

// statusOf labels the outcome of a commit for metrics and logs.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusCanceled
	}
	return storage.KindOf(err).String()
}

// publish announces events for a committed batch.
func (s *Service) publish(events ...pubsub.Event) {
	if s.events == nil {
		return
	}
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.events.Publish(pubsub.TopicGraphChanges, e)
		if s.metrics != nil {
			s.metrics.RecordChangeEvent(string(e.Type))
		}
	}
}

// eventsFor turns each op of a batch into one change event.
func eventsFor(b *storage.Batch) []pubsub.Event {
	out := make([]pubsub.Event, 0, len(b.Ops))
	for _, op := range b.Ops {
		e := pubsub.Event{Version: b.Version, Time: b.CommittedAt}
		switch op.Kind {
		case storage.OpCreateNode:
			e.Type, e.NodeID = pubsub.NodeCreated, string(op.Node.ID)
		case storage.OpUpdateNode:
			e.Type, e.NodeID = pubsub.NodeUpdated, string(op.Node.ID)
		case storage.OpDeleteNode:
			e.Type, e.NodeID = pubsub.NodeDeleted, string(op.NodeID)
		case storage.OpCreateEdge:
			e.Type, e.EdgeID = pubsub.EdgeCreated, string(op.Edge.ID)
		case storage.OpUpdateEdge:
			e.Type, e.EdgeID = pubsub.EdgeUpdated, string(op.Edge.ID)
		case storage.OpDeleteEdge:
			e.Type, e.EdgeID = pubsub.EdgeDeleted, string(op.EdgeID)
		default:
			continue
		}
		out = append(out, e)
	}
	return out
}

func invalid(op, entity, id string, err error) error {
	return storage.NewError(op).Entity(entity, id).Kind(storage.KindInvalidArgument).
		Detail("%v", err).Err()
}
