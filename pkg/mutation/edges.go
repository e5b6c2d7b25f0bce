package mutation

import (
	"context"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
	"github.com/dd0wney/cluso-wayfinder/pkg/validation"
)

// EdgeRequest describes an edge to create.
type EdgeRequest = validation.EdgeRequest

// CreateEdge connects two existing nodes. Without a weight the cost is the
// distance between them.
func (s *Service) CreateEdge(ctx context.Context, req EdgeRequest) (*storage.Edge, error) {
	const op = "create_edge"
	var created *storage.Edge
	batch, err := s.commit(ctx, op, func(tx *storage.Tx) error {
		if err := validation.ValidateEdgeRequest(&req); err != nil {
			return invalid(op, "edge", req.ID, err)
		}
		var err error
		created, err = tx.CreateEdge(storage.Edge{
			ID:     storage.EdgeID(req.ID),
			NodeA:  storage.NodeID(req.NodeA),
			NodeB:  storage.NodeID(req.NodeB),
			Weight: req.Weight,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(eventsFor(batch)...)
	return created, nil
}

// UpdateEdgeWeight sets or clears an edge's explicit weight.
func (s *Service) UpdateEdgeWeight(ctx context.Context, id storage.EdgeID, weight *float64) (*storage.Edge, error) {
	var updated *storage.Edge
	batch, err := s.commit(ctx, "update_edge", func(tx *storage.Tx) error {
		var err error
		updated, err = tx.SetEdgeWeight(id, weight)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(eventsFor(batch)...)
	return updated, nil
}

// DeleteEdge removes an edge.
func (s *Service) DeleteEdge(ctx context.Context, id storage.EdgeID) error {
	batch, err := s.commit(ctx, "delete_edge", func(tx *storage.Tx) error {
		return tx.DeleteEdge(id)
	})
	if err != nil {
		return err
	}
	s.publish(eventsFor(batch)...)
	return nil
}
