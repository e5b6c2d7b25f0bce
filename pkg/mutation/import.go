package mutation

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-wayfinder/pkg/floorplan"
	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/pubsub"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// ImportResult summarises an imported floor plan.
type ImportResult struct {
	NodesCreated int    `json:"nodes_created"`
	EdgesCreated int    `json:"edges_created"`
	Version      uint64 `json:"version"`
}

// ImportPlan creates every node and edge of plan in a single transaction. Any
// failure, such as an ID already in the graph or an edge to an unknown node,
// aborts the whole import.
func (s *Service) ImportPlan(ctx context.Context, plan *floorplan.Plan) (*ImportResult, error) {
	const op = "import_plan"
	result := &ImportResult{}
	batch, err := s.commit(ctx, op, func(tx *storage.Tx) error {
		if err := plan.Validate(); err != nil {
			return invalid(op, "plan", "", err)
		}
		for i := range plan.Nodes {
			req := &plan.Nodes[i]
			if _, err := tx.CreateNode(nodeFromRequest(req)); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
			result.NodesCreated++
		}
		for i := range plan.Edges {
			req := &plan.Edges[i]
			_, err := tx.CreateEdge(storage.Edge{
				ID:     storage.EdgeID(req.ID),
				NodeA:  storage.NodeID(req.NodeA),
				NodeB:  storage.NodeID(req.NodeB),
				Weight: req.Weight,
			})
			if err != nil {
				return fmt.Errorf("edge %d: %w", i, err)
			}
			result.EdgesCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Version = batch.Version

	if result.NodesCreated+result.EdgesCreated > 0 {
		s.publish(pubsub.Event{
			Type:    pubsub.PlanImported,
			Count:   result.NodesCreated + result.EdgesCreated,
			Version: batch.Version,
			Time:    batch.CommittedAt,
		})
	}
	logging.FromContext(ctx, s.logger).Info("floor plan imported",
		logging.Int("nodes", result.NodesCreated),
		logging.Int("edges", result.EdgesCreated),
		logging.Any("sources", plan.Sources),
		logging.GraphVersion(batch.Version))
	return result, nil
}
