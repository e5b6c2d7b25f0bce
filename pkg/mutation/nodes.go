package mutation

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
	"github.com/dd0wney/cluso-wayfinder/pkg/validation"
)

// NodeAttributes describes a node to create.
type NodeAttributes = validation.NodeRequest

// NodePatch describes changes to an existing node.
type NodePatch = validation.NodePatch

// DeleteResult reports what a node deletion removed.
type DeleteResult struct {
	NodeID       storage.NodeID   `json:"node_id"`
	RemovedEdges []storage.EdgeID `json:"removed_edges"`
	Version      uint64           `json:"version"`
}

func nodeFromRequest(req *validation.NodeRequest) storage.Node {
	t, _ := storage.ParseNodeType(req.Type)
	return storage.Node{
		ID:        storage.NodeID(req.ID),
		ShortName: req.ShortName,
		LongName:  req.LongName,
		Type:      t,
		Floor:     req.Floor,
		Building:  req.Building,
		X:         req.X,
		Y:         req.Y,
	}
}

// CreateNode validates attrs and adds a node with a freshly assigned ID.
func (s *Service) CreateNode(ctx context.Context, attrs NodeAttributes) (*storage.Node, error) {
	const op = "create_node"
	var created *storage.Node
	batch, err := s.commit(ctx, op, func(tx *storage.Tx) error {
		if err := validation.ValidateNodeRequest(&attrs); err != nil {
			return invalid(op, "node", attrs.ID, err)
		}
		var err error
		created, err = tx.CreateNode(nodeFromRequest(&attrs))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(eventsFor(batch)...)
	return created, nil
}

// UpdateNode applies patch to node id. The identifier itself cannot change.
// Moving a node recomputes the cost of its edges that have no explicit weight.
func (s *Service) UpdateNode(ctx context.Context, id storage.NodeID, patch NodePatch) (*storage.Node, error) {
	const op = "update_node"
	var updated *storage.Node
	batch, err := s.commit(ctx, op, func(tx *storage.Tx) error {
		if err := validation.ValidateNodePatch(&patch); err != nil {
			return invalid(op, "node", string(id), err)
		}
		if patch.ID != nil && storage.NodeID(*patch.ID) != id {
			return invalid(op, "node", string(id), fmt.Errorf("id: cannot change identifier to %q", *patch.ID))
		}
		n, err := tx.GetNode(id)
		if err != nil {
			return storage.NodeNotFoundError(op, id)
		}
		if patch.Empty() {
			updated = n
			return nil
		}
		applyPatch(n, &patch)
		updated, err = tx.ReplaceNode(*n)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(eventsFor(batch)...)
	return updated, nil
}

func applyPatch(n *storage.Node, p *NodePatch) {
	if p.ShortName != nil {
		n.ShortName = *p.ShortName
	}
	if p.LongName != nil {
		n.LongName = *p.LongName
	}
	if p.Type != nil {
		n.Type, _ = storage.ParseNodeType(*p.Type)
	}
	if p.Floor != nil {
		n.Floor = *p.Floor
	}
	if p.Building != nil {
		n.Building = *p.Building
	}
	if p.X != nil {
		n.X = *p.X
	}
	if p.Y != nil {
		n.Y = *p.Y
	}
}

// DeleteNode removes a node according to the service's delete policy.
func (s *Service) DeleteNode(ctx context.Context, id storage.NodeID) (*DeleteResult, error) {
	const op = "delete_node"
	result := &DeleteResult{NodeID: id}
	batch, err := s.commit(ctx, op, func(tx *storage.Tx) error {
		removed, err := tx.DeleteNode(id, s.policy == DeleteCascade)
		result.RemovedEdges = removed
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Version = batch.Version
	s.publish(eventsFor(batch)...)
	return result, nil
}
