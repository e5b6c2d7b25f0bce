package pathfinder

import (
	"strings"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// resolve finds the node a user means by name: an exact ID wins, then a
// case-insensitive short name, then a case-insensitive long name. Several
// matches at the same level are an error rather than a guess.
func resolve(g storage.Reader, name string) (storage.NodeID, error) {
	const op = "resolve"
	name = strings.TrimSpace(name)
	if name == "" {
		return "", storage.InvalidArgumentError(op, "node", "", "name must not be empty")
	}
	if n, err := g.GetNode(storage.NodeID(name)); err == nil {
		return n.ID, nil
	}

	nodes := g.GetAllNodes()
	for _, field := range []func(*storage.Node) string{
		func(n *storage.Node) string { return n.ShortName },
		func(n *storage.Node) string { return n.LongName },
	} {
		var matches []storage.NodeID
		for _, n := range nodes {
			if strings.EqualFold(field(n), name) {
				matches = append(matches, n.ID)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return "", storage.NewError(op).Entity("node", name).Kind(storage.KindInvalidArgument).
				Detail("ambiguous name matches %v", matches).Err()
		}
	}
	return "", storage.NewError(op).Entity("node", name).Kind(storage.KindNotFound).
		Detail("no node with that id or name").Err()
}
