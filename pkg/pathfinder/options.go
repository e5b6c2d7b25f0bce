package pathfinder

import (
	"strings"

	"github.com/dd0wney/cluso-wayfinder/pkg/algorithms"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Options controls which intermediate stops a route may use.
type Options = algorithms.Options

// ParseOptions builds Options from transport parameters. Each avoid entry may
// itself be a comma separated list of node types.
func ParseOptions(avoid []string, transitOnly bool) (Options, error) {
	opts := Options{TransitOnly: transitOnly}
	for _, raw := range avoid {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, ok := storage.ParseNodeType(part)
			if !ok {
				return Options{}, storage.InvalidArgumentError("parse_options", "node_type", part, "unknown node type")
			}
			opts.Avoid = append(opts.Avoid, t)
		}
	}
	return opts, nil
}
