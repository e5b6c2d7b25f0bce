package mutation

import (
	"fmt"
	"strings"
)

// DeletePolicy decides what happens to a node's edges when it is deleted.
type DeletePolicy string

const (
	// DeleteReject refuses to delete a node that still has edges.
	DeleteReject DeletePolicy = "reject"
	// DeleteCascade deletes the node's edges in the same transaction.
	DeleteCascade DeletePolicy = "cascade"
)

// ParseDeletePolicy accepts "reject" or "cascade" in any case. Empty means reject.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DeleteReject, nil
	case DeleteReject, DeleteCascade:
		return p, nil
	default:
		return "", fmt.Errorf("unknown delete policy %q (want reject or cascade)", s)
	}
}
