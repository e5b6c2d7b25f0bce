package floorplan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-wayfinder/pkg/validation"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor HCL.
var ErrUnsupportedFormat = errors.New("unsupported floor plan format")

// hclPlanFile is the top-level structure of an HCL floor plan:
//
//	node "FHALL00101" {
//	  short_name = "Hall 1"
//	  long_name  = "Hallway 1, Level 1"
//	  type       = "HALL"
//	  floor      = "L1"
//	  building   = "Shapiro"
//	  x          = 1200
//	  y          = 800
//	}
//
//	edge "FHALL00101" "FELEV00101" {
//	  weight = 15
//	}
type hclPlanFile struct {
	Nodes []*hclNode `hcl:"node,block"`
	Edges []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	ID        string  `hcl:"id,label"`
	ShortName string  `hcl:"short_name"`
	LongName  string  `hcl:"long_name"`
	Type      string  `hcl:"type"`
	Floor     string  `hcl:"floor"`
	Building  string  `hcl:"building"`
	X         float64 `hcl:"x"`
	Y         float64 `hcl:"y"`
}

type hclEdge struct {
	NodeA  string   `hcl:"node_a,label"`
	NodeB  string   `hcl:"node_b,label"`
	ID     *string  `hcl:"id,optional"`
	Weight *float64 `hcl:"weight,optional"`
}

// IsPlanFile reports whether path has a floor plan extension.
func IsPlanFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".hcl":
		return true
	}
	return false
}

// LoadFile reads and validates one plan file, choosing the format by extension.
func LoadFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read floor plan: %w", err)
	}
	plan, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// LoadDir reads every plan file directly inside dir, in name order, and merges
// them into one plan.
func LoadDir(dir string) (*Plan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read floor plan dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsPlanFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	merged := &Plan{}
	for _, f := range files {
		p, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		merged.Merge(p)
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return merged, nil
}

// Parse decodes plan data. name selects the format and labels errors.
func Parse(name string, data []byte) (*Plan, error) {
	var (
		plan *Plan
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		plan, err = parseYAML(data)
	case ".hcl":
		plan, err = parseHCL(name, data)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	plan.Sources = []string{name}
	return plan, nil
}

func parseYAML(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var plan Plan
	if err := dec.Decode(&plan); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &plan, nil
}

func parseHCL(name string, data []byte) (*Plan, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl: %w", diags)
	}

	var parsed hclPlanFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl: %w", diags)
	}

	plan := &Plan{
		Nodes: make([]validation.NodeRequest, 0, len(parsed.Nodes)),
		Edges: make([]validation.EdgeRequest, 0, len(parsed.Edges)),
	}
	for _, n := range parsed.Nodes {
		plan.Nodes = append(plan.Nodes, validation.NodeRequest{
			ID:        n.ID,
			ShortName: n.ShortName,
			LongName:  n.LongName,
			Type:      n.Type,
			Floor:     n.Floor,
			Building:  n.Building,
			X:         n.X,
			Y:         n.Y,
		})
	}
	for _, e := range parsed.Edges {
		req := validation.EdgeRequest{NodeA: e.NodeA, NodeB: e.NodeB, Weight: e.Weight}
		if e.ID != nil {
			req.ID = *e.ID
		}
		plan.Edges = append(plan.Edges, req)
	}
	return plan, nil
}
