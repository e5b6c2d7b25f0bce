// Command wayfinder checks floor plans and plans routes over them offline.
//
//	wayfinder check   -plan plans/
//	wayfinder route   -plan plans/ -from "Main Entrance" -to Radiology
//	wayfinder nearest -plan plans/ -from MEXIT00101 -type REST
//	wayfinder nodes   -plan plans/ -floor L2
//	wayfinder watch   tcp://127.0.0.1:7410
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dd0wney/cluso-wayfinder/pkg/floorplan"
	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

var errUsage = errors.New("usage")

type planList []string

func (p *planList) String() string     { return strings.Join(*p, ",") }
func (p *planList) Set(v string) error { *p = append(*p, v); return nil }

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	err := run(context.Background(), os.Args[1], os.Args[2:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		usage(os.Stderr)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: wayfinder <command> [flags]

commands:
  check    validate floor plans and report disconnected areas
  route    plan a route between two nodes, by ID or name
  nearest  find the closest node of a type
  nodes    list nodes
  watch    follow a server's change feed`)
}

func run(ctx context.Context, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "check":
		return runCheck(ctx, args, out)
	case "route":
		return runRoute(ctx, args, out)
	case "nearest":
		return runNearest(ctx, args, out)
	case "nodes":
		return runNodes(ctx, args, out)
	case "watch":
		return runWatch(args)
	case "help", "-h", "--help":
		usage(out)
		return nil
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

// loadGraph imports every plan into a fresh in-memory store.
func loadGraph(ctx context.Context, paths []string) (*storage.Store, *pathfinder.Service, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("at least one -plan is required: %w", errUsage)
	}
	plan := &floorplan.Plan{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, err
		}
		var p *floorplan.Plan
		if info.IsDir() {
			p, err = floorplan.LoadDir(path)
		} else {
			p, err = floorplan.LoadFile(path)
		}
		if err != nil {
			return nil, nil, err
		}
		plan.Merge(p)
	}

	store := storage.NewMemoryStore()
	if _, err := mutation.NewService(store, mutation.Config{}).ImportPlan(ctx, plan); err != nil {
		return nil, nil, err
	}
	return store, pathfinder.NewService(store, pathfinder.Config{}), nil
}

func runCheck(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var plans planList
	fs.Var(&plans, "plan", "floor plan file or directory (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	plans = append(plans, fs.Args()...)

	store, finder, err := loadGraph(ctx, plans)
	if err != nil {
		return err
	}
	st := store.Stats()
	result := finder.Components()
	fmt.Fprintln(out, renderCheck(st, result))
	if !result.Connected() {
		return fmt.Errorf("graph has %d disconnected areas", len(result.Components))
	}
	return nil
}

type routeFlags struct {
	plans       planList
	from        string
	avoid       string
	transitOnly bool
}

func (f *routeFlags) register(fs *flag.FlagSet) {
	fs.Var(&f.plans, "plan", "floor plan file or directory (repeatable)")
	fs.StringVar(&f.from, "from", "", "start node ID or name")
	fs.StringVar(&f.avoid, "avoid", "", "comma separated node types not to pass through")
	fs.BoolVar(&f.transitOnly, "transit-only", false, "only pass through hallways, elevators, stairs and exits")
}

func (f *routeFlags) options() (pathfinder.Options, error) {
	return pathfinder.ParseOptions([]string{f.avoid}, f.transitOnly)
}

func runRoute(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("route", flag.ContinueOnError)
	var rf routeFlags
	rf.register(fs)
	to := fs.String("to", "", "destination node ID or name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rf.from == "" || *to == "" {
		return fmt.Errorf("-from and -to are required: %w", errUsage)
	}
	opts, err := rf.options()
	if err != nil {
		return err
	}
	_, finder, err := loadGraph(ctx, rf.plans)
	if err != nil {
		return err
	}
	route, err := finder.GetPathByName(ctx, rf.from, *to, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderRoute(route))
	return nil
}

func runNearest(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("nearest", flag.ContinueOnError)
	var rf routeFlags
	rf.register(fs)
	typ := fs.String("type", "", "node type to look for, such as REST")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, ok := storage.ParseNodeType(*typ)
	if rf.from == "" || !ok {
		return fmt.Errorf("-from and a valid -type are required: %w", errUsage)
	}
	opts, err := rf.options()
	if err != nil {
		return err
	}
	_, finder, err := loadGraph(ctx, rf.plans)
	if err != nil {
		return err
	}
	source, err := finder.Resolve(rf.from)
	if err != nil {
		return err
	}
	route, err := finder.Nearest(ctx, source, t, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderRoute(route))
	return nil
}

func runNodes(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("nodes", flag.ContinueOnError)
	var plans planList
	fs.Var(&plans, "plan", "floor plan file or directory (repeatable)")
	typ := fs.String("type", "", "only nodes of this type")
	floor := fs.String("floor", "", "only nodes on this floor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var want storage.NodeType
	if *typ != "" {
		var ok bool
		if want, ok = storage.ParseNodeType(*typ); !ok {
			return fmt.Errorf("unknown node type %q", *typ)
		}
	}
	store, _, err := loadGraph(ctx, append(plans, fs.Args()...))
	if err != nil {
		return err
	}

	var nodes []*storage.Node
	for _, n := range store.GetAllNodes() {
		if want != "" && n.Type != want {
			continue
		}
		if *floor != "" && !strings.EqualFold(n.Floor, *floor) {
			continue
		}
		nodes = append(nodes, n)
	}
	fmt.Fprintln(out, renderNodes(nodes))
	return nil
}
