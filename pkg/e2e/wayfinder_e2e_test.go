package e2e

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.nanomsg.org/mangos/v3"

	"github.com/dd0wney/cluso-wayfinder/pkg/api"
	"github.com/dd0wney/cluso-wayfinder/pkg/changefeed"
	"github.com/dd0wney/cluso-wayfinder/pkg/graphql"
	"github.com/dd0wney/cluso-wayfinder/pkg/health"
	"github.com/dd0wney/cluso-wayfinder/pkg/metrics"
	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/pubsub"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

var feedSeq atomic.Int64

// stack is a wayfinder wired the way the server binary wires it, over a WAL in
// dataDir.
type stack struct {
	store  *storage.Store
	bus    *pubsub.PubSub
	feed   *changefeed.Broadcaster
	http   *httptest.Server
	closed bool
}

func startStack(t *testing.T, dataDir string) *stack {
	t.Helper()
	persister, err := storage.NewWALPersister(dataDir, storage.WALOptions{Compress: true})
	require.NoError(t, err)
	store, err := storage.Open(storage.Config{Persister: persister})
	require.NoError(t, err)

	bus := pubsub.NewPubSub()
	feed, err := changefeed.NewBroadcaster(bus, changefeed.Config{
		Address: fmt.Sprintf("inproc://e2e-changes-%d", feedSeq.Add(1)),
	})
	require.NoError(t, err)
	require.NoError(t, feed.Start())

	reg := metrics.NewRegistry()
	mutations := mutation.NewService(store, mutation.Config{Metrics: reg, Events: bus})
	finder := pathfinder.NewService(store, pathfinder.Config{Metrics: reg})

	schema, err := graphql.NewSchema(graphql.Services{Store: store, Mutations: mutations, Pathfinder: finder})
	require.NoError(t, err)

	hc := health.NewHealthChecker()
	hc.RegisterCheck("graph", health.GraphCheck(store))
	hc.RegisterCheck("connectivity", health.ConnectivityCheck(store))
	hc.RegisterReadinessCheck("graph", health.GraphCheck(store))
	hc.RegisterLivenessCheck("process", health.SimpleCheck("process"))

	server, err := api.NewServer(api.Config{}, api.Options{
		Store:      store,
		Mutations:  mutations,
		Pathfinder: finder,
		Health:     hc,
		GraphQL:    graphql.NewGraphQLHandler(schema, graphql.Config{MaxDepth: graphql.DefaultMaxDepth}),
		Metrics:    reg,
		Version:    "e2e",
	})
	require.NoError(t, err)

	s := &stack{store: store, bus: bus, feed: feed, http: httptest.NewServer(server.Handler())}
	t.Cleanup(s.stop)
	return s
}

func (s *stack) stop() {
	if s.closed {
		return
	}
	s.closed = true
	s.http.Close()
	s.feed.Stop()
	s.bus.Shutdown()
	s.store.Close()
}

func (s *stack) request(t *testing.T, method, path, contentType string, body io.Reader) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.http.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (s *stack) json(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	status, data := s.request(t, method, path, "application/json", reader)
	if out != nil && len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return status
}

func (s *stack) importPlan(t *testing.T, file, contentType string) mutation.ImportResult {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "floorplan", "testdata", file))
	require.NoError(t, err)
	status, body := s.request(t, http.MethodPost, "/admin/import", contentType, bytes.NewReader(data))
	require.Equal(t, http.StatusOK, status, string(body))
	var result mutation.ImportResult
	require.NoError(t, json.Unmarshal(body, &result))
	return result
}

func (s *stack) graphql(t *testing.T, query string, vars map[string]any) graphql.GraphQLResponse {
	t.Helper()
	var resp graphql.GraphQLResponse
	status := s.json(t, http.MethodPost, "/graphql", graphql.GraphQLRequest{Query: query, Variables: vars}, &resp)
	require.Equal(t, http.StatusOK, status)
	return resp
}

// TestHospitalWorkflow walks an administrator and a visitor through the
// wayfinder: import two floors, plan routes over REST and GraphQL, edit the
// map and recover it from disk after a restart.
func TestHospitalWorkflow(t *testing.T) {
	dataDir := t.TempDir()
	s := startStack(t, dataDir)

	t.Log("Step 1: import both floors")
	l1 := s.importPlan(t, "main_l1.yaml", "application/yaml")
	assert.Equal(t, 4, l1.NodesCreated)
	assert.Equal(t, 3, l1.EdgesCreated)
	l2 := s.importPlan(t, "main_l2.hcl", "text/x-hcl")
	assert.Equal(t, 2, l2.NodesCreated)
	assert.Equal(t, 2, l2.EdgesCreated)

	var components api.ComponentsResponse
	require.Equal(t, http.StatusOK, s.json(t, http.MethodGet, "/components", nil, &components))
	assert.True(t, components.Connected)

	t.Log("Step 2: a visitor asks for directions by name")
	var route pathfinder.Route
	q := url.Values{"from": {"main entrance"}, "to": {"Radiology"}}
	require.Equal(t, http.StatusOK, s.json(t, http.MethodGet, "/path?"+q.Encode(), nil, &route))
	assert.Equal(t, []storage.NodeID{"MEXIT00101", "MHALL00101", "MELEV00A01", "MELEV00A02", "MDEPT00202"}, route.IDs())
	assert.InDelta(t, 1130.0, route.Cost, 1e-9)
	require.Len(t, route.FloorChanges, 1)
	assert.Equal(t, storage.NodeType("ELEV"), route.FloorChanges[0].Via)
	assert.Equal(t, "L1", route.FloorChanges[0].FromFloor)
	assert.Equal(t, "L2", route.FloorChanges[0].ToFloor)
	assert.Len(t, route.Legs, 2)

	t.Log("Step 3: the same question over GraphQL")
	resp := s.graphql(t, `query($from: String!, $to: String!) {
		path(from: $from, to: $to, transitOnly: true) { nodes { id } cost }
	}`, map[string]any{"from": "MEXIT00101", "to": "Radiology Department"})
	require.Empty(t, resp.Errors)
	path := resp.Data.(map[string]any)["path"].(map[string]any)
	assert.InDelta(t, 1130.0, path["cost"], 1e-9)

	resp = s.graphql(t, `{ nearest(source: "MDEPT00202", type: REST) { nodes { id } } }`, nil)
	require.Empty(t, resp.Errors)
	nodes := resp.Data.(map[string]any)["nearest"].(map[string]any)["nodes"].([]any)
	assert.Equal(t, "MREST00101", nodes[len(nodes)-1].(map[string]any)["id"])

	t.Log("Step 4: the elevator closes and the route disappears")
	var delErr api.ErrorResponse
	require.Equal(t, http.StatusConflict, s.json(t, http.MethodDelete, "/nodes/MELEV00A02", nil, &delErr))
	assert.Equal(t, "CONFLICT", delErr.Error)

	var incident api.EdgeListResponse
	require.Equal(t, http.StatusOK, s.json(t, http.MethodGet, "/edges?node=MELEV00A02", nil, &incident))
	require.Len(t, incident.Edges, 2)
	for _, e := range incident.Edges {
		status, _ := s.request(t, http.MethodDelete, "/edges/"+string(e.ID), "", nil)
		require.Equal(t, http.StatusNoContent, status)
	}

	var unreachable api.ErrorResponse
	require.Equal(t, http.StatusUnprocessableEntity,
		s.json(t, http.MethodGet, "/path?source=MEXIT00101&destination=MDEPT00202", nil, &unreachable))
	assert.Equal(t, "UNREACHABLE", unreachable.Error)

	t.Log("Step 5: a stair replaces it")
	var stair storage.Node
	require.Equal(t, http.StatusCreated, s.json(t, http.MethodPost, "/nodes", map[string]any{
		"short_name": "Stair B L2", "long_name": "Stairwell B, Level 2", "type": "STAI",
		"floor": "L2", "building": "Main", "x": 700, "y": 900,
	}, &stair))
	for _, pair := range [][2]string{{"MREST00101", string(stair.ID)}, {string(stair.ID), "MDEPT00202"}} {
		require.Equal(t, http.StatusCreated, s.json(t, http.MethodPost, "/edges", map[string]any{
			"node_a": pair[0], "node_b": pair[1], "weight": 50,
		}, nil))
	}
	route = pathfinder.Route{}
	require.Equal(t, http.StatusOK, s.json(t, http.MethodGet, "/path?source=MEXIT00101&destination=MDEPT00202", nil, &route))
	assert.Equal(t, []storage.NodeID{"MEXIT00101", "MHALL00101", "MREST00101", stair.ID, "MDEPT00202"}, route.IDs())
	assert.InDelta(t, 700.0, route.Cost, 1e-9)

	var stats api.StatsResponse
	require.Equal(t, http.StatusOK, s.json(t, http.MethodGet, "/stats", nil, &stats))
	version := stats.Statistics.Version

	t.Log("Step 6: checkpoint, restart and ask again")
	status, _ := s.request(t, http.MethodPost, "/admin/checkpoint", "", nil)
	require.Equal(t, http.StatusOK, status)
	s.stop()

	restarted := startStack(t, dataDir)
	var after pathfinder.Route
	require.Equal(t, http.StatusOK, restarted.json(t, http.MethodGet, "/path?source=MEXIT00101&destination=MDEPT00202", nil, &after))
	assert.Equal(t, route.IDs(), after.IDs())
	assert.Equal(t, route.Cost, after.Cost)
	assert.Equal(t, version, after.GraphVersion)
}

// TestChangeFeedAnnouncesEdits checks that a kiosk listening on the change
// feed hears about edits made through the API.
func TestChangeFeedAnnouncesEdits(t *testing.T) {
	s := startStack(t, t.TempDir())
	s.importPlan(t, "main_l1.yaml", "application/yaml")

	listener, err := changefeed.Dial(s.feed.Address())
	require.NoError(t, err)
	defer listener.Close()

	var edges api.EdgeListResponse
	require.Equal(t, http.StatusOK, s.json(t, http.MethodGet, "/edges?node=MREST00101", nil, &edges))
	require.NotEmpty(t, edges.Edges)
	target := "/edges/" + string(edges.Edges[0].ID)

	// SUB sockets only see messages sent after they connect, so keep editing
	// until one arrives.
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, s.json(t, http.MethodPut, target, map[string]any{"weight": 40 + i}, nil))
		e, err := listener.Next(100 * time.Millisecond)
		if errors.Is(err, mangos.ErrRecvTimeout) {
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, pubsub.EdgeUpdated, e.Type)
		assert.Equal(t, string(edges.Edges[0].ID), e.EdgeID)
		assert.NotEmpty(t, e.ID)
		return
	}
	t.Fatal("change feed never delivered an event")
}

// TestConcurrentVisitors plans routes while an administrator edits weights;
// every answer must be a complete route.
func TestConcurrentVisitors(t *testing.T) {
	s := startStack(t, t.TempDir())
	s.importPlan(t, "main_l1.yaml", "application/yaml")
	s.importPlan(t, "main_l2.hcl", "application/hcl")

	var edges api.EdgeListResponse
	require.Equal(t, http.StatusOK, s.json(t, http.MethodGet, "/edges?node=MELEV00A02", nil, &edges))
	require.NotEmpty(t, edges.Edges)
	target := s.http.URL + "/edges/" + string(edges.Edges[0].ID)

	var (
		wg       sync.WaitGroup
		failures atomic.Int64
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				resp, err := http.Get(s.http.URL + "/path?source=MEXIT00101&destination=MDEPT00202")
				if err != nil {
					failures.Add(1)
					continue
				}
				var r pathfinder.Route
				err = json.NewDecoder(resp.Body).Decode(&r)
				resp.Body.Close()
				if err != nil || resp.StatusCode != http.StatusOK || len(r.Nodes) != 5 {
					failures.Add(1)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			body := bytes.NewReader([]byte(fmt.Sprintf(`{"weight": %d}`, 10+j)))
			req, _ := http.NewRequest(http.MethodPut, target, body)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil || resp.StatusCode != http.StatusOK {
				failures.Add(1)
			}
			if resp != nil {
				resp.Body.Close()
			}
		}
	}()
	wg.Wait()

	assert.Zero(t, failures.Load())
}
