package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/algorithms"
	"github.com/dd0wney/cluso-wayfinder/pkg/health"
	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/metrics"
	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// MaxBodyBytes caps request bodies; floor-plan imports are the largest.
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes is used when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 8 << 20

// Options carries the services the server exposes. Store, Mutations and
// Pathfinder are required.
type Options struct {
	Store      *storage.Store
	Mutations  *mutation.Service
	Pathfinder *pathfinder.Service
	Health     *health.HealthChecker
	// GraphQL is mounted at /graphql when set.
	GraphQL http.Handler
	Metrics *metrics.Registry
	Logger  logging.Logger
	Version string
}

// Server represents the HTTP API server
type Server struct {
	cfg        Config
	store      *storage.Store
	mutations  *mutation.Service
	pathfinder *pathfinder.Service
	health     *health.HealthChecker
	graphql    http.Handler
	metrics    *metrics.Registry
	logger     logging.Logger
	version    string
	startTime  time.Time
	httpServer *http.Server
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NodeListResponse lists nodes in ascending ID order.
type NodeListResponse struct {
	Nodes        []*storage.Node `json:"nodes"`
	Count        int             `json:"count"`
	GraphVersion uint64          `json:"graph_version"`
}

// EdgeListResponse lists edges in ascending ID order.
type EdgeListResponse struct {
	Edges        []*storage.Edge `json:"edges"`
	Count        int             `json:"count"`
	GraphVersion uint64          `json:"graph_version"`
}

// EdgeWeightRequest sets or clears an edge's explicit weight. A null weight
// reverts to the geometric distance.
type EdgeWeightRequest struct {
	Weight *float64 `json:"weight"`
}

// PathRequest is the POST form of a route query. Either the IDs or the names
// of both endpoints are given.
type PathRequest struct {
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Avoid       []string `json:"avoid"`
	TransitOnly bool     `json:"transit_only"`
}

// ComponentsResponse describes how the graph splits into islands.
type ComponentsResponse struct {
	Connected  bool                    `json:"connected"`
	Count      int                     `json:"count"`
	Components []*algorithms.Component `json:"components"`
}

// StatsResponse reports graph and server statistics.
type StatsResponse struct {
	storage.Statistics
	DeletePolicy  mutation.DeletePolicy `json:"delete_policy"`
	Version       string                `json:"server_version"`
	UptimeSeconds float64               `json:"uptime_seconds"`
}
