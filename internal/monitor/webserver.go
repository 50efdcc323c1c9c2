// Package monitor exposes the HTTP monitoring surface: JSON state
// endpoints, debug charts and plot generation for segmentation runs.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ktkachuk/teps/internal/monitoring"
	"github.com/ktkachuk/teps/internal/teps"
	"github.com/ktkachuk/teps/internal/tepsdb"
	"github.com/ktkachuk/teps/internal/version"
)

// WebServer handles the HTTP interface for observing a running engine.
// It serves health checks, engine snapshots and recent results.
type WebServer struct {
	address  string
	engine   *teps.Engine
	ring     *ResultRing
	db       *tepsdb.TepsDB
	runID    string
	sensorID string
	server   *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address  string
	Engine   *teps.Engine
	Ring     *ResultRing
	DB       *tepsdb.TepsDB
	RunID    string
	SensorID string
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:  config.Address,
		engine:   config.Engine,
		ring:     config.Ring,
		db:       config.DB,
		runID:    config.RunID,
		sensorID: config.SensorID,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode response: %v", err)
	}
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
// when the context is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/engine", ws.handleEngineSnapshot)
	mux.HandleFunc("/api/results", ws.handleRecentResults)
	mux.HandleFunc("/api/transitions", ws.handleTransitions)
	mux.HandleFunc("/api/run/summary", ws.handleRunSummary)
	mux.HandleFunc("/charts/timeline", ws.handlePhaseTimelineChart)
	mux.HandleFunc("/charts/centroids", ws.handleCentroidChart)
	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, map[string]string{"status": "ok"})
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap := ws.engine.Snapshot()
	ws.writeJSON(w, map[string]any{
		"version":   version.Version,
		"sensor_id": ws.sensorID,
		"run_id":    ws.runID,
		"samples":   snap.Samples,
		"phase":     snap.Phase,
		"centroids": len(snap.Centroids),
	})
}

func (ws *WebServer) handleEngineSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ws.writeJSON(w, ws.engine.Snapshot())
}

func (ws *WebServer) handleRecentResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 10000 {
			ws.writeJSONError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	ws.writeJSON(w, ws.ring.Recent(limit))
}

// transitionEdge is the JSON form of one directed phase transition.
type transitionEdge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Count uint64 `json:"count"`
}

func (ws *WebServer) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	snap := ws.engine.Snapshot()
	edges := make([]transitionEdge, 0, len(snap.Transitions))
	for pair, count := range snap.Transitions {
		edges = append(edges, transitionEdge{From: pair.From, To: pair.To, Count: count})
	}
	ws.writeJSON(w, edges)
}

func (ws *WebServer) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if ws.db == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		runID = ws.runID
	}
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'run_id' parameter")
		return
	}
	summary, err := ws.db.Summary(runID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("summarise run: %v", err))
		return
	}
	ws.writeJSON(w, summary)
}
