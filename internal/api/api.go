// Package api implements the HTTP API server for specgate.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/specgate/internal/diff"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/logger"
	"github.com/sprite-ai/specgate/internal/report"
	"github.com/sprite-ai/specgate/internal/review"
)

// Options wires the server to the engine.
type Options struct {
	// Parser parses posted documents. It should not carry a review store:
	// ad-hoc requests are not tied to a registered device.
	Parser   *inventory.Parser
	Strategy diff.Strategy
	// Store backs the websocket review session. Nil disables it.
	Store  review.Store
	Logger *zerolog.Logger
}

// Server is the specgate HTTP API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server

	opts    Options
	reports *report.Generator
	log     zerolog.Logger

	// storeMu serializes read-modify-write cycles on the review store.
	storeMu sync.Mutex
}

// New creates a new API server.
func New(addr string, opts Options) *Server {
	if opts.Parser == nil {
		opts.Parser, _ = inventory.NewParser(inventory.DefaultTaxonomy())
	}
	if opts.Strategy == nil {
		opts.Strategy = diff.ByContentHash
	}
	s := &Server{addr: addr, opts: opts, reports: report.NewGenerator(), log: logger.Component("api")}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/inventory", s.handleInventory)
	s.mux.HandleFunc("POST /api/compare", s.handleCompare)
	s.mux.HandleFunc("POST /api/classify", s.handleClassify)
	s.mux.HandleFunc("POST /api/check", s.handleCheck)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.addr).Msg("specgate API server listening")
	return s.server.ListenAndServe()
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Error().Err(err).Msg("json encode")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
