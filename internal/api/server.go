// Package api serves zone status over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (operator control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/zone-brain/internal/config"
	"github.com/talgya/zone-brain/internal/engine"
	"github.com/talgya/zone-brain/internal/persistence"
)

const defaultEventLimit = 50

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; events come from memory without it
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	eventsLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/zones", s.handleZones)
	mux.HandleFunc("/api/v1/zone/", s.handleZoneRoutes)
	mux.HandleFunc("/api/v1/events", RateLimitMiddleware(eventsLimiter, s.handleEvents))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ZONEBRAIN_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.StatsSnapshot()
	status := map[string]any{
		"tick":            s.Sim.CurrentTick(),
		"zones":           stats.Zones,
		"agents":          stats.Agents,
		"bound":           stats.Bound,
		"requests":        stats.Requests,
		"failed_requests": stats.FailedRequests,
		"committed":       stats.Committed,
		"safe_modes":      stats.SafeModes,
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Status())
}

// handleZoneRoutes dispatches GET /api/v1/zone/:name and
// /api/v1/zone/:name/overrides (POST requires the admin token).
func (s *Server) handleZoneRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/zone/")
	name, sub, _ := strings.Cut(rest, "/")
	if name == "" {
		http.Error(w, "zone name required", http.StatusBadRequest)
		return
	}

	switch sub {
	case "":
		st, ok := s.Sim.ZoneStatus(name)
		if !ok {
			http.Error(w, "zone not found", http.StatusNotFound)
			return
		}
		writeJSON(w, st)
	case "overrides":
		s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
			s.handleOverrides(w, r, name)
		})(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleOverrides(w http.ResponseWriter, r *http.Request, zone string) {
	if r.Method == http.MethodPost {
		var o config.ZoneOverride
		if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		for _, v := range []*int{o.WorkersPerZone, o.UpgradersPerZone, o.FortifyLevel} {
			if v != nil && *v < 0 {
				http.Error(w, "overrides must be non-negative", http.StatusBadRequest)
				return
			}
		}
		if err := s.Sim.SetOverrides(zone, o); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	st, ok := s.Sim.ZoneStatus(zone)
	if !ok {
		http.Error(w, "zone not found", http.StatusNotFound)
		return
	}
	writeJSON(w, overridesResponse{Overrides: st.Overrides, Effective: st.Effective})
}

// overridesResponse pairs the zone's persisted overrides with the values in
// effect after layering them over the settings file.
type overridesResponse struct {
	Overrides config.ZoneOverride `json:"overrides"`
	Effective config.Zone         `json:"effective"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "limit must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	// Unsaved events first, then the persisted log.
	events := s.Sim.RecentEvents(limit)
	if s.DB != nil && len(events) < limit {
		stored, err := s.DB.RecentEvents(limit - len(events))
		if err != nil {
			slog.Error("failed to load events", "error", err)
			http.Error(w, "failed to load events", http.StatusInternalServerError)
			return
		}
		events = append(events, stored...)
	}
	writeJSON(w, events)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not attached", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
