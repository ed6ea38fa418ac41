// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	service "github.com/okian/cartola/internal/app"
	"github.com/okian/cartola/internal/domain/lineup"
	"github.com/okian/cartola/internal/domain/scoring"
	"github.com/okian/cartola/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AthleteDependencies
	MarketDependencies
	RankingDependencies
	ProjectionDependencies
	LineupDependencies
	ArenaDependencies
	HistoryDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	athleteHandler    *AthleteHandler
	marketHandler     *MarketHandler
	rankingHandler    *RankingHandler
	projectionHandler *ProjectionHandler
	lineupHandler     *LineupHandler
	arenaHandler      *ArenaHandler
	historyHandler    *HistoryHandler
	dashboardHandler  *dashboardHandler

	logger logger.Logger
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithLogger sets the logger for failed requests.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		athleteHandler:    NewAthleteHandler(deps),
		marketHandler:     NewMarketHandler(deps),
		rankingHandler:    NewRankingHandler(deps),
		projectionHandler: NewProjectionHandler(deps),
		lineupHandler:     NewLineupHandler(deps),
		arenaHandler:      NewArenaHandler(deps),
		historyHandler:    NewHistoryHandler(deps),
		dashboardHandler:  newDashboardHandler(),
		logger:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.instrument(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", s.instrument(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /athletes", s.instrument(s.athleteHandler.HandleList, "athletes"))
	mux.HandleFunc("GET /athletes/{id}", s.instrument(s.athleteHandler.HandleGet, "athlete"))
	mux.HandleFunc("GET /clubs", s.instrument(s.athleteHandler.HandleClubs, "clubs"))
	mux.HandleFunc("GET /positions", s.instrument(s.athleteHandler.HandlePositions, "positions"))

	mux.HandleFunc("GET /market", s.instrument(s.marketHandler.HandleMarket, "market"))
	mux.HandleFunc("POST /refresh", s.instrument(s.marketHandler.HandleRefresh, "refresh"))

	mux.HandleFunc("GET /rankings", s.instrument(s.rankingHandler.HandleBoards, "rankings"))
	mux.HandleFunc("GET /rankings/{board}", s.instrument(s.rankingHandler.HandleBoard, "ranking"))

	mux.HandleFunc("POST /projection", s.instrument(s.projectionHandler.HandleProject, "projection"))

	mux.HandleFunc("GET /lineup", s.instrument(s.lineupHandler.HandleFormation, "lineup"))
	mux.HandleFunc("GET /lineup/{position}", s.instrument(s.lineupHandler.HandleGet, "lineup_position"))
	mux.HandleFunc("PUT /lineup/{position}", s.instrument(s.lineupHandler.HandlePut, "lineup_position"))
	mux.HandleFunc("DELETE /lineup/{position}", s.instrument(s.lineupHandler.HandleDelete, "lineup_position"))

	mux.HandleFunc("GET /arena", s.instrument(s.arenaHandler.HandleArena, "arena"))
	mux.HandleFunc("GET /history", s.instrument(s.historyHandler.HandleHistory, "history"))
}

// idsRequest is the body of POST /projection and PUT /lineup/{position}.
type idsRequest struct {
	AthleteIDs []int `json:"athlete_ids"`
}

func decodeIDs(r *http.Request) ([]int, error) {
	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrBadBody
	}
	if len(req.AthleteIDs) == 0 {
		return nil, ErrNoIDs
	}
	return req.AthleteIDs, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors to HTTP responses. A failed
// fetch cycle is never answered with data, only with 503.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	err = Wrap(op, err)
	switch {
	case errors.Is(err, service.ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrUnknownBoard):
		writeError(w, http.StatusNotFound, "unknown_board", err)
	case errors.Is(err, lineup.ErrUnknownPosition):
		writeError(w, http.StatusNotFound, "unknown_position", err)
	case errors.Is(err, lineup.ErrPositionMismatch):
		writeError(w, http.StatusBadRequest, "position_mismatch", err)
	case errors.Is(err, scoring.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, "invalid_selection", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// queryInt parses an optional integer query parameter; absent reads as 0.
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// queryBool parses an optional boolean query parameter; absent reads as false.
func queryBool(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && b
}
