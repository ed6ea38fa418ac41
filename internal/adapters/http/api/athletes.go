package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/cartola/internal/app"
	"github.com/okian/cartola/internal/domain/model"
)

// AthleteDependencies defines the interface for athlete reads.
type AthleteDependencies interface {
	Athletes(ctx context.Context, q service.Query) ([]model.ScoredAthlete, error)
	Athlete(ctx context.Context, id int) (model.ScoredAthlete, error)
	Clubs(ctx context.Context) ([]model.Club, error)
	Positions(ctx context.Context) ([]model.Position, error)
}

// AthleteHandler handles athlete and reference data requests.
type AthleteHandler struct {
	deps AthleteDependencies
}

// NewAthleteHandler creates a new athlete handler.
func NewAthleteHandler(deps AthleteDependencies) *AthleteHandler {
	return &AthleteHandler{deps: deps}
}

var knownStatuses = []model.StatusID{
	model.StatusProbable, model.StatusDoubtful, model.StatusSuspended, model.StatusInjured, model.StatusNull,
}

// parseStatus accepts a status id or its label.
func parseStatus(raw string) (model.StatusID, bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		return model.StatusID(n), true
	}
	for _, s := range knownStatuses {
		if strings.EqualFold(s.String(), raw) {
			return s, true
		}
	}
	return 0, false
}

// HandleList handles GET /athletes?club=&position=&status=&probable= requests.
// Repeated parameters are alternatives.
func (h *AthleteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_athletes"
	values := r.URL.Query()
	q := service.Query{
		Clubs:        values["club"],
		Positions:    values["position"],
		ProbableOnly: queryBool(r, "probable"),
	}
	for _, raw := range values["status"] {
		s, ok := parseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		q.Statuses = append(q.Statuses, s)
	}
	athletes, err := h.deps.Athletes(r.Context(), q)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, athletes)
}

// HandleGet handles GET /athletes/{id} requests.
func (h *AthleteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_athlete"
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	a, err := h.deps.Athlete(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleClubs handles GET /clubs requests.
func (h *AthleteHandler) HandleClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.deps.Clubs(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_clubs", err)
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

// HandlePositions handles GET /positions requests.
func (h *AthleteHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.deps.Positions(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_positions", err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}
