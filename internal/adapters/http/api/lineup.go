package api

import (
	"context"
	"net/http"

	"github.com/okian/cartola/internal/domain/lineup"
)

// LineupDependencies defines the interface for the selection store.
type LineupDependencies interface {
	SaveLineup(ctx context.Context, position string, ids []int) ([]lineup.Pick, error)
	Lineup(position string) ([]lineup.Pick, error)
	ClearLineup(position string) error
	Formation() ([]lineup.Slot, error)
}

// LineupHandler handles lineup requests.
type LineupHandler struct {
	deps LineupDependencies
}

// NewLineupHandler creates a new lineup handler.
func NewLineupHandler(deps LineupDependencies) *LineupHandler {
	return &LineupHandler{deps: deps}
}

// HandleFormation handles GET /lineup requests.
func (h *LineupHandler) HandleFormation(w http.ResponseWriter, _ *http.Request) {
	slots, err := h.deps.Formation()
	if err != nil {
		writeServiceError(w, "api.get_formation", err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// HandleGet handles GET /lineup/{position} requests.
func (h *LineupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	picks, err := h.deps.Lineup(r.PathValue("position"))
	if err != nil {
		writeServiceError(w, "api.get_lineup", err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

// HandlePut handles PUT /lineup/{position} requests with {"athlete_ids": [...]}.
// The best three athletes by average are kept.
func (h *LineupHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_lineup"
	ids, err := decodeIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, err))
		return
	}
	picks, err := h.deps.SaveLineup(r.Context(), r.PathValue("position"), ids)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

// HandleDelete handles DELETE /lineup/{position} requests.
func (h *LineupHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearLineup(r.PathValue("position")); err != nil {
		writeServiceError(w, "api.clear_lineup", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
