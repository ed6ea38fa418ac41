package api

import (
	"context"
	"net/http"

	"github.com/okian/cartola/internal/domain/lineup"
)

// ArenaDependencies defines the interface for athlete comparisons.
type ArenaDependencies interface {
	Arena(ctx context.Context, position string, nicknames []string) ([]lineup.Contender, error)
}

// ArenaHandler handles arena requests.
type ArenaHandler struct {
	deps ArenaDependencies
}

// NewArenaHandler creates a new arena handler.
func NewArenaHandler(deps ArenaDependencies) *ArenaHandler {
	return &ArenaHandler{deps: deps}
}

// HandleArena handles GET /arena?position=P&nickname=A&nickname=B requests.
func (h *ArenaHandler) HandleArena(w http.ResponseWriter, r *http.Request) {
	const op = "api.arena"
	values := r.URL.Query()
	position := values.Get("position")
	if position == "" || len(values["nickname"]) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	contenders, err := h.deps.Arena(r.Context(), position, values["nickname"])
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, contenders)
}
