package api

import (
	"context"
	"net/http"

	"github.com/okian/cartola/internal/adapters/history"
)

// HistoryDependencies defines the interface for projection accuracy reads.
type HistoryDependencies interface {
	History(ctx context.Context, round int) ([]history.Row, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleHistory handles GET /history?round=N requests. Without a round the
// latest reconciled round is returned.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	round, ok := queryInt(r, "round")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRound))
		return
	}
	rows, err := h.deps.History(r.Context(), round)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if rows == nil {
		rows = []history.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}
