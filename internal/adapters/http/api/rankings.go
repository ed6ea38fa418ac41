package api

import (
	"context"
	"net/http"

	"github.com/okian/cartola/internal/domain/ranking"
	"github.com/okian/cartola/internal/domain/types"
)

// RankingDependencies defines the interface for ranking reads.
type RankingDependencies interface {
	Ranking(ctx context.Context, board string, limit int, probableOnly bool) ([]types.Entry, error)
	SGRanking(ctx context.Context, limit int) ([]types.ClubEntry, error)
	Boards() []string
}

// RankingHandler handles ranking requests.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleBoards handles GET /rankings requests.
func (h *RankingHandler) HandleBoards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, append(h.deps.Boards(), ranking.BoardSG))
}

// HandleBoard handles GET /rankings/{board}?limit=N&probable=true requests.
// An absent limit selects the default board size.
func (h *RankingHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	limit, ok := queryInt(r, "limit")
	if !ok || limit < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadLimit))
		return
	}

	board := r.PathValue("board")
	if board == ranking.BoardSG {
		entries, err := h.deps.SGRanking(r.Context(), limit)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	entries, err := h.deps.Ranking(r.Context(), board, limit, queryBool(r, "probable"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
