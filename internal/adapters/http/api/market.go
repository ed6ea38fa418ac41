package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/cartola/internal/domain/market"
	"github.com/okian/cartola/internal/domain/pipeline"
)

// MarketDependencies defines the interface for market status reads.
type MarketDependencies interface {
	Market(ctx context.Context) (market.Status, error)
	Refresh(ctx context.Context) (*pipeline.Snapshot, error)
}

// MarketHandler handles market status requests.
type MarketHandler struct {
	deps MarketDependencies
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(deps MarketDependencies) *MarketHandler {
	return &MarketHandler{deps: deps}
}

type marketResponse struct {
	market.Status
	Label string `json:"label"`
}

// HandleMarket handles GET /market requests.
func (h *MarketHandler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Market(r.Context())
	if err != nil {
		writeServiceError(w, "api.get_market", err)
		return
	}
	writeJSON(w, http.StatusOK, marketResponse{Status: s, Label: s.Label()})
}

type refreshResponse struct {
	SnapshotID string        `json:"snapshot_id"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Market     market.Status `json:"market"`
	Athletes   int           `json:"athletes"`
	Skipped    int           `json:"skipped"`
}

// HandleRefresh handles POST /refresh requests.
func (h *MarketHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, "api.refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		Market:     snap.Market,
		Athletes:   len(snap.Athletes),
		Skipped:    snap.SkippedCount(),
	})
}
