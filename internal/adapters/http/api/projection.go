package api

import (
	"context"
	"net/http"

	service "github.com/okian/cartola/internal/app"
)

// ProjectionDependencies defines the interface for round projections.
type ProjectionDependencies interface {
	Project(ctx context.Context, ids []int) (service.ProjectionResult, error)
}

// ProjectionHandler handles projection requests.
type ProjectionHandler struct {
	deps ProjectionDependencies
}

// NewProjectionHandler creates a new projection handler.
func NewProjectionHandler(deps ProjectionDependencies) *ProjectionHandler {
	return &ProjectionHandler{deps: deps}
}

// HandleProject handles POST /projection requests with {"athlete_ids": [...]}.
func (h *ProjectionHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	const op = "api.project"
	ids, err := decodeIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, err))
		return
	}
	res, err := h.deps.Project(r.Context(), ids)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
