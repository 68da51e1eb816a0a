package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Copflow/internal/domain"
)

// ListReleases возвращает зарегистрированные релизы.
// GET /api/v1/releases
func (h *Handler) ListReleases(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		Unavailable(w, "scheduler is not configured")
		return
	}
	releases := h.scheduler.Releases()
	List(w, releases, len(releases))
}

// CreateRelease регистрирует релиз в планировщике.
// POST /api/v1/releases
func (h *Handler) CreateRelease(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		Unavailable(w, "scheduler is not configured")
		return
	}

	var req CreateReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	rel := domain.NewRelease(req.Platform, req.Product, req.Size)
	rel.CronExpr = req.CronExpr
	rel.IntervalSec = req.IntervalSec
	rel.Timezone = req.Timezone
	rel.MaxRuns = req.MaxRuns

	if err := h.scheduler.Add(rel); err != nil {
		BadRequest(w, err.Error())
		return
	}
	Created(w, rel)
}

// DeleteRelease снимает релиз с планирования.
// DELETE /api/v1/releases/{id}
func (h *Handler) DeleteRelease(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		Unavailable(w, "scheduler is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid release id")
		return
	}
	h.scheduler.Remove(id)
	NoContent(w)
}
