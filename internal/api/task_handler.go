package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Copflow/internal/orchestrator"
	"github.com/shaiso/Copflow/internal/repo"
)

// SubmitTask ставит задачу чекаута в очередь оркестратора.
// POST /api/v1/tasks
func (h *Handler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	id, err := h.orch.Submit(req)
	switch {
	case errors.Is(err, orchestrator.ErrBackpressure):
		TooManyRequests(w, "task queue is full, retry later")
		return
	case errors.Is(err, orchestrator.ErrUnknownPlatform),
		errors.Is(err, orchestrator.ErrInvalidRequest):
		BadRequest(w, err.Error())
		return
	case err != nil:
		h.logger.Error("submit task failed", "error", err)
		InternalError(w, "failed to submit task")
		return
	}

	view, err := h.orch.Status(id)
	if err != nil {
		// Задача могла завершиться и быть вычищенной между Submit и Status.
		Created(w, map[string]string{"id": id.String()})
		return
	}
	Created(w, view)
}

// ListTasks возвращает все известные оркестратору задачи.
// GET /api/v1/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.orch.Tasks()
	List(w, tasks, len(tasks))
}

// GetTask возвращает снимок состояния задачи.
// GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	view, err := h.orch.Status(id)
	if errors.Is(err, orchestrator.ErrTaskNotFound) {
		// Завершённые задачи вычищаются из оркестратора, ищем в архиве.
		if h.archive == nil {
			NotFound(w, "task not found")
			return
		}
		task, err := h.archive.GetByID(r.Context(), id)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			NotFound(w, "task not found")
			return
		case err != nil:
			h.logger.Error("archive lookup failed", "task_id", id, "error", err)
			InternalError(w, "failed to look up task")
			return
		}
		Success(w, orchestrator.ViewOf(task))
		return
	}
	Success(w, view)
}

// ListPlatformTasks возвращает историю завершённых задач платформы.
// GET /api/v1/platforms/{platform}/tasks?limit=N
func (h *Handler) ListPlatformTasks(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		Unavailable(w, "task archive is not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			BadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	platform := r.PathValue("platform")
	tasks, err := h.archive.ListByPlatform(r.Context(), platform, limit)
	if err != nil {
		h.logger.Error("archive list failed", "platform", platform, "error", err)
		InternalError(w, "failed to list tasks")
		return
	}

	views := make([]orchestrator.TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, orchestrator.ViewOf(&tasks[i]))
	}
	List(w, views, len(views))
}

// CancelTask запрашивает отмену задачи.
// POST /api/v1/tasks/{id}/cancel
func (h *Handler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	err = h.orch.Cancel(id)
	switch {
	case errors.Is(err, orchestrator.ErrTaskNotFound):
		NotFound(w, "task not found")
		return
	case errors.Is(err, orchestrator.ErrTaskFinished):
		Conflict(w, "task already finished")
		return
	case err != nil:
		h.logger.Error("cancel task failed", "task_id", id, "error", err)
		InternalError(w, "failed to cancel task")
		return
	}
	NoContent(w)
}
