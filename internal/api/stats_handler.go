package api

import (
	"net/http"
	"strconv"
)

// PlatformSummary возвращает агрегированную сводку платформы.
// GET /api/v1/platforms/{platform}/summary?days=N
func (h *Handler) PlatformSummary(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")
	if platform == "" {
		BadRequest(w, "platform is required")
		return
	}

	days := 7
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			BadRequest(w, "days must be a positive integer")
			return
		}
		days = parsed
	}

	summary, err := h.recorder.Summarize(r.Context(), platform, days)
	if err != nil {
		h.logger.Error("summarize failed", "platform", platform, "error", err)
		InternalError(w, "failed to build summary")
		return
	}
	Success(w, summary)
}
