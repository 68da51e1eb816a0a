package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Copflow/internal/captcha"
)

// ProvideCaptchaToken передаёт токен оператора ожидающему challenge.
// POST /api/v1/captcha/{id}/token
func (h *Handler) ProvideCaptchaToken(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		Unavailable(w, "manual captcha gate is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid challenge id")
		return
	}

	var req CaptchaTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Token == "" {
		BadRequest(w, "token is required")
		return
	}

	if err := h.gate.Provide(id, req.Token); err != nil {
		if errors.Is(err, captcha.ErrNoWaiter) {
			NotFound(w, "no task is waiting for this challenge")
			return
		}
		h.logger.Error("provide captcha token failed", "challenge_id", id, "error", err)
		InternalError(w, "failed to deliver token")
		return
	}
	NoContent(w)
}

// CancelCaptcha отклоняет challenge от имени оператора.
// POST /api/v1/captcha/{id}/cancel
func (h *Handler) CancelCaptcha(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		Unavailable(w, "manual captcha gate is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid challenge id")
		return
	}

	if err := h.gate.Cancel(id); err != nil {
		if errors.Is(err, captcha.ErrNoWaiter) {
			NotFound(w, "no task is waiting for this challenge")
			return
		}
		h.logger.Error("cancel captcha failed", "challenge_id", id, "error", err)
		InternalError(w, "failed to cancel challenge")
		return
	}
	NoContent(w)
}
