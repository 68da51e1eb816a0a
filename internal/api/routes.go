package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Tasks
	mux.Handle("POST /api/v1/tasks", chain(http.HandlerFunc(h.SubmitTask)))
	mux.Handle("GET /api/v1/tasks", chain(http.HandlerFunc(h.ListTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", chain(http.HandlerFunc(h.GetTask)))
	mux.Handle("POST /api/v1/tasks/{id}/cancel", chain(http.HandlerFunc(h.CancelTask)))

	// Analytics
	mux.Handle("GET /api/v1/platforms/{platform}/summary", chain(http.HandlerFunc(h.PlatformSummary)))
	mux.Handle("GET /api/v1/platforms/{platform}/tasks", chain(http.HandlerFunc(h.ListPlatformTasks)))

	// Resources
	mux.Handle("GET /api/v1/resources/accounts", chain(http.HandlerFunc(h.ListAccounts)))
	mux.Handle("POST /api/v1/resources/accounts", chain(http.HandlerFunc(h.CreateAccount)))
	mux.Handle("POST /api/v1/resources/accounts/{id}/reactivate", chain(http.HandlerFunc(h.ReactivateAccount)))
	mux.Handle("POST /api/v1/resources/accounts/{id}/deactivate", chain(http.HandlerFunc(h.DeactivateAccount)))
	mux.Handle("GET /api/v1/resources/proxies", chain(http.HandlerFunc(h.ListProxies)))
	mux.Handle("POST /api/v1/resources/proxies", chain(http.HandlerFunc(h.CreateProxy)))

	// Releases
	mux.Handle("GET /api/v1/releases", chain(http.HandlerFunc(h.ListReleases)))
	mux.Handle("POST /api/v1/releases", chain(http.HandlerFunc(h.CreateRelease)))
	mux.Handle("DELETE /api/v1/releases/{id}", chain(http.HandlerFunc(h.DeleteRelease)))

	// Manual captcha gate
	mux.Handle("POST /api/v1/captcha/{id}/token", chain(http.HandlerFunc(h.ProvideCaptchaToken)))
	mux.Handle("POST /api/v1/captcha/{id}/cancel", chain(http.HandlerFunc(h.CancelCaptcha)))
}
