package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Copflow/internal/domain"
	"github.com/shaiso/Copflow/internal/pool"
	"github.com/shaiso/Copflow/internal/repo"
)

// ListAccounts возвращает аккаунты пула с опциональным фильтром.
// GET /api/v1/resources/accounts?platform=...
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.pool.Accounts(r.URL.Query().Get("platform"))
	List(w, accounts, len(accounts))
}

// ListProxies возвращает все прокси пула.
// GET /api/v1/resources/proxies
func (h *Handler) ListProxies(w http.ResponseWriter, r *http.Request) {
	proxies := h.pool.Proxies()
	List(w, proxies, len(proxies))
}

// CreateAccount добавляет новый аккаунт в пул.
// POST /api/v1/resources/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Platform == "" || req.Email == "" {
		BadRequest(w, "platform and email are required")
		return
	}

	acc := domain.NewAccount(req.Platform, req.Email, req.Credentials)
	if err := h.pool.ProvisionAccount(r.Context(), acc); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			Conflict(w, "account already exists")
			return
		}
		h.logger.Error("account provisioning failed", "email", req.Email, "error", err)
		InternalError(w, "failed to provision account")
		return
	}
	Created(w, acc)
}

// CreateProxy добавляет новый прокси в пул.
// POST /api/v1/resources/proxies
func (h *Handler) CreateProxy(w http.ResponseWriter, r *http.Request) {
	var req CreateProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Address == "" {
		BadRequest(w, "address is required")
		return
	}

	p := domain.NewProxy(req.Address, req.Protocol)
	p.Username = req.Username
	p.Password = req.Password
	if err := h.pool.ProvisionProxy(r.Context(), p); err != nil {
		h.logger.Error("proxy provisioning failed", "address", req.Address, "error", err)
		InternalError(w, "failed to provision proxy")
		return
	}
	Created(w, p)
}

// ReactivateAccount вручную возвращает аккаунт в строй.
// POST /api/v1/resources/accounts/{id}/reactivate
func (h *Handler) ReactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountState(w, r, h.pool.ReactivateAccount)
}

// DeactivateAccount вручную отключает аккаунт.
// POST /api/v1/resources/accounts/{id}/deactivate
func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountState(w, r, h.pool.DeactivateAccount)
}

func (h *Handler) setAccountState(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid account id")
		return
	}

	if err := fn(r.Context(), id); err != nil {
		if errors.Is(err, pool.ErrUnknownResource) {
			NotFound(w, "account not found")
			return
		}
		h.logger.Error("account state change failed", "account_id", id, "error", err)
		InternalError(w, "failed to update account")
		return
	}
	NoContent(w)
}
