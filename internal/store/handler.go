package store

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/transport"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/frahmantamala/store-auth/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// CreateStore handles POST /stores
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidOrExpiredToken)
		return
	}

	var dto CreateStoreDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	st, err := h.Service.CreateStore(r.Context(), u, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, st)
}

// AddMember handles POST /stores/{storeID}/members
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var dto AddMemberDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	m, err := h.Service.AddManager(r.Context(), chi.URLParam(r, "storeID"), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

// GrantPermission handles PUT /stores/{storeID}/members/{userID}/permissions/{code}
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	err := h.Service.GrantPermission(r.Context(),
		chi.URLParam(r, "storeID"),
		chi.URLParam(r, "userID"),
		chi.URLParam(r, "code"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAccess handles GET /stores/{storeID}/access?code=&action=
func (h *Handler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidOrExpiredToken)
		return
	}

	q := r.URL.Query()
	resp, err := h.Service.CheckAccess(r.Context(), u, chi.URLParam(r, "storeID"), q.Get("code"), q.Get("action"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
