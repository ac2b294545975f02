package admin

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/store-auth/internal/transport"
	"github.com/frahmantamala/store-auth/pkg/logger"
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

// CreateStoreOwner handles POST /admin/store-owners
func (h *Handler) CreateStoreOwner(w http.ResponseWriter, r *http.Request) {
	var dto CreateStoreOwnerDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	resp, err := h.Service.CreateStoreOwner(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.WriteJSON(w, http.StatusCreated, resp)
}
