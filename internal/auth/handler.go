package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/transport"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/frahmantamala/store-auth/pkg/logger"
)

// RoleHintHeader optionally names the role the client expects to log in as.
const RoleHintHeader = "X-Role"

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

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidOrExpiredToken)
	}
	return u, ok
}

// Login handles POST /auth/login after the credentials guard.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	tokens, err := h.Service.Login(r.Context(), u, r.Header.Get(RoleHintHeader))
	if err != nil {
		h.Logger.Warn("login failed", "user_id", u.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{AuthTokens: tokens, User: user.ToResponse(u)})
}

// RefreshToken handles POST /auth/refresh after the refresh guard.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	tokens, err := h.Service.Refresh(r.Context(), u)
	if err != nil {
		h.Logger.Warn("token refresh failed", "user_id", u.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.Logout(r.Context(), u); err != nil {
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyEmail handles GET /auth/verify-email after the email verification guard.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.VerifyEmail(r.Context(), u); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Email verified"})
}
