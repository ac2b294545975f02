package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/permission"
	"github.com/frahmantamala/store-auth/internal/transport"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/frahmantamala/store-auth/pkg/logger"
	"github.com/go-chi/chi"
)

// Guard inspects a request and either rejects it or returns the request
// the rest of the chain should see.
type Guard func(r *http.Request) (*http.Request, error)

type Authorizer interface {
	Authorize(ctx context.Context, req permission.Request) error
}

// Route declares how an endpoint is protected. Routes are authenticated
// with the access guard unless Public is set.
type Route struct {
	Public bool
	// Guards run after authentication and before authorization.
	Guards []Guard
	Roles  []user.Role
	// Permission, when set, is checked against the store named by the
	// StoreParam URL parameter ("storeID" by default).
	Permission permission.Code
	Action     permission.Action
	StoreParam string
}

type Guards struct {
	service ServiceAPI
	authz   Authorizer
	base    *transport.BaseHandler
}

func NewGuards(service ServiceAPI, authz Authorizer, base *transport.BaseHandler) *Guards {
	return &Guards{service: service, authz: authz, base: base}
}

func withUser(r *http.Request, u *user.User) *http.Request {
	ctx := user.WithContext(r.Context(), u)
	ctx = logger.With(ctx, "userID", u.ID)
	return r.WithContext(ctx)
}

// Credentials authenticates an email/password body and attaches the account.
func (g *Guards) Credentials() Guard {
	return func(r *http.Request) (*http.Request, error) {
		var dto LoginDTO
		if err := g.base.DecodeJSON(r, &dto); err != nil {
			return nil, err
		}
		if err := dto.Validate(); err != nil {
			return nil, err
		}
		u, err := g.service.VerifyCredentials(r.Context(), dto.Email, dto.Password)
		if err != nil {
			return nil, err
		}
		return withUser(r, u), nil
	}
}

// Access authenticates the bearer access token.
func (g *Guards) Access() Guard {
	return func(r *http.Request) (*http.Request, error) {
		token := transport.ExtractBearerToken(r)
		if token == "" {
			return nil, internal.ErrInvalidOrExpiredToken
		}
		u, err := g.service.AuthenticateAccess(r.Context(), token)
		if err != nil {
			return nil, err
		}
		return withUser(r, u), nil
	}
}

// Refresh authenticates the refresh token carried in the body as
// refresh_token or refreshToken.
func (g *Guards) Refresh() Guard {
	return func(r *http.Request) (*http.Request, error) {
		var dto RefreshTokenDTO
		if err := g.base.DecodeJSON(r, &dto); err != nil {
			return nil, internal.ErrInvalidOrExpiredToken
		}
		token := dto.Token()
		if token == "" {
			return nil, internal.ErrInvalidOrExpiredToken
		}
		u, err := g.service.AuthenticateRefresh(r.Context(), token)
		if err != nil {
			return nil, err
		}
		return withUser(r, u), nil
	}
}

// EmailVerification authenticates the token query parameter.
func (g *Guards) EmailVerification() Guard {
	return func(r *http.Request) (*http.Request, error) {
		token := r.URL.Query().Get("token")
		if token == "" {
			return nil, internal.ErrInvalidOrExpiredToken
		}
		u, err := g.service.AuthenticateEmailVerification(r.Context(), token)
		if err != nil {
			return nil, err
		}
		return withUser(r, u), nil
	}
}

// Authorize enforces the route's global roles and store-scoped permission.
func (g *Guards) Authorize(route Route) Guard {
	param := route.StoreParam
	if param == "" {
		param = "storeID"
	}
	return func(r *http.Request) (*http.Request, error) {
		u, _ := user.FromContext(r.Context())
		req := permission.Request{
			User:   u,
			Roles:  route.Roles,
			Code:   route.Permission,
			Action: route.Action,
		}
		if route.Permission != "" {
			req.StoreID = chi.URLParam(r, param)
		}
		if err := g.authz.Authorize(r.Context(), req); err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Pipeline turns Route declarations into middleware.
type Pipeline struct {
	guards *Guards
	base   *transport.BaseHandler
}

func NewPipeline(guards *Guards, base *transport.BaseHandler) *Pipeline {
	return &Pipeline{guards: guards, base: base}
}

func (p *Pipeline) chain(route Route) []Guard {
	var chain []Guard
	if !route.Public {
		chain = append(chain, p.guards.Access())
	}
	chain = append(chain, route.Guards...)
	if len(route.Roles) > 0 || route.Permission != "" {
		chain = append(chain, p.guards.Authorize(route))
	}
	return chain
}

// Protect returns middleware that runs the route's guards in order and
// stops at the first rejection.
func (p *Pipeline) Protect(route Route) func(http.Handler) http.Handler {
	chain := p.chain(route)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, guard := range chain {
				nr, err := guard(r)
				if err != nil {
					logger.From(r.Context()).Log(r.Context(), rejectionLevel(err), "request rejected",
						"method", r.Method,
						"path", r.URL.Path,
						"reason", err.Error())
					p.base.WriteAppError(w, err)
					return
				}
				r = nr
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectionLevel(err error) slog.Level {
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelError
}
