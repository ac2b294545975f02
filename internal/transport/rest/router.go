package rest

import (
	"net/http"

	"github.com/frahmantamala/store-auth/internal/admin"
	"github.com/frahmantamala/store-auth/internal/auth"
	"github.com/frahmantamala/store-auth/internal/permission"
	"github.com/frahmantamala/store-auth/internal/store"
	"github.com/frahmantamala/store-auth/internal/transport"
	"github.com/frahmantamala/store-auth/internal/transport/middleware"
	"github.com/frahmantamala/store-auth/internal/transport/swagger"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Base     *transport.BaseHandler
	Pipeline *auth.Pipeline
	Guards   *auth.Guards
	Auth     *auth.Handler
	User     *user.Handler
	Admin    *admin.Handler
	Store    *store.Handler
	Health   *HealthHandler
	// RateLimiter guards the /auth routes when set.
	RateLimiter *middleware.RateLimiter
	Origins     []string
}

func RegisterAllRoutes(router chi.Router, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery(h.Base))
	router.Use(middleware.CORS(h.Origins))

	router.Method(http.MethodGet, swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	p := h.Pipeline
	g := h.Guards

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		r.Route("/auth", func(ar chi.Router) {
			if h.RateLimiter != nil {
				ar.Use(h.RateLimiter.Middleware)
			}
			ar.With(p.Protect(auth.Route{Public: true, Guards: []auth.Guard{g.Credentials()}})).
				Post("/login", h.Auth.Login)
			ar.With(p.Protect(auth.Route{Public: true, Guards: []auth.Guard{g.Refresh()}})).
				Post("/refresh", h.Auth.RefreshToken)
			ar.With(p.Protect(auth.Route{})).
				Post("/logout", h.Auth.Logout)
			ar.With(p.Protect(auth.Route{Public: true, Guards: []auth.Guard{g.EmailVerification()}})).
				Get("/verify-email", h.Auth.VerifyEmail)
		})

		r.With(p.Protect(auth.Route{})).Get("/users/me", h.User.GetCurrentUser)

		r.With(p.Protect(auth.Route{Roles: []user.Role{user.RoleAdmin}})).
			Post("/admin/store-owners", h.Admin.CreateStoreOwner)

		r.Route("/stores", func(sr chi.Router) {
			sr.With(p.Protect(auth.Route{Roles: []user.Role{user.RoleStoreOwner}})).
				Post("/", h.Store.CreateStore)

			sr.Route("/{storeID}", func(str chi.Router) {
				str.With(p.Protect(auth.Route{
					Roles:      []user.Role{user.RoleStoreOwner, user.RoleStoreManager},
					Permission: permission.UsersInvite,
					Action:     permission.ActionInvite,
				})).Post("/members", h.Store.AddMember)

				str.With(p.Protect(auth.Route{
					Roles:      []user.Role{user.RoleStoreOwner, user.RoleStoreManager},
					Permission: permission.UsersManage,
					Action:     permission.ActionManage,
				})).Put("/members/{userID}/permissions/{code}", h.Store.GrantPermission)

				str.With(p.Protect(auth.Route{})).Get("/access", h.Store.CheckAccess)
			})
		})
	})
}
