package rest

import (
	"net/http"
	"time"

	"github.com/frahmantamala/inventory-management/api"
	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/access"
	"github.com/frahmantamala/inventory-management/internal/audit"
	"github.com/frahmantamala/inventory-management/internal/grant"
	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/frahmantamala/inventory-management/internal/session"
	"github.com/frahmantamala/inventory-management/internal/transport/middleware"
	"github.com/frahmantamala/inventory-management/internal/transport/swagger"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/go-chi/chi"
	"github.com/go-chi/httprate"
)

const (
	PermissionManageUsers       = "can_manage_users"
	PermissionManagePermissions = "can_manage_permissions"

	// ScreenAuditLog is the screen whose grants open the audit trail routes.
	ScreenAuditLog = "audit_log"
)

type Handlers struct {
	Health     *HealthHandler
	Session    *session.Handler
	User       *user.Handler
	Permission *permission.Handler
	Grant      *grant.Handler
	Access     *access.Handler
	Audit      *audit.Handler
	Gate       *access.Middleware
}

type Options struct {
	Production     bool
	TrustProxy     bool
	AllowedOrigins string
	LoginPerMinute int
}

// keyByClientIP buckets requests by the address ClientIP resolved.
func keyByClientIP(r *http.Request) (string, error) {
	if ip := internal.ClientIPFromContext(r.Context()); ip != "" {
		return ip, nil
	}
	return httprate.KeyByIP(r)
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	router.Use(middleware.TraceID)
	router.Use(middleware.ClientIP(opts.TrustProxy))
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.SecureHeaders(opts.Production, h.Session.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	loginLimit := opts.LoginPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", h.Health.Ping)
		r.Get("/health", h.Health.Check)

		r.Group(func(r chi.Router) {
			r.Use(h.Session.Middleware)

			r.Route("/auth", func(ar chi.Router) {
				ar.With(httprate.Limit(loginLimit, time.Minute, httprate.WithKeyFuncs(keyByClientIP))).
					Post("/login", h.Session.Login)
				ar.Post("/logout", h.Session.Logout)
				ar.Get("/session", h.Session.CurrentSession)
			})

			r.Route("/access", func(ar chi.Router) {
				ar.Get("/check", h.Access.CheckPermission)
				ar.Get("/screens/{screen}", h.Access.CheckScreen)
			})

			manageUsers := func(a permission.AccessType) func(http.Handler) http.Handler {
				return h.Gate.RequirePermission(PermissionManageUsers, a)
			}
			managePermissions := func(a permission.AccessType) func(http.Handler) http.Handler {
				return h.Gate.RequirePermission(PermissionManagePermissions, a)
			}
			auditTrail := h.Gate.RequireScreen(ScreenAuditLog)

			r.Route("/users", func(ur chi.Router) {
				ur.With(manageUsers(permission.AccessRead)).Get("/", h.User.ListUsers)
				ur.With(manageUsers(permission.AccessWrite)).Post("/", h.User.CreateUser)
				ur.Route("/{id}", func(ir chi.Router) {
					ir.With(manageUsers(permission.AccessRead)).Get("/", h.User.GetUser)
					ir.With(manageUsers(permission.AccessWrite)).Put("/", h.User.UpdateUser)
					ir.With(manageUsers(permission.AccessDelete)).Delete("/", h.User.DeleteUser)
					ir.With(manageUsers(permission.AccessWrite)).Post("/archive", h.User.ArchiveUser)

					ir.With(manageUsers(permission.AccessRead)).Get("/grants", h.Grant.ListGrants)
					ir.With(manageUsers(permission.AccessWrite)).Post("/grants", h.Grant.CreateGrant)
					ir.With(manageUsers(permission.AccessRead)).Get("/grants/history", h.Grant.GrantHistory)
					ir.With(manageUsers(permission.AccessWrite)).Delete("/grants/{permissionID}", h.Grant.RevokeUserPermission)
					ir.With(managePermissions(permission.AccessWrite)).Put("/screen-access", h.Access.ReconcileScreenAccess)
					ir.With(auditTrail).Get("/audit", h.Audit.ListForRecord("users"))
				})
			})
			r.With(manageUsers(permission.AccessWrite)).Delete("/grants/{id}", h.Grant.RevokeGrant)

			r.Route("/permissions", func(pr chi.Router) {
				pr.With(managePermissions(permission.AccessRead)).Get("/", h.Permission.ListPermissions)
				pr.With(managePermissions(permission.AccessWrite)).Post("/", h.Permission.CreatePermission)
				pr.With(managePermissions(permission.AccessRead)).Get("/screens", h.Permission.ListScreens)
				pr.With(managePermissions(permission.AccessRead)).Get("/{id}", h.Permission.GetPermission)
				pr.With(managePermissions(permission.AccessWrite)).Patch("/{id}", h.Permission.UpdatePermission)
				pr.With(managePermissions(permission.AccessWrite)).Post("/{id}/archive", h.Permission.ArchivePermission)
				pr.With(auditTrail).Get("/{id}/audit", h.Audit.ListForRecord("permissions"))
			})
		})
	})
}
