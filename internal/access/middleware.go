package access

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/frahmantamala/inventory-management/internal/session"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/pkg/logger"
)

type Checker interface {
	Check(ctx context.Context, sess *session.Session, name string, access permission.AccessType) (Decision, error)
	CheckScreen(ctx context.Context, sess *session.Session, screenName string) (Decision, error)
}

// Middleware gates routes on the session threaded in by the session
// middleware. Denied callers only ever see "not authorized".
type Middleware struct {
	*transport.BaseHandler
	checker Checker
}

func NewMiddleware(baseHandler *transport.BaseHandler, checker Checker) *Middleware {
	return &Middleware{BaseHandler: baseHandler, checker: checker}
}

func (m *Middleware) RequirePermission(name string, access permission.AccessType) func(http.Handler) http.Handler {
	return m.require(func(ctx context.Context, sess *session.Session) (Decision, error) {
		return m.checker.Check(ctx, sess, name, access)
	}, "permission", name, "access", string(access))
}

func (m *Middleware) RequireScreen(screenName string) func(http.Handler) http.Handler {
	return m.require(func(ctx context.Context, sess *session.Session) (Decision, error) {
		return m.checker.CheckScreen(ctx, sess, screenName)
	}, "screen", screenName)
}

func (m *Middleware) require(decide func(context.Context, *session.Session) (Decision, error), attrs ...any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := session.FromContext(ctx)

			decision, err := decide(ctx, sess)
			if err != nil {
				m.WriteAppError(w, r, err)
				return
			}
			if !decision.Allowed {
				logger.From(ctx).WarnContext(ctx, "access denied",
					append(attrs, "user_id", sess.UserID, "reason", decision.Reason)...)
				m.WriteAppError(w, r, decision.Err())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
