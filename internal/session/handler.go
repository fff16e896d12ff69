package session

import (
	"context"
	"net"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/pkg/logger"
)

type AuthorityAPI interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Resolve(ctx context.Context, token string) (*Session, error)
	ResolveBearer(ctx context.Context, raw string) (*Session, error)
	Logout(ctx context.Context, sess *Session) error
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	*transport.BaseHandler
	Authority AuthorityAPI
	cookie    CookieConfig
}

func NewHandler(baseHandler *transport.BaseHandler, authority AuthorityAPI, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = "session_token"
	}
	return &Handler{
		BaseHandler: baseHandler,
		Authority:   authority,
		cookie:      cookie,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	req.IPAddress = clientIP(r)
	req.UserAgent = r.UserAgent()

	result, err := h.Authority.Login(r.Context(), req)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  result.Session.ExpiresAt,
	})

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		Session:        result.Session.View(),
		AccessToken:    result.AccessToken,
		TokenType:      "Bearer",
		TokenExpiresAt: result.TokenExpiresAt,
	})
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	if err := h.Authority.Logout(r.Context(), sess); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// CurrentSession handles GET /auth/session
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	if !sess.IsAuthenticated() {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, sess.View())
}

// Middleware resolves the caller's session from the session cookie or a
// bearer token and threads it through the request context. It never
// rejects a request; gating is left to the access middleware.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var (
			sess *Session
			err  error
		)
		if cookie, cerr := r.Cookie(h.cookie.Name); cerr == nil && cookie.Value != "" {
			sess, err = h.Authority.Resolve(ctx, cookie.Value)
		} else if bearer := h.ExtractTokenFromHeader(r); bearer != "" {
			sess, err = h.Authority.ResolveBearer(ctx, bearer)
		} else {
			sess = Anonymous()
		}
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		ctx = NewContext(ctx, sess)
		ctx = internal.ContextWithClientIP(ctx, clientIP(r))
		if sess.IsAuthenticated() {
			ctx = internal.ContextWithActorID(ctx, sess.UserID)
			ctx = logger.With(ctx, "user_id", sess.UserID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if ip := internal.ClientIPFromContext(r.Context()); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
