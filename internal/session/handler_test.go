package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/session"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Session Handler Integration", func() {
	var (
		f      *fixture
		router chi.Router
		seenBy int64
	)

	do := func(method, path string, body interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		if mutate != nil {
			mutate(req)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	sessionCookie := func(w *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range w.Result().Cookies() {
			if c.Name == "session_token" {
				return c
			}
		}
		return nil
	}

	BeforeEach(func() {
		f = newFixture()
		f.createUser("clerk", user.RoleUser)
		p := f.createPermission("can_view_stock", "stock", true, false, false)
		clerk, err := f.users.List(context.Background(), false)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.grants.Grant(context.Background(), clerk[0].ID, p.ID, 0)
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := session.NewHandler(&transport.BaseHandler{Logger: slogger}, f.authority, session.CookieConfig{})

		seenBy = 0
		router = chi.NewRouter()
		router.Use(handler.Middleware)
		router.Post("/auth/login", handler.Login)
		router.Post("/auth/logout", handler.Logout)
		router.Get("/auth/session", handler.CurrentSession)
		router.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			seenBy = internal.ActorIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})
	})

	It("logs in with a cookie and reports the session", func() {
		w := do(http.MethodPost, "/auth/login", map[string]string{"username": "clerk", "password": testPassword}, nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp session.LoginResponse
		Expect(json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp)).To(Succeed())
		Expect(resp.TokenType).To(Equal("Bearer"))
		Expect(resp.Session.Username).To(Equal("clerk"))
		Expect(resp.Session.Permissions).To(HaveLen(1))
		Expect(w.Body.String()).NotTo(ContainSubstring(testPassword))

		cookie := sessionCookie(w)
		Expect(cookie).NotTo(BeNil())
		Expect(cookie.HttpOnly).To(BeTrue())
		Expect(cookie.SameSite).To(Equal(http.SameSiteStrictMode))

		w = do(http.MethodGet, "/auth/session", nil, func(r *http.Request) { r.AddCookie(cookie) })
		Expect(w.Code).To(Equal(http.StatusOK))
		var view session.View
		Expect(json.NewDecoder(w.Body).Decode(&view)).To(Succeed())
		Expect(view.State).To(Equal(session.StateAuthenticated))
		Expect(view.Permissions[0].Name).To(Equal("can_view_stock"))
	})

	It("returns 401 with the generic message for bad credentials", func() {
		w := do(http.MethodPost, "/auth/login", map[string]string{"username": "clerk", "password": "Nope!1234"}, nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(sessionCookie(w)).To(BeNil())
	})

	It("returns 400 for a malformed body", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{")))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("treats requests without credentials as anonymous", func() {
		w := do(http.MethodGet, "/auth/session", nil, nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring(internal.NotAuthorizedMessage))

		do(http.MethodGet, "/whoami", nil, nil)
		Expect(seenBy).To(BeZero())
	})

	It("accepts a bearer token and threads the actor id", func() {
		w := do(http.MethodPost, "/auth/login", map[string]string{"username": "clerk", "password": testPassword}, nil)
		var resp session.LoginResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())

		w = do(http.MethodGet, "/whoami", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		})
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(seenBy).To(Equal(resp.Session.UserID))
	})

	It("logs out, clears the cookie and stops accepting it", func() {
		w := do(http.MethodPost, "/auth/login", map[string]string{"username": "clerk", "password": testPassword}, nil)
		cookie := sessionCookie(w)
		Expect(cookie).NotTo(BeNil())

		w = do(http.MethodPost, "/auth/logout", nil, func(r *http.Request) { r.AddCookie(cookie) })
		Expect(w.Code).To(Equal(http.StatusNoContent))
		cleared := sessionCookie(w)
		Expect(cleared).NotTo(BeNil())
		Expect(cleared.MaxAge).To(BeNumerically("<", 0))

		w = do(http.MethodGet, "/auth/session", nil, func(r *http.Request) { r.AddCookie(cookie) })
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
