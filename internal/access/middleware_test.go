package access_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/access"
	accessPostgres "github.com/frahmantamala/inventory-management/internal/access/postgres"
	"github.com/frahmantamala/inventory-management/internal/grant"
	grantPostgres "github.com/frahmantamala/inventory-management/internal/grant/postgres"
	"github.com/frahmantamala/inventory-management/internal/permission"
	platformdb "github.com/frahmantamala/inventory-management/internal/platform/db"
	"github.com/frahmantamala/inventory-management/internal/platform/db/dbtest"
	"github.com/frahmantamala/inventory-management/internal/session"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Access HTTP", func() {
	var (
		router  chi.Router
		current *session.Session
		userID  int64
		reached bool
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
		return w
	}

	ok := func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}

	BeforeEach(func() {
		db, err := dbtest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())
		sqlxDB, err := platformdb.SQLX(db)
		Expect(err).NotTo(HaveOccurred())

		grants := grant.NewService(grantPostgres.NewGrantRepository(db), nil, testLogger())
		gate := access.NewGate(accessPostgres.NewLiveLookup(sqlxDB), grants, testLogger())

		userID = seedUser(db, "clerk")
		productID := seedPermission(db, "can_manage_products", "products", true, false, false)
		seedPermission(db, "can_view_stock", "stock", true, false, false)
		_, err = grants.Grant(context.Background(), userID, productID, 0)
		Expect(err).NotTo(HaveOccurred())

		base := &transport.BaseHandler{Logger: testLogger()}
		mw := access.NewMiddleware(base, gate)
		handler := access.NewHandler(base, gate)

		current = session.Anonymous()
		reached = false
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), current)))
			})
		})
		router.With(mw.RequirePermission("can_manage_products", permission.AccessRead)).Get("/products", ok)
		router.With(mw.RequirePermission("can_manage_products", permission.AccessWrite)).Post("/products", ok)
		router.With(mw.RequireScreen("stock")).Get("/stock", ok)
		router.Get("/access/check", handler.CheckPermission)
		router.Get("/access/screens/{screen}", handler.CheckScreen)
		router.Put("/users/{id}/screen-access", handler.ReconcileScreenAccess)
	})

	It("returns 401 for anonymous callers", func() {
		w := do(http.MethodGet, "/products", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())
		Expect(w.Body.String()).To(ContainSubstring(internal.NotAuthorizedMessage))
	})

	It("returns 403 with the generic message whatever the reason", func() {
		current = &session.Session{UserID: userID, Role: user.RoleUser, State: session.StateAuthenticated}

		w := do(http.MethodGet, "/products", nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(reached).To(BeTrue())

		reached = false
		for _, path := range []string{"/products", "/stock"} {
			method := http.MethodGet
			if path == "/products" {
				method = http.MethodPost
			}
			w = do(method, path, nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))

			var body map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body["message"]).To(Equal(internal.NotAuthorizedMessage))
		}
		Expect(reached).To(BeFalse())
	})

	It("lets admins through every gate", func() {
		current = &session.Session{UserID: 1, Role: user.RoleAdmin, State: session.StateAuthenticated}
		Expect(do(http.MethodPost, "/products", nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, "/stock", nil).Code).To(Equal(http.StatusNoContent))
	})

	It("reports decisions on the check endpoints", func() {
		current = &session.Session{UserID: userID, Role: user.RoleUser, State: session.StateAuthenticated}

		var d access.Decision
		w := do(http.MethodGet, "/access/check?permission=can_manage_products&access=write", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(w.Body).Decode(&d)).To(Succeed())
		Expect(d).To(Equal(access.Deny(access.ReasonInsufficientCapability)))

		w = do(http.MethodGet, "/access/screens/products", nil)
		Expect(json.NewDecoder(w.Body).Decode(&d)).To(Succeed())
		Expect(d.Allowed).To(BeTrue())

		Expect(do(http.MethodGet, "/access/check?permission=can_manage_products&access=execute", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/access/check?access=read", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("reconciles screen access over HTTP", func() {
		current = &session.Session{UserID: 1, Role: user.RoleAdmin, State: session.StateAuthenticated}

		w := do(http.MethodPut, fmt.Sprintf("/users/%d/screen-access", userID), grant.ScreenAccessDTO{Screens: []grant.ScreenAccess{
			{ScreenName: "stock", HasAccess: true},
			{ScreenName: "products", HasAccess: true},
		}})
		Expect(w.Code).To(Equal(http.StatusOK))

		var summary grant.ReconcileSummary
		Expect(json.NewDecoder(w.Body).Decode(&summary)).To(Succeed())
		Expect(summary).To(Equal(grant.ReconcileSummary{Granted: 1, Unchanged: 1}))

		w = do(http.MethodPut, fmt.Sprintf("/users/%d/screen-access", userID), map[string]interface{}{
			"screens": []map[string]interface{}{{"has_access": true}},
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
