package grant_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/grant"
	grantPostgres "github.com/frahmantamala/inventory-management/internal/grant/postgres"
	"github.com/frahmantamala/inventory-management/internal/platform/db/dbtest"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Grant Handler Integration", func() {
	var (
		router    chi.Router
		adminID   int64
		userID    int64
		productID int64
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

	BeforeEach(func() {
		db, err := dbtest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		adminID = seedUser(db, "root", false)
		userID = seedUser(db, "clerk", false)
		productID = seedPermission(db, "can_manage_products", "products", true, true, false, false)

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := grant.NewService(grantPostgres.NewGrantRepository(db), nil, slogger)
		handler := grant.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithActorID(r.Context(), adminID)))
			})
		})
		router.Get("/users/{id}/grants", handler.ListGrants)
		router.Post("/users/{id}/grants", handler.CreateGrant)
		router.Get("/users/{id}/grants/history", handler.GrantHistory)
		router.Delete("/users/{id}/grants/{permissionID}", handler.RevokeUserPermission)
		router.Delete("/grants/{id}", handler.RevokeGrant)
	})

	It("grants, lists and revokes", func() {
		w := do(http.MethodPost, fmt.Sprintf("/users/%d/grants", userID), grant.GrantDTO{PermissionID: productID})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created grant.Grant
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(*created.GrantedBy).To(Equal(adminID))

		w = do(http.MethodPost, fmt.Sprintf("/users/%d/grants", userID), grant.GrantDTO{PermissionID: productID})
		Expect(w.Code).To(Equal(http.StatusConflict))

		var listed grant.ActiveGrantsResponse
		w = do(http.MethodGet, fmt.Sprintf("/users/%d/grants", userID), nil)
		Expect(json.NewDecoder(w.Body).Decode(&listed)).To(Succeed())
		Expect(listed.Grants).To(HaveLen(1))

		w = do(http.MethodDelete, fmt.Sprintf("/grants/%d", created.ID), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		var history grant.HistoryResponse
		w = do(http.MethodGet, fmt.Sprintf("/users/%d/grants/history", userID), nil)
		Expect(json.NewDecoder(w.Body).Decode(&history)).To(Succeed())
		Expect(history.Grants).To(HaveLen(1))
		Expect(history.Grants[0].Archived).To(BeTrue())
	})

	It("returns 422 for unknown permissions", func() {
		w := do(http.MethodPost, fmt.Sprintf("/users/%d/grants", userID), grant.GrantDTO{PermissionID: 999})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	})

	It("returns 400 without a permission id", func() {
		w := do(http.MethodPost, fmt.Sprintf("/users/%d/grants", userID), map[string]int{})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("revokes by pair even when nothing is granted", func() {
		w := do(http.MethodDelete, fmt.Sprintf("/users/%d/grants/%d", userID, productID), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("returns 404 for unknown grant ids", func() {
		w := do(http.MethodDelete, "/grants/12345", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
