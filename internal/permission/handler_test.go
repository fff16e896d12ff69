package permission_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/inventory-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/inventory-management/internal/permission/postgres"
	"github.com/frahmantamala/inventory-management/internal/platform/db/dbtest"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Permission Handler Integration", func() {
	var router chi.Router

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

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := permission.NewService(permissionPostgres.NewPermissionRepository(db), nil, slogger)
		handler := permission.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Get("/permissions", handler.ListPermissions)
		router.Post("/permissions", handler.CreatePermission)
		router.Get("/permissions/screens", handler.ListScreens)
		router.Get("/permissions/{id}", handler.GetPermission)
		router.Patch("/permissions/{id}", handler.UpdatePermission)
		router.Post("/permissions/{id}/archive", handler.ArchivePermission)

		for _, dto := range []permission.CreatePermissionDTO{
			newPermissionDTO("can_manage_products", "products", true, true, false),
			newPermissionDTO("can_view_stock", "stock", true, false, false),
		} {
			_, err := service.Create(context.Background(), 1, dto)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("lists the active catalog", func() {
		w := do(http.MethodGet, "/permissions", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp permission.PermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Permissions).To(HaveLen(2))
	})

	It("searches with ?q=", func() {
		w := do(http.MethodGet, "/permissions?q=stock", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp permission.PermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Permissions).To(HaveLen(1))
		Expect(resp.Permissions[0].Name).To(Equal("can_view_stock"))

		w = do(http.MethodGet, "/permissions?q=nothing", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("creates a permission", func() {
		w := do(http.MethodPost, "/permissions", newPermissionDTO("can_manage_orders", "orders", true, true, true))
		Expect(w.Code).To(Equal(http.StatusCreated))
	})

	It("rejects a permission without capability bits", func() {
		w := do(http.MethodPost, "/permissions", map[string]string{
			"name": "x", "module": "m", "action_type": "a", "screen_name": "s",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("patches and archives", func() {
		w := do(http.MethodPatch, "/permissions/1", map[string]bool{"can_delete": true})
		Expect(w.Code).To(Equal(http.StatusOK))

		var p permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&p)).To(Succeed())
		Expect(p.CanDelete).To(BeTrue())
		Expect(p.Version).To(Equal(int64(2)))

		w = do(http.MethodPost, "/permissions/1/archive", nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, fmt.Sprintf("/permissions/%d", p.ID), nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("lists screens", func() {
		w := do(http.MethodGet, "/permissions/screens", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp permission.ScreensResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Screens).To(HaveLen(2))
	})
})
