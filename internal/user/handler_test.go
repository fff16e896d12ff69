package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/platform/db/dbtest"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/user"
	userPostgres "github.com/frahmantamala/inventory-management/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("User Handler Integration", func() {
	var (
		router  chi.Router
		service *user.Service
		admin   *user.User
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		db, err := dbtest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(userPostgres.NewUserRepository(db), nil, bcrypt.MinCost, slogger)

		admin, err = service.Save(context.Background(), 0, newUserDTO("root", "admin"))
		Expect(err).NotTo(HaveOccurred())

		handler := user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithActorID(r.Context(), admin.ID)))
			})
		})
		router.Get("/users", handler.ListUsers)
		router.Post("/users", handler.CreateUser)
		router.Get("/users/{id}", handler.GetUser)
		router.Put("/users/{id}", handler.UpdateUser)
		router.Delete("/users/{id}", handler.DeleteUser)
		router.Post("/users/{id}/archive", handler.ArchiveUser)
	})

	It("creates a user and never returns the password hash", func() {
		w := do(http.MethodPost, "/users", newUserDTO("frank", "user"))
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).NotTo(ContainSubstring("password"))

		var created user.User
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Username).To(Equal("frank"))
		Expect(created.Version).To(Equal(int64(1)))
	})

	It("returns 409 for a taken username", func() {
		w := do(http.MethodPost, "/users", newUserDTO("ROOT", "user"))
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("returns 400 with the failing field for a weak password", func() {
		dto := newUserDTO("grace", "user")
		dto.Password, dto.ConfirmPassword = "alllowercase1!", "alllowercase1!"
		w := do(http.MethodPost, "/users", dto)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["details"]).To(HaveKey("errors"))
	})

	It("returns 400 for a malformed id", func() {
		w := do(http.MethodGet, "/users/abc", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("updates with optimistic versioning", func() {
		target, err := service.Save(context.Background(), admin.ID, newUserDTO("heidi", "user"))
		Expect(err).NotTo(HaveOccurred())

		path := fmt.Sprintf("/users/%d", target.ID)
		w := do(http.MethodPut, path, user.SaveUserDTO{Username: "heidi", Role: "manager", Version: 1})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPut, path, user.SaveUserDTO{Username: "heidi", Role: "user", Version: 1})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("forbids archiving the calling user", func() {
		w := do(http.MethodPost, fmt.Sprintf("/users/%d/archive", admin.ID), nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("archives and hides users from the default listing", func() {
		target, err := service.Save(context.Background(), admin.ID, newUserDTO("ivan", "user"))
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodPost, fmt.Sprintf("/users/%d/archive", target.ID), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		var listed user.UsersResponse
		w = do(http.MethodGet, "/users", nil)
		Expect(json.NewDecoder(w.Body).Decode(&listed)).To(Succeed())
		Expect(listed.Users).To(HaveLen(1))

		w = do(http.MethodGet, "/users?include_archived=true", nil)
		Expect(json.NewDecoder(w.Body).Decode(&listed)).To(Succeed())
		Expect(listed.Users).To(HaveLen(2))
	})

	It("deletes a user with no dependents", func() {
		target, err := service.Save(context.Background(), admin.ID, newUserDTO("judy", "user"))
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodDelete, fmt.Sprintf("/users/%d", target.ID), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, fmt.Sprintf("/users/%d", target.ID), nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
