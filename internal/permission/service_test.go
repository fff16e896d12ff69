package permission_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/inventory-management/internal/permission/postgres"
	"github.com/frahmantamala/inventory-management/internal/platform/db/dbtest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) PublishSync(ctx context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func newPermissionDTO(name, screen string, read, write, del bool) permission.CreatePermissionDTO {
	return permission.CreatePermissionDTO{
		Name:       name,
		Module:     "inventory",
		ActionType: "manage",
		ScreenName: screen,
		CanRead:    boolPtr(read),
		CanWrite:   boolPtr(write),
		CanDelete:  boolPtr(del),
	}
}

var _ = Describe("Permission Service", func() {
	var (
		ctx       context.Context
		publisher *recordingPublisher
		service   *permission.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := dbtest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		publisher = &recordingPublisher{}
		service = permission.NewService(permissionPostgres.NewPermissionRepository(db), publisher, slogger)
	})

	Describe("Create", func() {
		It("stores the permission at version 1", func() {
			p, err := service.Create(ctx, 1, newPermissionDTO("can_manage_products", "products", true, true, false))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.ID).NotTo(BeZero())
			Expect(p.Version).To(Equal(int64(1)))
			Expect(p.Capabilities()).To(Equal(permission.Capabilities{Read: true, Write: true}))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.EventTypePermissionCreated))
		})

		It("requires every capability bit to be present", func() {
			dto := newPermissionDTO("can_view_reports", "reports", true, false, false)
			dto.CanDelete = nil
			_, err := service.Create(ctx, 1, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			first := appErr.Details.(internal.ValidationErrors).Errors[0]
			Expect(first.Field).To(Equal("can_delete"))
			Expect(first.Code).To(Equal(string(internal.ErrCodeRequired)))
		})

		It("accepts an explicit false bit", func() {
			_, err := service.Create(ctx, 1, newPermissionDTO("can_view_reports", "reports", false, false, false))
			Expect(err).NotTo(HaveOccurred())
		})

		It("allows duplicate module, screen and action combinations", func() {
			_, err := service.Create(ctx, 1, newPermissionDTO("a", "products", true, false, false))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, 1, newPermissionDTO("b", "products", true, false, false))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Update", func() {
		var existing *permission.Permission

		BeforeEach(func() {
			var err error
			existing, err = service.Create(ctx, 1, newPermissionDTO("can_manage_stock", "stock", true, false, false))
			Expect(err).NotTo(HaveOccurred())
			publisher.events = nil
		})

		It("changes only the supplied fields", func() {
			p, err := service.Update(ctx, 1, existing.ID, permission.UpdatePermissionDTO{CanWrite: boolPtr(true)})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(Equal("can_manage_stock"))
			Expect(p.CanRead).To(BeTrue())
			Expect(p.CanWrite).To(BeTrue())
			Expect(p.CanDelete).To(BeFalse())
			Expect(p.Version).To(Equal(int64(2)))

			payload := publisher.events[0].Payload().(map[string]interface{})
			Expect(payload["changed"]).To(Equal([]string{"can_write"}))
		})

		It("rejects an empty name", func() {
			_, err := service.Update(ctx, 1, existing.ID, permission.UpdatePermissionDTO{Name: strPtr("  ")})
			Expect(internal.HasCode(err, internal.ErrCodeValidationFailed)).To(BeTrue())
		})

		It("rejects a stale version", func() {
			_, err := service.Update(ctx, 1, existing.ID, permission.UpdatePermissionDTO{CanRead: boolPtr(false), Version: 9})
			Expect(err).To(MatchError(internal.ErrVersionConflict))
		})

		It("treats archived permissions as missing", func() {
			Expect(service.Archive(ctx, 1, existing.ID)).To(Succeed())
			_, err := service.Update(ctx, 1, existing.ID, permission.UpdatePermissionDTO{CanRead: boolPtr(false)})
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))
		})
	})

	Describe("Archive", func() {
		It("hides the permission from every lookup", func() {
			p, err := service.Create(ctx, 1, newPermissionDTO("can_manage_orders", "orders", true, true, true))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Archive(ctx, 1, p.ID)).To(Succeed())

			_, err = service.FindByID(ctx, p.ID)
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))

			active, err := service.ListActive(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeEmpty())

			screens, err := service.ListScreens(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(screens).To(BeEmpty())

			Expect(service.Archive(ctx, 1, p.ID)).To(MatchError(internal.ErrPermissionNotFound))
		})
	})

	Describe("FindByNameOrID", func() {
		var products, stock *permission.Permission

		BeforeEach(func() {
			var err error
			products, err = service.Create(ctx, 1, newPermissionDTO("can_manage_products", "products", true, true, false))
			Expect(err).NotTo(HaveOccurred())
			stock, err = service.Create(ctx, 1, newPermissionDTO("can_view_stock", "stock", true, false, false))
			Expect(err).NotTo(HaveOccurred())
		})

		It("matches a numeric identifier by id", func() {
			found, err := service.FindByNameOrID(ctx, "2")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].ID).To(Equal(stock.ID))
		})

		It("matches names by case-insensitive substring", func() {
			found, err := service.FindByNameOrID(ctx, "MANAGE")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].ID).To(Equal(products.ID))

			found, err = service.FindByNameOrID(ctx, "can_")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(2))
		})

		It("does not treat LIKE wildcards in the input as wildcards", func() {
			_, err := service.FindByNameOrID(ctx, "%")
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))
		})

		It("returns not found when nothing matches", func() {
			_, err := service.FindByNameOrID(ctx, "nonexistent")
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))
		})

		It("requires a search term", func() {
			_, err := service.FindByNameOrID(ctx, " ")
			Expect(internal.HasCode(err, internal.ErrCodeValidationFailed)).To(BeTrue())
		})
	})

	Describe("ListScreens", func() {
		It("returns distinct screen and module pairs", func() {
			for _, name := range []string{"a", "b"} {
				_, err := service.Create(ctx, 1, newPermissionDTO(name, "products", true, false, false))
				Expect(err).NotTo(HaveOccurred())
			}
			_, err := service.Create(ctx, 1, newPermissionDTO("c", "stock", true, false, false))
			Expect(err).NotTo(HaveOccurred())

			screens, err := service.ListScreens(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(screens).To(ConsistOf(
				permission.Screen{ScreenName: "products", Module: "inventory"},
				permission.Screen{ScreenName: "stock", Module: "inventory"},
			))
		})
	})
})
