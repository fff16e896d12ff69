package cmd

import (
	"context"

	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/inventory-management/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("seed", func() {
	var (
		ctx context.Context
		c   *core
	)

	BeforeEach(func() {
		ctx = context.Background()
		c = newTestCore()
	})

	It("creates the admin and the whole catalog", func() {
		report, err := seed(ctx, c, seedOptions{AdminUsername: "admin", AdminPassword: seedPassword})
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(Equal(seedReport{Users: 1, Permissions: len(inventoryCatalog)}))

		identity, err := c.users.Authenticate(ctx, "admin", seedPassword)
		Expect(err).NotTo(HaveOccurred())
		Expect(identity.Role).To(Equal(user.RoleAdmin))

		for _, name := range []string{"can_manage_users", "can_manage_permissions"} {
			p, err := findPermission(ctx, c, name)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).NotTo(BeNil(), name)
		}
	})

	It("only fills in what is missing on a second run", func() {
		opts := seedOptions{AdminUsername: "admin", AdminPassword: seedPassword, SampleUsers: true}
		first, err := seed(ctx, c, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Users).To(Equal(1 + len(sampleUsers)))
		Expect(first.Grants).To(Equal(7))

		second, err := seed(ctx, c, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(seedReport{}))

		clerk, err := findUser(ctx, c, "clerk")
		Expect(err).NotTo(HaveOccurred())
		grants, err := c.grants.ListActiveForUser(ctx, clerk.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(grants).To(HaveLen(2))
		Expect(grants[0].PermissionName).To(Equal("can_view_stock"))
	})

	It("audits what it creates with no actor", func() {
		_, err := seed(ctx, c, seedOptions{AdminUsername: "admin", AdminPassword: seedPassword})
		Expect(err).NotTo(HaveOccurred())

		var rows []auditDatamodel.AuditLog
		Expect(c.db.Where("action_table = ?", "users").Find(&rows).Error).To(Succeed())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].ActorID).To(BeNil())
	})

	It("rejects a weak admin password", func() {
		_, err := seed(ctx, c, seedOptions{AdminUsername: "admin", AdminPassword: "password"})
		Expect(err).To(HaveOccurred())
	})
})
