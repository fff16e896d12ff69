package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/frahmantamala/inventory-management/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("admin commands", func() {
	var (
		ctx context.Context
		c   *core
	)

	BeforeEach(func() {
		ctx = context.Background()
		c = newTestCore()
		_, err := seed(ctx, c, seedOptions{AdminUsername: "admin", AdminPassword: seedPassword, SampleUsers: true})
		Expect(err).NotTo(HaveOccurred())
	})

	It("grants and revokes by permission name or id", func() {
		clerk, err := findUser(ctx, c, "clerk")
		Expect(err).NotTo(HaveOccurred())

		g, err := grantByIdentifier(ctx, c, clerk.ID, "can_view_reports")
		Expect(err).NotTo(HaveOccurred())
		Expect(g.UserID).To(Equal(clerk.ID))
		Expect(g.GrantedBy).To(BeNil())

		_, err = grantByIdentifier(ctx, c, clerk.ID, fmt.Sprint(g.PermissionID))
		Expect(internal.HasCode(err, internal.ErrCodeAlreadyGranted)).To(BeTrue())

		permissionID, err := revokeByIdentifier(ctx, c, clerk.ID, "can_view_reports")
		Expect(err).NotTo(HaveOccurred())
		Expect(permissionID).To(Equal(g.PermissionID))

		history, err := c.grants.History(ctx, clerk.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(3))
	})

	It("does not treat a name fragment as a permission", func() {
		_, err := grantByIdentifier(ctx, c, 1, "reports")
		Expect(err).To(MatchError(internal.ErrUnknownPermission))

		_, err = revokeByIdentifier(ctx, c, 1, "nope")
		Expect(err).To(MatchError(internal.ErrPermissionNotFound))
	})

	It("lists users as a table", func() {
		users, err := c.users.List(ctx, false)
		Expect(err).NotTo(HaveOccurred())

		var out bytes.Buffer
		Expect(writeUsers(&out, users)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("USERNAME"))
		Expect(out.String()).To(ContainSubstring("clerk"))
		Expect(out.String()).To(ContainSubstring("manager"))
	})
})
