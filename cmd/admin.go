package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/grant"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage users and grants from the command line",
	Long:  `Create users, grant and revoke permissions and list users without going through the HTTP API. Changes are audited with no actor.`,
}

var (
	adminUsername    string
	adminDisplayName string
	adminPassword    string
	adminRole        string
	adminUserID      int64
	adminPermission  string
	adminListAll     bool
)

var adminCreateUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user",
	RunE: withCore(func(ctx context.Context, c *core, out io.Writer) error {
		u, err := c.users.Save(ctx, 0, user.SaveUserDTO{
			Username:        adminUsername,
			DisplayName:     adminDisplayName,
			Role:            adminRole,
			Password:        adminPassword,
			ConfirmPassword: adminPassword,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created user %d (%s, %s)\n", u.ID, u.Username, u.Role)
		return nil
	}),
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant a permission to a user",
	RunE: withCore(func(ctx context.Context, c *core, out io.Writer) error {
		g, err := grantByIdentifier(ctx, c, adminUserID, adminPermission)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "granted permission %d to user %d (grant %d)\n", g.PermissionID, g.UserID, g.ID)
		return nil
	}),
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke a permission from a user",
	RunE: withCore(func(ctx context.Context, c *core, out io.Writer) error {
		permissionID, err := revokeByIdentifier(ctx, c, adminUserID, adminPermission)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "revoked permission %d from user %d\n", permissionID, adminUserID)
		return nil
	}),
}

var adminListUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "List users",
	RunE: withCore(func(ctx context.Context, c *core, out io.Writer) error {
		users, err := c.users.List(ctx, adminListAll)
		if err != nil {
			return err
		}
		return writeUsers(out, users)
	}),
}

func init() {
	adminCreateUserCmd.Flags().StringVar(&adminUsername, "username", "", "username")
	adminCreateUserCmd.Flags().StringVar(&adminDisplayName, "display-name", "", "display name")
	adminCreateUserCmd.Flags().StringVar(&adminPassword, "password", "", "password")
	adminCreateUserCmd.Flags().StringVar(&adminRole, "role", string(user.RoleUser), "admin, manager or user")
	_ = adminCreateUserCmd.MarkFlagRequired("username")
	_ = adminCreateUserCmd.MarkFlagRequired("password")

	for _, c := range []*cobra.Command{adminGrantCmd, adminRevokeCmd} {
		c.Flags().Int64Var(&adminUserID, "user-id", 0, "user id")
		c.Flags().StringVar(&adminPermission, "permission", "", "permission id or exact name")
		_ = c.MarkFlagRequired("user-id")
		_ = c.MarkFlagRequired("permission")
	}

	adminListUsersCmd.Flags().BoolVar(&adminListAll, "all", false, "include archived users")

	adminCmd.AddCommand(adminCreateUserCmd, adminGrantCmd, adminRevokeCmd, adminListUsersCmd)
}

func withCore(run func(ctx context.Context, c *core, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		c, closeFn, err := openCore()
		if err != nil {
			return err
		}
		defer closeFn()
		return run(cmd.Context(), c, cmd.OutOrStdout())
	}
}

func grantByIdentifier(ctx context.Context, c *core, userID int64, identifier string) (*grant.Grant, error) {
	p, err := findPermission(ctx, c, identifier)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, internal.ErrUnknownPermission
	}
	return c.grants.Grant(ctx, userID, p.ID, 0)
}

func revokeByIdentifier(ctx context.Context, c *core, userID int64, identifier string) (int64, error) {
	p, err := findPermission(ctx, c, identifier)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, internal.ErrPermissionNotFound
	}
	return p.ID, c.grants.RevokeByPair(ctx, userID, p.ID, 0)
}

func writeUsers(out io.Writer, users []*user.User) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tACTIVE\tARCHIVED\tLAST LOGIN")
	for _, u := range users {
		lastLogin := "-"
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%t\t%s\n", u.ID, u.Username, u.Role, u.IsActive, u.Archived, lastLogin)
	}
	return tw.Flush()
}
