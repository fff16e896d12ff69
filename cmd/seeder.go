package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/spf13/cobra"
)

var (
	seedAdminUsername string
	seedAdminPassword string
	seedSampleUsers   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the admin account and permission catalog",
	Long:  `Create the admin account and the inventory permission catalog. Running it again only fills in what is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closeFn, err := openCore()
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := seed(cmd.Context(), c, seedOptions{
			AdminUsername: seedAdminUsername,
			AdminPassword: seedAdminPassword,
			SampleUsers:   seedSampleUsers,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "users created: %d, permissions created: %d, grants created: %d\n",
			report.Users, report.Permissions, report.Grants)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminUsername, "admin-username", "admin", "username of the admin account")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password of the admin account (and of sample users)")
	seedCmd.Flags().BoolVar(&seedSampleUsers, "sample-users", false, "also create a manager and a clerk with a few grants")
	_ = seedCmd.MarkFlagRequired("admin-password")
}

type seedOptions struct {
	AdminUsername string
	AdminPassword string
	SampleUsers   bool
}

type seedReport struct {
	Users       int
	Permissions int
	Grants      int
}

type catalogEntry struct {
	name, module, action, screen string
	read, write, del             bool
}

var inventoryCatalog = []catalogEntry{
	{"can_manage_users", "administration", "manage", "users", true, true, true},
	{"can_manage_permissions", "administration", "manage", "permissions", true, true, false},
	{"can_manage_products", "catalog", "manage", "products", true, true, true},
	{"can_manage_categories", "catalog", "manage", "categories", true, true, true},
	{"can_view_stock", "stock", "view", "stock", true, false, false},
	{"can_adjust_stock", "stock", "adjust", "stock_adjustments", true, true, false},
	{"can_manage_warehouses", "stock", "manage", "warehouses", true, true, true},
	{"can_manage_suppliers", "purchasing", "manage", "suppliers", true, true, true},
	{"can_manage_purchase_orders", "purchasing", "manage", "purchase_orders", true, true, true},
	{"can_approve_purchase_orders", "purchasing", "approve", "purchase_order_approvals", true, true, false},
	{"can_view_reports", "reporting", "view", "reports", true, false, false},
	{"can_view_audit_log", "administration", "view", "audit_log", true, false, false},
}

type sampleUser struct {
	username, displayName string
	role                  user.Role
	grants                []string
}

var sampleUsers = []sampleUser{
	{"manager", "Stock Manager", user.RoleManager, []string{"can_manage_products", "can_view_stock", "can_adjust_stock", "can_manage_warehouses", "can_view_reports"}},
	{"clerk", "Warehouse Clerk", user.RoleUser, []string{"can_view_stock", "can_adjust_stock"}},
}

func seed(ctx context.Context, c *core, opts seedOptions) (seedReport, error) {
	var report seedReport

	admin := sampleUser{username: opts.AdminUsername, displayName: "Administrator", role: user.RoleAdmin}
	if _, created, err := ensureUser(ctx, c, admin, opts.AdminPassword); err != nil {
		return report, fmt.Errorf("seed admin: %w", err)
	} else if created {
		report.Users++
	}

	byName := map[string]int64{}
	for _, entry := range inventoryCatalog {
		id, created, err := ensurePermission(ctx, c, entry)
		if err != nil {
			return report, fmt.Errorf("seed permission %s: %w", entry.name, err)
		}
		if created {
			report.Permissions++
		}
		byName[entry.name] = id
	}

	if !opts.SampleUsers {
		return report, nil
	}

	for _, su := range sampleUsers {
		u, created, err := ensureUser(ctx, c, su, opts.AdminPassword)
		if err != nil {
			return report, fmt.Errorf("seed user %s: %w", su.username, err)
		}
		if created {
			report.Users++
		}
		for _, name := range su.grants {
			_, err := c.grants.Grant(ctx, u.ID, byName[name], 0)
			switch {
			case err == nil:
				report.Grants++
			case errors.Is(err, internal.ErrAlreadyGranted):
			default:
				return report, fmt.Errorf("grant %s to %s: %w", name, su.username, err)
			}
		}
	}
	return report, nil
}

func ensureUser(ctx context.Context, c *core, su sampleUser, password string) (*user.User, bool, error) {
	if existing, err := findUser(ctx, c, su.username); err != nil || existing != nil {
		return existing, false, err
	}

	u, err := c.users.Save(ctx, 0, user.SaveUserDTO{
		Username:        su.username,
		DisplayName:     su.displayName,
		Role:            string(su.role),
		Password:        password,
		ConfirmPassword: password,
	})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func findUser(ctx context.Context, c *core, username string) (*user.User, error) {
	users, err := c.users.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, nil
}

func ensurePermission(ctx context.Context, c *core, entry catalogEntry) (int64, bool, error) {
	existing, err := findPermission(ctx, c, entry.name)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	p, err := c.permissions.Create(ctx, 0, permission.CreatePermissionDTO{
		Name:       entry.name,
		Module:     entry.module,
		ActionType: entry.action,
		ScreenName: entry.screen,
		CanRead:    &entry.read,
		CanWrite:   &entry.write,
		CanDelete:  &entry.del,
	})
	if err != nil {
		return 0, false, err
	}
	return p.ID, true, nil
}

// findPermission resolves an id or exact name to the lowest-id active match.
func findPermission(ctx context.Context, c *core, identifier string) (*permission.Permission, error) {
	matches, err := c.permissions.FindByNameOrID(ctx, identifier)
	if errors.Is(err, internal.ErrPermissionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var found *permission.Permission
	for _, p := range matches {
		if p.Archived {
			continue
		}
		if p.Name != identifier && fmt.Sprint(p.ID) != identifier {
			continue
		}
		if found == nil || p.ID < found.ID {
			found = p
		}
	}
	return found, nil
}
