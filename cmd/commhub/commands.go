package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pushkargithub0611/comm-module-goa/internal/api"
	"github.com/pushkargithub0611/comm-module-goa/internal/seed"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.session.Save(resp.Token, resp.User); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (%s)\n", resp.User.FullName, resp.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	req := api.RegisterRequest{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.api.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := a.session.Save(resp.Token, resp.User); err != nil {
				return err
			}
			fmt.Printf("Registered %s (%s)\n", resp.User.FullName, resp.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&req.Role, "role", "student", "role (student, teacher, admin)")
	cmd.Flags().StringVar(&req.OrganizationalUnit, "unit", "", "organizational unit")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the persisted session",
		RunE: func(*cobra.Command, []string) error {
			a.api.Logout()
			if err := a.session.Clear(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(*cobra.Command, []string) error {
			_, user, ok, err := a.session.Load()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Not logged in")
				return nil
			}
			fmt.Printf("%s <%s> role=%s\n", user.FullName, user.Email, user.Role)
			return nil
		},
	}
}

func newGroupsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List and create chat groups",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the groups visible to this account",
		RunE: func(c *cobra.Command, _ []string) error {
			res, err := a.api.FetchGroups(c.Context())
			if err != nil {
				return err
			}
			if res.Degraded {
				fmt.Println("warning: backend unreachable, showing demo data")
			}
			for _, g := range res.Groups {
				fmt.Printf("%-10s %-10s %-30s %s\n", g.ID, g.ChatType, g.Name, g.Description)
			}
			return nil
		},
	}

	req := api.CreateGroupRequest{}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(c *cobra.Command, _ []string) error {
			g, err := a.api.CreateGroup(c.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Created group %s (%s)\n", g.Name, g.ID)
			return nil
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "group name")
	create.Flags().StringVar(&req.Description, "description", "", "group description")
	create.Flags().StringVar(&req.GroupType, "type", "custom", "group type (class, department, custom)")
	create.Flags().StringVar(&req.ChatType, "chat-type", "group", "chat type (group, individual)")
	create.Flags().StringVar(&req.OrganizationalUnit, "unit", "", "organizational unit")
	create.Flags().StringSliceVar(&req.Members, "members", nil, "initial member user ids")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(list, create)
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the user directory",
		RunE: func(c *cobra.Command, _ []string) error {
			res, err := a.api.FetchProfiles(c.Context(), nil)
			if err != nil {
				return err
			}
			if res.Degraded {
				fmt.Println("warning: backend unreachable, showing demo data")
			}
			for _, p := range res.Profiles {
				fmt.Printf("%-14s %-22s %-14s %s\n", p.ID, p.FullName, p.Role, p.OrganizationalUnit)
			}
			return nil
		},
	}
}

func newSeedAdminCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap admin account in the backend database",
		RunE: func(c *cobra.Command, _ []string) error {
			res, err := seed.EnsureAdmin(c.Context(), a.cfg.MongoURI, a.cfg.MongoDatabase)
			if err != nil {
				return err
			}

			if res.Created {
				fmt.Printf("Created admin user: %s with password: %s\n", seed.AdminEmail, seed.AdminPassword)
			} else {
				fmt.Println("Admin user already exists")
			}
			fmt.Printf("Found %d admin users in the database\n", len(res.Admins))
			for _, adm := range res.Admins {
				fmt.Printf("- %s (%s)\n", adm.Email, adm.FullName)
			}
			return nil
		},
	}
}
