package users

import (
	"fmt"

	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var input sdk.UserInput

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		u, err := c.CreateUser(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		c.Users.Invalidate()
		pterm.Success.Printf("Created user %s\n", u.ID)
		return renderUser(u)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a user account",
	Long: `Updates an account. --username is always sent and renames the account
when it differs; empty fields are left unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		u, err := c.UpdateUser(cmd.Context(), args[0], input)
		if err != nil {
			return fmt.Errorf("failed to update user %s: %w", args[0], err)
		}
		c.Users.Invalidate()
		if c.Session.Snapshot().ID == string(u.ID) {
			c.Session.UpdateProfile(sdk.ProfilePatch{ID: string(u.ID), Amka: u.Amka, Username: u.Username})
		}
		pterm.Success.Printf("Updated user %s\n", u.ID)
		return renderUser(u)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		if err := c.DeleteUser(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete user %s: %w", args[0], err)
		}
		c.Users.Invalidate()
		pterm.Success.Printf("Deleted user %s\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVarP(&input.Username, "username", "u", "", "Account username (email)")
		c.Flags().StringVarP(&input.Password, "password", "p", "", "Account password")
		c.Flags().StringVar(&input.Status, "status", "", "Account status: pending, active or suspended")
		c.Flags().StringVar(&input.Role, "role", "", "Account role")
		c.Flags().StringVar(&input.Amka, "amka", "", "Social security number")
		_ = c.MarkFlagRequired("username")
	}
}
