package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		c.Logout()
		pterm.Success.Println("Logged out")
		return nil
	},
}
