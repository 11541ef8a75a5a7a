package users

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		u := c.GetUser(cmd.Context(), args[0])
		if u == nil {
			if err := cfg.Outcome(); err != nil {
				return err
			}
			return requireFound(u, args[0])
		}
		return renderUser(u)
	},
}
