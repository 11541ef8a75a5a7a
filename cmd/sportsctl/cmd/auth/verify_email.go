package auth

import (
	"github.com/spf13/cobra"
)

var verifyEmailCmd = &cobra.Command{
	Use:   "verify-email <token>",
	Short: "Activate an account from its verification link token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		if err := c.VerifyEmail(cmd.Context(), args[0]); err != nil {
			return err
		}
		return cfg.Outcome()
	},
}
