package auth

import (
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Authenticates with username and password. On success the session is
persisted to the configured storage and reused by later invocations until the
token expires or 'sportsctl auth logout' is run.

A pending account is pointed at 'sportsctl auth resend-verification'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		pw, err := password(loginPassword, "Password")
		if err != nil {
			return err
		}
		if err := c.Login(cmd.Context(), sdk.LoginRequest{Username: loginUsername, Password: pw}); err != nil {
			return err
		}
		if err := cfg.Outcome(); err != nil {
			return err
		}
		if c.Session.IsLoggedIn() {
			pterm.Success.Printf("Logged in as %s\n", c.Session.Username())
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account username (email)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password (prompted when omitted)")
	_ = loginCmd.MarkFlagRequired("username")
}
