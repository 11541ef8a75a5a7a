package auth

import (
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	registerUsername string
	registerPassword string
	registerAmka     string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Registers a new account. The server emails a verification link; pass its
token to 'sportsctl auth verify-email' to activate the account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		pw, err := password(registerPassword, "Password")
		if err != nil {
			return err
		}
		err = c.Register(cmd.Context(), sdk.Registration{
			Username: registerUsername,
			Password: pw,
			Amka:     registerAmka,
			Lang:     cfg.Lang,
		})
		if err != nil {
			return err
		}
		return cfg.Outcome()
	},
}

func init() {
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Email address used as the username")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Account password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerAmka, "amka", "", "Social security number (11 digits)")
	_ = registerCmd.MarkFlagRequired("username")
}
