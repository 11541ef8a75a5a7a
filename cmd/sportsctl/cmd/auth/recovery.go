package auth

import (
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	resendEmail    string
	resendPassword string
	forgotEmail    string
	resetPassword  string
)

var resendVerificationCmd = &cobra.Command{
	Use:   "resend-verification",
	Short: "Send the account verification email again",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		err = c.SendVerificationEmail(cmd.Context(), sdk.EmailRequest{
			Email:    resendEmail,
			Username: resendEmail,
			Password: resendPassword,
			Lang:     cfg.Lang,
		})
		if err != nil {
			return err
		}
		return cfg.Outcome()
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Email a password reset link",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		err = c.SendResetPasswordEmail(cmd.Context(), sdk.EmailRequest{Email: forgotEmail, Lang: cfg.Lang})
		if err != nil {
			return err
		}
		return cfg.Outcome()
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <token>",
	Short: "Set a new password using a reset link token",
	Long: `Sets a new password. The token comes from the link emailed by
'sportsctl auth forgot-password'; an expired token is rejected before any
request is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		if err := c.CheckTokenExpiration(args[0]); err != nil {
			return err
		}
		pw, err := password(resetPassword, "New password")
		if err != nil {
			return err
		}
		if err := c.ResetPassword(cmd.Context(), args[0], pw, cfg.Lang); err != nil {
			return err
		}
		return cfg.Outcome()
	},
}

var checkTokenCmd = &cobra.Command{
	Use:   "check-token <token>",
	Short: "Check whether a link token is still usable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		if err := c.CheckTokenExpiration(args[0]); err != nil {
			return err
		}
		return cfg.Outcome()
	},
}

func init() {
	resendVerificationCmd.Flags().StringVarP(&resendEmail, "email", "e", "", "Account email")
	resendVerificationCmd.Flags().StringVarP(&resendPassword, "password", "p", "", "Account password")
	_ = resendVerificationCmd.MarkFlagRequired("email")

	forgotPasswordCmd.Flags().StringVarP(&forgotEmail, "email", "e", "", "Account email")
	_ = forgotPasswordCmd.MarkFlagRequired("email")

	resetPasswordCmd.Flags().StringVarP(&resetPassword, "password", "p", "", "New password (prompted when omitted)")
}
