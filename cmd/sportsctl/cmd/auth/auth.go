package auth

import (
	"fmt"
	"os"

	"github.com/manolisziCy/sports/cmd/sportsctl/internal/config"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AuthCmd is the parent command for session and account operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the session and account",
	Long:  `Commands for logging in and out, registering and recovering an account.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(registerCmd)
	AuthCmd.AddCommand(verifyEmailCmd)
	AuthCmd.AddCommand(resendVerificationCmd)
	AuthCmd.AddCommand(forgotPasswordCmd)
	AuthCmd.AddCommand(resetPasswordCmd)
	AuthCmd.AddCommand(checkTokenCmd)
	AuthCmd.AddCommand(refreshCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(exportCmd)
}

func sdkClient(cmd *cobra.Command) (*config.GlobalConfig, *sdk.Client, error) {
	cfg := config.MustFromContext(cmd.Context())
	c, err := cfg.SDKClient(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

// password returns the flag value, then $SPORTS_PASSWORD, then prompts.
func password(flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("SPORTS_PASSWORD"); v != "" {
		return v, nil
	}
	if !isTerminal(os.Stdin) {
		return "", fmt.Errorf("password required: use --password or SPORTS_PASSWORD")
	}
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show(prompt)
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
