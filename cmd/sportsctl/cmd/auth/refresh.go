package auth

import (
	"github.com/manolisziCy/sports/cmd/sportsctl/internal/config"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:         "refresh",
	Short:       "Exchange the session token for a fresh one",
	Long:        `Refreshes the session token when it is about to expire. A token that is still fresh is kept.`,
	Annotations: map[string]string{config.AnnotationAuthRequired: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		switch res := c.RefreshToken(cmd.Context()); res {
		case sdk.RefreshCommitted:
			pterm.Success.Println("Session token refreshed")
		case sdk.RefreshSkippedFresh:
			pterm.Info.Println("Session token is still fresh")
		default:
			pterm.Warning.Printf("Refresh %s\n", res)
		}
		return cfg.Outcome()
	},
}
