package auth

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the session status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}

		session := c.Session.Snapshot()
		if !c.Session.IsLoggedIn() {
			return fmt.Errorf("not logged in")
		}

		pterm.DefaultSection.Println("Session")
		expires := time.Unix(session.TokenExpirationTime, 0)
		pterm.Info.Printf("Token expiring at: %s (in %s)\n",
			expires.Format(time.RFC1123), time.Until(expires).Round(time.Second))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tID\tROLE\tAMKA\tSTORAGE")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			session.Username, dash(session.ID), dash(session.Role), dash(session.Amka), storageName(cfg.Storage, cfg.Token))
		return w.Flush()
	},
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func storageName(storage, token string) string {
	if token != "" {
		return "ephemeral token"
	}
	return storage
}
