package session

import (
	"github.com/spf13/cobra"
)

// SessionCmd is the parent command for long-running session operations
var SessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Keep the session alive",
}

func init() {
	SessionCmd.AddCommand(watchCmd)
}
