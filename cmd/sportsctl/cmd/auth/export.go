package auth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/manolisziCy/sports/cmd/sportsctl/internal/config"
	"github.com/spf13/cobra"
)

var (
	shellFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session token as environment variables",
	Long: `Prints shell commands setting SPORTS_TOKEN and SPORTS_API_URL from the
stored session. Invocations that see SPORTS_TOKEN use it as an ephemeral
session and never touch the session storage.

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  # POSIX shells (bash/zsh/sh)
  eval $(sportsctl auth export)

  # Fish shell
  eval (sportsctl auth export --shell fish)

  # PowerShell
  sportsctl auth export --shell powershell | Invoke-Expression`,
	Annotations: map[string]string{config.AnnotationAuthRequired: "true"},
	RunE:        runExport,
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, c, err := sdkClient(cmd)
	if err != nil {
		return err
	}
	token := c.Session.Token()

	if shellFormat == "" {
		shellFormat = detectShell()
	}
	shell := strings.ToLower(shellFormat)

	vars := [][2]string{{"SPORTS_TOKEN", token}, {"SPORTS_API_URL", cfg.APIURL}}
	switch shell {
	case "posix", "bash", "zsh", "sh":
		printExports(os.Stdout, "eval $(sportsctl auth export)", "export %s=%q\n", vars)
	case "fish":
		printExports(os.Stdout, "eval (sportsctl auth export --shell fish)", "set -x %s %q\n", vars)
	case "powershell", "pwsh", "ps1":
		printExports(os.Stdout, "sportsctl auth export --shell powershell | Invoke-Expression", "$env:%s=%q\n", vars)
	default:
		return fmt.Errorf("unsupported shell format: %s\n\nSupported formats: posix, fish, powershell", shellFormat)
	}
	return nil
}

// detectShell attempts to detect the current shell from the SHELL environment variable
func detectShell() string {
	switch filepath.Base(os.Getenv("SHELL")) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		return "posix"
	}
}

func printExports(out *os.File, usage, format string, vars [][2]string) {
	// Instructions only when stdout is a TTY, not being eval'd
	if isTerminal(out) {
		fmt.Fprintln(os.Stderr, "# Run this command to configure your environment:")
		fmt.Fprintf(os.Stderr, "#   %s\n\n", usage)
	}
	writeExports(out, format, vars)
}

func writeExports(w io.Writer, format string, vars [][2]string) {
	for _, kv := range vars {
		fmt.Fprintf(w, format, kv[0], kv[1])
	}
}
