package users

import (
	"fmt"
	"time"

	"github.com/manolisziCy/sports/cmd/sportsctl/internal/config"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// UsersCmd is the parent command for account administration
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer user accounts",
	Long:  `Commands for listing, inspecting and editing user accounts. Requires the admin role.`,
}

func init() {
	for _, c := range []*cobra.Command{listCmd, getCmd, createCmd, updateCmd, deleteCmd} {
		c.Annotations = map[string]string{
			config.AnnotationAuthRequired: "true",
			config.AnnotationAuthorize:    sdk.RoleAdmin,
		}
		UsersCmd.AddCommand(c)
	}
}

func sdkClient(cmd *cobra.Command) (*config.GlobalConfig, *sdk.Client, error) {
	cfg := config.MustFromContext(cmd.Context())
	c, err := cfg.SDKClient(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

func renderUsers(records []sdk.UserRecord) error {
	data := pterm.TableData{{"ID", "USERNAME", "STATUS", "ROLE", "AMKA", "CREATED", "LAST LOGIN"}}
	for _, u := range records {
		data = append(data, []string{
			string(u.ID), u.Username, dash(u.Status), dash(u.Role), dash(u.Amka), stamp(u.CreatedAt), stamp(u.LastLogin),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func renderUser(u *sdk.UserRecord) error {
	pterm.DefaultSection.Println(u.Username)
	return pterm.DefaultTable.WithData(pterm.TableData{
		{"ID", string(u.ID)},
		{"Status", dash(u.Status)},
		{"Role", dash(u.Role)},
		{"AMKA", dash(u.Amka)},
		{"Created", stamp(u.CreatedAt)},
		{"Last login", stamp(u.LastLogin)},
	}).Render()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func stamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func requireFound(u *sdk.UserRecord, id string) error {
	if u == nil {
		return fmt.Errorf("user %s could not be loaded", id)
	}
	return nil
}
