package users

import (
	"fmt"

	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	listLastID   string
	listLimit    int
	listForward  bool
	listSortDesc bool
	listFilters  map[string]string
	listRefresh  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	Long: `Lists one page of user accounts. Filters match case-insensitively on
username, status, role or amka:

  sportsctl users list --filter status=pending --filter role=user

The unfiltered first page is cached (SPORTS_CACHE_TTL) and reused by later
invocations while fresh; --refresh fetches it again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := sdkClient(cmd)
		if err != nil {
			return err
		}
		criteria := sdk.ListCriteria{
			LastID:   listLastID,
			Limit:    listLimit,
			Forward:  listForward,
			SortDesc: listSortDesc,
			Filters:  listFilters,
		}

		var records []sdk.UserRecord
		if criteria.IsFirstPage() && !listRefresh {
			records = c.GetUsers(cmd.Context(), criteria)
			if err := cfg.Outcome(); err != nil && len(records) == 0 {
				return err
			}
		} else {
			if records, err = c.ListUsers(cmd.Context(), criteria); err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			if criteria.IsFirstPage() {
				c.Users.Persist(records)
			}
		}
		if len(records) == 0 {
			pterm.Info.Println("No users found")
			return nil
		}
		return renderUsers(records)
	},
}

func init() {
	listCmd.Flags().StringVar(&listLastID, "last-id", "", "Page cursor: the id of the last user seen")
	listCmd.Flags().IntVar(&listLimit, "limit", sdk.DefaultPageSize, "Page size")
	listCmd.Flags().BoolVar(&listForward, "forward", true, "Page forward from --last-id")
	listCmd.Flags().BoolVar(&listSortDesc, "sort-desc", false, "Sort descending")
	listCmd.Flags().BoolVar(&listRefresh, "refresh", false, "Bypass the cached first page")
	listCmd.Flags().StringToStringVar(&listFilters, "filter", nil, "Filter as field=value (repeatable)")
}
