package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/algenord/portal/router"
)

var matchCmd = &cobra.Command{
	Use:   "match <path>",
	Short: "Show which route a path selects and the parameters it binds",
	Example: `  portal match /project/7
  portal match '#/admin/users/3/edit'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash := args[0]
		if !strings.HasPrefix(hash, "#") {
			hash = "#" + hash
		}
		path := router.CurrentRoute(hash)

		r := routeTable()
		route, params, ok := r.Match(path)
		if !ok {
			return fmt.Errorf("no route matches %q", path)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "path:    %s\n", path)
		fmt.Fprintf(out, "route:   %s\n", route.Pattern)
		fmt.Fprintf(out, "access:  %s\n", access(r, path))
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "param:   %s=%s\n", k, params[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
