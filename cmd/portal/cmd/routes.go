package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/algenord/portal/router"
	"github.com/algenord/portal/views"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table in match order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := routeTable()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATTERN\tACCESS\tACTIONS")
		for _, route := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", route.Pattern, access(r, route.Pattern), actionNames(route))
		}
		return w.Flush()
	},
}

// routeTable builds a router over the portal's routes. Views are not run,
// so no backend or storage is needed.
func routeTable() *router.Router {
	return router.New(router.Config{
		Routes: views.Routes(views.Deps{}),
		Public: views.Public,
	})
}

func access(r *router.Router, path string) string {
	if r.IsPublicRoute(path) {
		return "public"
	}
	return "protected"
}

func actionNames(route router.Route) string {
	if len(route.Actions) == 0 {
		return "-"
	}
	names := make([]string, 0, len(route.Actions))
	for name := range route.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
