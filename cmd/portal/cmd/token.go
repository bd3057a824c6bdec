package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/algenord/portal/session"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Token diagnostics",
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect <jwt>",
	Short: "Decode a token the way the session store reads it",
	Long: `Decodes the token payload without verifying its signature and prints
the subject, roles and expiry the portal would act on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claims, err := session.Inspect(strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "subject: %s\n", claims.Subject)
		roles := "-"
		if len(claims.Roles) > 0 {
			roles = strings.Join(claims.Roles, ",")
		}
		fmt.Fprintf(out, "roles:   %s\n", roles)
		if claims.ExpiresAt == nil {
			fmt.Fprintln(out, "expires: never (the backend decides)")
			return nil
		}
		exp := claims.ExpiresAt.Time
		state := "valid"
		if exp.Unix() < time.Now().Unix() {
			state = "expired"
		}
		fmt.Fprintf(out, "expires: %s (%s)\n", exp.UTC().Format(time.RFC3339), state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenInspectCmd)
}
