package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func whoamiCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Long: "Show the user the host launched the app for and whether the\n" +
			"backend accepted its init data. Without --init-data the client runs\n" +
			"detached and there is no user.",
		Example: `  cmart whoami --init-data "$CLASSMART_INIT_DATA"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.identity.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a.identity.Start(ctx)
			st, err := a.identity.Wait(ctx)
			if err != nil {
				a.log.Warn("identity handshake did not finish", "error", err)
				st = a.identity.State()
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), st)
			}
			return printIdentity(cmd.OutOrStdout(), &st)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "how long to wait for the backend handshake")
	return cmd
}
