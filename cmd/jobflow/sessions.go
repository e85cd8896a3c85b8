package main

import (
	"fmt"

	"jobflow/internal/app"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			n, err := app.NewSessionManager(st.sessions, st, app.SessionConfig{}).DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired sessions\n", n)
			return nil
		},
	})
	return cmd
}
