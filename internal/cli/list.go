package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/sqlmap/connector"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded statements by namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(getConfig(cmd.Context()))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, ns := range reg.Namespaces() {
				writeLine(w, ns)
				for _, st := range reg.Statements(ns) {
					writeLine(w, fmt.Sprintf("  %-24s %s", st.ID, st.Kind))
				}
			}
			writeLine(w, fmt.Sprintf("%d statements", reg.Len()))
			return nil
		},
	}
}

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the configured database and print pool statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			conn, err := connector.Open(cmd.Context(), cfg.Driver, cfg.Connection)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Health(cmd.Context()); err != nil {
				return err
			}
			st := conn.Stats()
			writeLine(cmd.OutOrStdout(), fmt.Sprintf("%s ok (open=%d in_use=%d idle=%d)",
				conn.Driver, st.OpenConnections, st.InUse, st.Idle))
			return nil
		},
	}
}
