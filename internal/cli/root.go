// Package cli provides the sqlmap command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/sqlmap/config"
	"github.com/Konsultn-Engineering/sqlmap/connector"
	"github.com/Konsultn-Engineering/sqlmap/engine"
	"github.com/Konsultn-Engineering/sqlmap/loader"
	"github.com/Konsultn-Engineering/sqlmap/registry"

	_ "github.com/Konsultn-Engineering/sqlmap/providers/mysql"
	_ "github.com/Konsultn-Engineering/sqlmap/providers/postgres"
	_ "github.com/Konsultn-Engineering/sqlmap/providers/sqlite"
)

var Version = "0.1.0"

type configKey struct{}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sqlmap",
		Short: "Render and run dynamic SQL mapper statements",
		Long: `sqlmap loads YAML mapper files, renders their dynamic statements against
JSON parameters and optionally runs them on a configured database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./sqlmap.yaml)")
	flags.StringSliceP("mapper", "m", nil, "mapper file or glob, repeatable")
	flags.String("driver", "", "database driver (postgres|mysql|tidb|sqlite)")
	flags.String("dsn", "", "connection string passed to the driver verbatim")
	flags.String("log-level", "", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newPageCommand())
	rootCmd.AddCommand(newExecCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newPingCommand())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	if len(cfg.Mappers) == 0 {
		return nil, fmt.Errorf("no mapper files configured (use --mapper or mappers in the config file)")
	}
	b := registry.NewBuilder()
	if _, err := loader.LoadGlob(b, cfg.Mappers...); err != nil {
		return nil, err
	}
	return b.Build()
}

// session bundles what a command needs to run statements.
type session struct {
	engine *engine.Engine
	conn   *connector.Connection
	logger *slog.Logger
}

func (s *session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// openSession loads the mappers and builds an engine. With connect false the engine
// only renders and the configured dialect is used.
func openSession(cmd *cobra.Command, connect bool) (*session, error) {
	cfg := getConfig(cmd.Context())
	logger := cfg.NewLogger(cmd.ErrOrStderr())

	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	d, err := cfg.ResolveDialect()
	if err != nil {
		return nil, err
	}

	s := &session{logger: logger}
	if connect {
		conn, err := connector.Open(cmd.Context(), cfg.Driver, cfg.Connection)
		if err != nil {
			return nil, err
		}
		s.conn = conn
		if cfg.Dialect == "" {
			d = conn.Dialect
		}
		logger.Debug("connected", "driver", conn.Driver, "dialect", d.Name())
	}

	var db = connectionDatabase(s.conn)
	s.engine, err = engine.New(reg, db,
		engine.WithDialect(d),
		engine.WithLogger(logger),
		engine.WithDecoder(cfg.NewDecoder()),
		engine.WithPlanCache(cfg.Cache.Plans),
		engine.WithExprCache(cfg.Cache.Expressions),
		engine.WithQueryTimeout(cfg.Connection.QueryTimeout),
	)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// splitStatement splits "namespace.id" at the last dot.
func splitStatement(name string) (string, string, error) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "", "", fmt.Errorf("statement %q must be written as namespace.id", name)
	}
	return name[:i], name[i+1:], nil
}

func writeLine(w io.Writer, s string) {
	_, _ = fmt.Fprintln(w, s)
}
