package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/sqlmap/connector"
	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
	"github.com/Konsultn-Engineering/sqlmap/value"
)

// renderOutput is the JSON form of a rendered statement.
type renderOutput struct {
	Statement string `json:"statement"`
	SQL       string `json:"sql"`
	Args      []any  `json:"args"`
}

func newRenderCommand() *cobra.Command {
	var (
		params string
		inline bool
		count  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "render <namespace.id>",
		Short: "Render a statement without running it",
		Example: `  # Show the SQL and bound arguments
  sqlmap render users.search --params '{"name":"a%","ids":[1,2]}'

  # Inline the arguments as literals for debugging
  sqlmap render users.search --params '{"ids":[1]}' --inline

  # Show the count query a paged select would run
  sqlmap render users.search --count`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, id, err := splitStatement(args[0])
			if err != nil {
				return err
			}
			env, err := parseParams(params)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			render := s.engine.Render
			if count {
				render = s.engine.RenderCount
			}
			sql, bound, err := render(ns, id, env)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case asJSON:
				if bound == nil {
					bound = []any{}
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(renderOutput{Statement: args[0], SQL: sql, Args: bound})
			case inline:
				writeLine(w, dialect.Inline(s.engine.Dialect(), sql, bound))
			default:
				writeLine(w, sql)
				for i, a := range bound {
					writeLine(w, fmt.Sprintf("  -- %d: %s", i+1, s.engine.Dialect().RenderValue(a)))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&params, "params", "p", "", "statement parameters as a JSON object")
	cmd.Flags().BoolVar(&inline, "inline", false, "inline arguments as SQL literals")
	cmd.Flags().BoolVar(&count, "count", false, "render the companion count query")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print SQL and arguments as JSON")
	return cmd
}

// parseParams reads a JSON parameter object. Integers stay integers.
func parseParams(s string) (value.Value, error) {
	if s == "" {
		return value.Object(nil), nil
	}
	v, err := value.FromJSON([]byte(s))
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid --params: %w", err)
	}
	return v, nil
}

func connectionDatabase(c *connector.Connection) database.Database {
	if c == nil {
		return nil
	}
	return c.Database
}
