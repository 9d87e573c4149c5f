package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/sqlmap/engine"
	"github.com/Konsultn-Engineering/sqlmap/page"
)

func newQueryCommand() *cobra.Command {
	var params string
	cmd := &cobra.Command{
		Use:   "query <namespace.id>",
		Short: "Run a select statement and print its rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, id, err := splitStatement(args[0])
			if err != nil {
				return err
			}
			env, err := parseParams(params)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			rows, err := engine.EvalTyped[[]map[string]any](cmd.Context(), s.engine, ns, id, env)
			if err != nil {
				return err
			}
			return encodeJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&params, "params", "p", "", "statement parameters as a JSON object")
	return cmd
}

func newPageCommand() *cobra.Command {
	var (
		params  string
		current int64
		size    int64
	)
	cmd := &cobra.Command{
		Use:     "page <namespace.id>",
		Short:   "Run a paged select and print the page as JSON",
		Example: `  sqlmap page users.search --current 2 --size 20`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, id, err := splitStatement(args[0])
			if err != nil {
				return err
			}
			env, err := parseParams(params)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := engine.SelectPage[map[string]any](cmd.Context(), s.engine, ns, id, env, page.New(current, size))
			if err != nil {
				return err
			}
			return encodeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&params, "params", "p", "", "statement parameters as a JSON object")
	cmd.Flags().Int64Var(&current, "current", 1, "page number, counting from 1")
	cmd.Flags().Int64Var(&size, "size", 10, "page size; 0 returns the total only")
	return cmd
}

func newExecCommand() *cobra.Command {
	var params string
	cmd := &cobra.Command{
		Use:   "exec <namespace.id>",
		Short: "Run an insert, update or delete statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, id, err := splitStatement(args[0])
			if err != nil {
				return err
			}
			env, err := parseParams(params)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.engine.Exec(cmd.Context(), ns, id, env)
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), fmt.Sprintf("%d rows affected", n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&params, "params", "p", "", "statement parameters as a JSON object")
	return cmd
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
