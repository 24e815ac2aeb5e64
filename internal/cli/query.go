package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koustreak/erdview/internal/errs"
)

func newQueryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL statement and print the result",
		Example: `  erdview query "SELECT id, name FROM customers LIMIT 5"
  erdview query -o json "SELECT count(*) FROM orders"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}

			res, err := a.client.RunQuery(ctx, strings.Join(args, " "))
			if err != nil {
				if d := errs.DiagnosticsOf(err); d != nil {
					printDiagnostics(cmd, d)
				}
				return err
			}

			var header []string
			for _, f := range res.Fields {
				header = append(header, f.Name)
			}
			if header == nil && len(res.Rows) > 0 {
				header = sortedKeys(res.Rows[0])
			}
			rows := make([][]any, 0, len(res.Rows))
			for _, r := range res.Rows {
				row := make([]any, len(header))
				for i, h := range header {
					row[i] = r[h]
				}
				rows = append(rows, row)
			}
			return a.render(cmd.OutOrStdout(), res, header, rows)
		},
	}
}

func printDiagnostics(cmd *cobra.Command, d *errs.Diagnostics) {
	w := cmd.ErrOrStderr()
	if d.Code != "" {
		_, _ = fmt.Fprintf(w, "code:     %s\n", d.Code)
	}
	if d.Position != "" {
		_, _ = fmt.Fprintf(w, "position: %s\n", d.Position)
	}
	if d.Detail != "" {
		_, _ = fmt.Fprintf(w, "detail:   %s\n", d.Detail)
	}
	if d.Hint != "" {
		_, _ = fmt.Fprintf(w, "hint:     %s\n", d.Hint)
	}
}
