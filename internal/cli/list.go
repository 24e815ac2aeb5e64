package cli

import (
	"github.com/spf13/cobra"
)

func newSchemasCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List user schemas with their table counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			schemas, err := a.client.ListSchemas(ctx)
			if err != nil {
				return err
			}

			rows := make([][]any, 0, len(schemas))
			for _, s := range schemas {
				rows = append(rows, []any{s.Name, s.TableCount})
			}
			return a.render(cmd.OutOrStdout(), schemas, []string{"Schema", "Tables"}, rows)
		},
	}
}

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables <schema>",
		Short: "List the tables of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			tables, err := a.client.ListTables(ctx, args[0])
			if err != nil {
				return err
			}

			rows := make([][]any, 0, len(tables))
			for _, t := range tables {
				rows = append(rows, []any{t.Name, t.ColumnCount, deref(t.Description)})
			}
			return a.render(cmd.OutOrStdout(), tables, []string{"Table", "Columns", "Description"}, rows)
		},
	}
}

func newColumnsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "columns <schema> <table>",
		Aliases: []string{"structure"},
		Short:   "Show the columns of a table",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			cols, err := a.client.GetColumns(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			rows := make([][]any, 0, len(cols))
			for _, c := range cols {
				var keys string
				switch {
				case c.IsPrimaryKey && c.IsForeignKey:
					keys = "PK, FK"
				case c.IsPrimaryKey:
					keys = "PK"
				case c.IsForeignKey:
					keys = "FK"
				}
				rows = append(rows, []any{c.Name, c.DataType, c.IsNullable, keys, deref(c.Default)})
			}
			return a.render(cmd.OutOrStdout(), cols, []string{"Column", "Type", "Nullable", "Key", "Default"}, rows)
		},
	}
}

func newRelationsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relations <schema> <table>",
		Short: "Show the foreign keys of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			fks, err := a.client.GetForeignKeys(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			rows := make([][]any, 0, len(fks))
			for _, fk := range fks {
				rows = append(rows, []any{
					fk.ConstraintName,
					fk.Column,
					fk.ForeignSchema + "." + fk.ForeignTable + "." + fk.ForeignColumn,
				})
			}
			return a.render(cmd.OutOrStdout(), fks, []string{"Constraint", "Column", "References"}, rows)
		},
	}
}
