// Package cli provides the erdview command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/erdview/internal/catalog"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd()
}

// newRootCmd builds the command tree. opts are passed to the catalog client.
func newRootCmd(opts ...catalog.Option) *cobra.Command {
	a := &app{clientOpts: opts}

	rootCmd := &cobra.Command{
		Use:   "erdview",
		Short: "erdview - database schema explorer and ERD generator",
		Long: `erdview introspects a PostgreSQL or MySQL database and renders its tables
and foreign keys as a laid-out entity-relationship diagram.

It can list schemas, tables and columns, run ad-hoc queries, export diagrams
as JSON, YAML or Mermaid, and serve everything over an HTTP API.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./erdview.yaml)")
	pf.StringVarP(&a.output, "output", "o", "table", "Output format for listings (table|json)")
	pf.String("host", "", "Database host")
	pf.Int("port", 0, "Database port (default: engine default)")
	pf.StringP("user", "U", "", "Database user")
	pf.String("password", "", "Database password")
	pf.StringP("database", "d", "", "Database name")
	pf.String("tls-mode", "", "TLS mode (disable|prefer|require|verify-full)")
	pf.String("driver", "", "Database engine (postgres|mysql)")
	pf.Duration("connect-timeout", 0, "Timeout for opening a session")
	pf.Duration("query-timeout", 0, "Timeout for each catalog call and query")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (console|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(catalog.DriverPostgres), string(catalog.DriverMySQL)}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newVersionCommand(),
		newServeCommand(a),
		newSchemasCommand(a),
		newTablesCommand(a),
		newColumnsCommand(a),
		newRelationsCommand(a),
		newQueryCommand(a),
		newVisualizeCommand(a),
	)
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
