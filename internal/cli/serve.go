package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/erdview/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the JSON API used by the ERD viewer.

When a database is configured it is connected at startup; otherwise clients
connect through POST /api/connect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.HasConnection() {
				if err := a.connect(ctx); err != nil {
					a.log.WarnWith("startup connection failed; waiting for /api/connect", err, nil)
				}
			}

			svc, err := a.diagrams()
			if err != nil {
				return err
			}

			srv := server.New(server.Config{
				Addr:     a.cfg.Server.Addr,
				Catalog:  a.client,
				Diagrams: svc,
				Logger:   a.log,
			})
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default: 127.0.0.1:8080)")
	cmd.Flags().Int("concurrency", 0, "Tables introspected at once")
	cmd.Flags().String("direction", "", "Layout direction (TB|LR)")
	return cmd
}
