package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/config"
	"github.com/koustreak/erdview/internal/diagram"
	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/layout"
	"github.com/koustreak/erdview/internal/logger"
	"github.com/koustreak/erdview/internal/schema"
)

// app holds what every command shares once flags are parsed.
type app struct {
	cfgFile    string
	output     string
	clientOpts []catalog.Option

	cfg    *config.Config
	log    *logger.Logger
	client *catalog.Client
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	switch a.output {
	case "table", "json":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown output format %q (want table or json)", a.output)
	}

	logCfg := cfg.Log
	logCfg.Output = cmd.ErrOrStderr()
	log := logger.New(&logCfg)

	opts := append([]catalog.Option{catalog.WithLogger(log)}, a.clientOpts...)
	client, err := catalog.New(cfg.Catalog.Config, opts...)
	if err != nil {
		return err
	}

	a.cfg, a.log, a.client = cfg, log, client
	return nil
}

func (a *app) close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// connect opens a session to the configured database.
func (a *app) connect(ctx context.Context) error {
	if !a.cfg.HasConnection() {
		return errs.New(errs.ErrKindInvalidInput,
			"no database configured: pass --host and --database or set connection in erdview.yaml")
	}
	res, err := a.client.Connect(ctx, a.cfg.Connection)
	if err != nil {
		return err
	}
	a.log.With().
		Str("session", res.SessionID).
		Str("version", res.EngineVersion).
		Str("target", a.cfg.Connection.Redacted()).
		Logger().Debug("connected")
	return nil
}

// diagrams wires the visualization pipeline from the loaded config.
func (a *app) diagrams() (*diagram.Service, error) {
	eng, err := layout.New(a.cfg.Layout)
	if err != nil {
		return nil, err
	}
	asm := schema.NewAssembler(a.cfg.Catalog.Concurrency, a.log)
	return diagram.NewService(a.client, asm, eng, a.log), nil
}
