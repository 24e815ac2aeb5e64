package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/erdview/internal/diagram"
	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/filestore/minio"
)

func newVisualizeCommand(a *app) *cobra.Command {
	var (
		format string
		out    string
		bucket string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Introspect the database and export a laid-out ERD",
		Example: `  erdview visualize --format mermaid --out shop.mmd
  erdview visualize --format yaml --bucket erd --key shop.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			f, err := diagram.ParseFormat(format)
			if err != nil {
				return err
			}
			upload := bucket != "" || key != ""
			if upload && !a.cfg.Export.Enabled() {
				return errs.New(errs.ErrKindInvalidInput, "export.endpoint must be configured to upload diagrams")
			}

			if err := a.connect(ctx); err != nil {
				return err
			}
			svc, err := a.diagrams()
			if err != nil {
				return err
			}
			d, err := svc.Visualize(ctx, nil)
			if err != nil {
				return err
			}
			reportSummary(cmd, d)

			if upload {
				store, err := minio.New(ctx, &a.cfg.Export)
				if err != nil {
					return err
				}
				defer store.Close()

				if bucket == "" {
					bucket = a.cfg.Export.Bucket
				}
				info, err := diagram.Export(ctx, store, bucket, key, d, f)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "uploaded %s/%s (%d bytes)\n", info.Bucket, info.Key, info.Size)
				return nil
			}

			if out == "" || out == "-" {
				return diagram.Encode(cmd.OutOrStdout(), d, f)
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := diagram.Encode(file, d, f); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format (json|yaml|mermaid)")
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Upload to this bucket (default: export.bucket)")
	cmd.Flags().StringVar(&key, "key", "", "Object key for the upload (default: timestamped name)")
	cmd.Flags().Int("concurrency", 0, "Tables introspected at once")
	cmd.Flags().String("direction", "", "Layout direction (TB|LR)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml", "mermaid"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// reportSummary prints what the pass skipped, if anything.
func reportSummary(cmd *cobra.Command, d *diagram.Diagram) {
	w := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(w, "%d tables, %d relationships\n", len(d.Graph.Nodes), len(d.Graph.Edges))

	r := d.Report
	if r == nil || r.Clean() {
		return
	}
	for _, s := range r.SkippedSchemas {
		_, _ = fmt.Fprintf(w, "skipped schema %s: %s\n", s.Schema, s.Reason)
	}
	for _, s := range r.SkippedTables {
		_, _ = fmt.Fprintf(w, "skipped table %s.%s: %s\n", s.Schema, s.Table, s.Reason)
	}
	for _, s := range r.DegradedTables {
		_, _ = fmt.Fprintf(w, "no relationships for %s.%s: %s\n", s.Schema, s.Table, s.Reason)
	}
	for _, u := range r.UnmatchedForeignKeys {
		_, _ = fmt.Fprintf(w, "dropped reference %s.%s.%s -> %s\n", u.Schema, u.Table, u.Column, u.Target)
	}
}
