package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docverify/internal/app"
	"docverify/internal/batch"
	"docverify/internal/platform/postgres"
	refstore "docverify/internal/reference/store"
	resultstore "docverify/internal/verification/store"
	"docverify/pkg/platform/tx"
)

type batchOptions struct {
	manifest string
	stored   bool
	output   string
	format   string
	workers  int
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Verify every applicant of a manifest, or of the reference store with --stored",
		Example: `  verifier batch --manifest applicants.yaml --output report.xlsx
  verifier batch --stored --format csv > report.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "YAML or JSON manifest of applicants")
	cmd.Flags().BoolVar(&opts.stored, "stored", false, "verify the applicants in DATABASE_URL instead of a manifest")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "report file; stdout when empty")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "report format: json, csv or xlsx; inferred from --output")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "concurrent OCR workers; defaults to BATCH_WORKERS")
	cmd.MarkFlagsMutuallyExclusive("manifest", "stored")
	cmd.MarkFlagsOneRequired("manifest", "stored")
	return cmd
}

func runBatch(cmd *cobra.Command, root *rootOptions, opts *batchOptions) error {
	ctx := cmd.Context()
	cfg := root.cfg

	format, err := reportFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Batch.Workers = opts.workers
	}

	var m *manifest
	if opts.manifest != "" {
		m, err = loadManifest(opts.manifest)
		if err != nil {
			return err
		}
		if m.BaseURL != "" {
			cfg.Document.BaseURL = m.BaseURL
		}
	}

	pipeOpts := app.Options{Logger: root.logger, AllowLocal: true}
	var references *refstore.PostgresStore
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		references = refstore.NewPostgres(db)
		pipeOpts.References = references
		pipeOpts.Results = resultstore.NewPostgres(db)
		pipeOpts.Transactor = tx.NewSQL(db, 0)
	} else if opts.stored {
		return errors.New("--stored requires DATABASE_URL")
	}

	pipeline, err := app.NewPipeline(cfg, pipeOpts)
	if err != nil {
		return err
	}
	runner := batch.NewRunner(pipeline.Service, pipeline.Engines,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithLogger(root.logger),
	)

	var report *batch.Report
	if opts.stored {
		svc := batch.NewService(runner, references,
			batch.WithPendingOnly(cfg.Batch.PendingOnly),
			batch.WithServiceLogger(root.logger),
		)
		report, err = svc.RunStored(ctx)
	} else {
		report, err = runner.Run(ctx, m.jobs())
	}
	if err != nil {
		return err
	}

	root.logger.InfoContext(ctx, "batch finished",
		"total", report.Summary.Total,
		"accepted", report.Summary.Accepted,
		"manual_review", report.Summary.ManualReview,
		"failed", report.Summary.Failed,
	)
	return writeReport(cmd.OutOrStdout(), opts.output, format, report)
}

func reportFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch format {
	case "":
		return "json", nil
	case "json", "csv", "xlsx":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
}

func writeReport(stdout io.Writer, output, format string, report *batch.Report) (err error) {
	w := stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	switch format {
	case "csv":
		return report.WriteCSV(w)
	case "xlsx":
		return report.WriteXLSX(w)
	default:
		return report.WriteJSON(w)
	}
}
