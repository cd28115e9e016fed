package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"docverify/internal/app"
	"docverify/internal/extraction"
	"docverify/internal/ocr"
	"docverify/internal/verification/handler"
)

type extractResult struct {
	Fields         extraction.Record `json:"fields"`
	Completeness   int               `json:"completeness"`
	Page           int               `json:"page"`
	Rotation       int               `json:"rotation"`
	MeanConfidence float64           `json:"ocr_confidence"`
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <document>",
		Short: "Extract identity fields from a PDF or image without a reference record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pipeline, err := app.NewPipeline(root.cfg, app.Options{Logger: root.logger, AllowLocal: true})
			if err != nil {
				return err
			}
			data, err := pipeline.Fetcher.Fetch(ctx, args[0])
			if err != nil {
				return err
			}

			return withEngine(ctx, pipeline, func(engine ocr.Engine) error {
				page, res, err := pipeline.Service.Extract(ctx, engine, data)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), extractResult{
					Fields:         res.Record,
					Completeness:   res.Completeness,
					Page:           page,
					Rotation:       int(res.Rotation),
					MeanConfidence: math.Round(res.MeanConfidence*100) / 100,
				})
			})
		},
	}
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var referencePath string

	cmd := &cobra.Command{
		Use:     "verify <document>",
		Short:   "Verify a document against one applicant reference record",
		Example: `  verifier verify card.pdf --reference applicant.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ref, err := loadReference(referencePath)
			if err != nil {
				return err
			}

			pipeline, err := app.NewPipeline(root.cfg, app.Options{Logger: root.logger, AllowLocal: true})
			if err != nil {
				return err
			}
			data, err := pipeline.Fetcher.Fetch(ctx, args[0])
			if err != nil {
				return err
			}

			return withEngine(ctx, pipeline, func(engine ocr.Engine) error {
				outcome, err := pipeline.Service.VerifyDocument(ctx, engine, data, ref)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), handler.FromOutcome(outcome))
			})
		},
	}

	cmd.Flags().StringVarP(&referencePath, "reference", "r", "", "YAML or JSON applicant record")
	_ = cmd.MarkFlagRequired("reference")
	return cmd
}

func withEngine(ctx context.Context, pipeline *app.Pipeline, fn func(ocr.Engine) error) error {
	engine, err := pipeline.Engines(ctx)
	if err != nil {
		return fmt.Errorf("start ocr engine: %w", err)
	}
	defer engine.Close()
	return fn(engine)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
