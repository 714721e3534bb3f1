package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/config"
	"github.com/xkilldash9x/runeforge/internal/observability"
	"github.com/xkilldash9x/runeforge/internal/plan"
	"github.com/xkilldash9x/runeforge/internal/reporting"
	"github.com/xkilldash9x/runeforge/internal/schema"
	"github.com/xkilldash9x/runeforge/internal/selection"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

type planOptions struct {
	blueprintPath string
	outPath       string
	metricsPath   string
}

// newPlanCmd creates and configures the `plan` command.
func newPlanCmd() *cobra.Command {
	var (
		opts      planOptions
		seed      uint64
		rulesPath string
		format    string
		strict    bool
	)

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Select a technology stack for a blueprint",
		Long: `Reads a YAML or JSON blueprint, selects one technology per category from the
rules catalog and writes the sealed stack plan. Exit codes: 1 for input errors,
2 when the produced plan fails output validation, 3 when no stack satisfies the
constraints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			// Flags given explicitly override the configuration file and environment.
			if cmd.Flags().Changed("seed") {
				cfg.SetEngineSeed(seed)
			}
			if cmd.Flags().Changed("rules") {
				cfg.SetEngineRulesPath(rulesPath)
			}
			if cmd.Flags().Changed("strict") {
				cfg.SetEngineStrict(strict)
			}
			if cmd.Flags().Changed("format") {
				if !config.IsKnownFormat(format) {
					return &stackerr.ValidationError{Field: "--format", Rule: fmt.Sprintf("must be one of %v", config.Formats)}
				}
				cfg.SetOutputFormat(format)
			}

			return runPlan(ctx, getLoggerFromContext(ctx), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	planCmd.Flags().StringVarP(&opts.blueprintPath, "file", "f", "", "Blueprint file (YAML or JSON), or - for stdin (required)")
	_ = planCmd.MarkFlagRequired("file")
	planCmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "Seed used only to break exact score ties")
	planCmd.Flags().StringVar(&rulesPath, "rules", "", "Rules catalog file (default is the embedded catalog)")
	planCmd.Flags().StringVar(&opts.outPath, "out", "", "Write the plan to this file instead of stdout")
	planCmd.Flags().StringVar(&format, "format", "json", "Output format: json, yaml, xml, table or markdown")
	planCmd.Flags().BoolVar(&strict, "strict", false, "Also validate the blueprint against its JSON schema")
	planCmd.Flags().StringVar(&opts.metricsPath, "metrics-out", "", "Write run metrics to this file (Prometheus text, or JSON for a .json path)")

	return planCmd
}

// runPlan contains the core, testable logic of the plan command.
func runPlan(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	opts planOptions,
	stdin io.Reader,
	stdout io.Writer,
) (err error) {
	done := observability.StartOperation(logger, "plan")
	defer done()

	metrics := getMetricsFromContext(ctx)
	defer func() {
		metrics.LogSummary(logger)
		if opts.metricsPath == "" {
			return
		}
		// Metrics are written for failed runs too.
		if werr := writeMetrics(metrics, opts.metricsPath); werr != nil && err == nil {
			err = werr
		}
	}()

	p, err := buildPlan(logger, cfg, metrics, opts.blueprintPath, stdin)
	if err != nil {
		return err
	}

	toFile := opts.outPath != "" && opts.outPath != "-"
	var buf bytes.Buffer
	if err := reporting.Render(&buf, p, cfg.Output().Format, resolveOutput(cfg.Output(), stdout, toFile).options()...); err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}
	if err := emit(stdout, opts.outPath, buf.Bytes()); err != nil {
		return err
	}
	if toFile {
		logger.Info("Plan written to file", zap.String("path", opts.outPath), zap.String("format", cfg.Output().Format))
	}
	return nil
}

// buildPlan reads, validates and selects. The returned plan has passed both
// semantic and schema validation.
func buildPlan(logger *zap.Logger, cfg config.Interface, metrics *observability.Metrics, blueprintPath string, stdin io.Reader) (*plan.StackPlan, error) {
	data, err := readInput(blueprintPath, stdin)
	if err != nil {
		observability.SelectionFailed(logger, "read_blueprint", err)
		return nil, err
	}

	bp, format, err := blueprint.Parse(data)
	if err != nil {
		observability.SelectionFailed(logger, "blueprint_validation", err)
		return nil, err
	}
	observability.BlueprintParsed(logger, len(data), string(format))

	if err := blueprint.Validate(bp); err != nil {
		observability.SelectionFailed(logger, "blueprint_validation", err)
		return nil, err
	}
	metrics.RecordValidation()
	if cfg.Engine().Strict {
		if err := schema.ValidateBlueprint(data); err != nil {
			observability.SelectionFailed(logger, "blueprint_schema", err)
			return nil, err
		}
	}

	rules, err := loadRules(cfg.Engine().RulesPath)
	if err != nil {
		observability.SelectionFailed(logger, "rules", err)
		return nil, err
	}

	engine := selection.New(rules, cfg.Engine().Seed, selection.WithLogger(logger), selection.WithMetrics(metrics))
	p, err := engine.Select(bp)
	if err != nil {
		// The engine has already logged the failure.
		return nil, err
	}

	if err := plan.Validate(p); err != nil {
		return nil, &stackerr.OutputSchemaError{Err: err}
	}
	if err := schema.ValidatePlan(p); err != nil {
		return nil, &stackerr.OutputSchemaError{Err: err}
	}
	return p, nil
}
