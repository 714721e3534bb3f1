package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/config"
	"github.com/xkilldash9x/runeforge/internal/observability"
	"github.com/xkilldash9x/runeforge/internal/plan"
	"github.com/xkilldash9x/runeforge/internal/schema"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

type validateOptions struct {
	blueprintPath string
	planPath      string
	rulesPath     string
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a blueprint or a previously written plan",
		Long: `With -f, checks a blueprint for parse errors, semantic errors and schema
violations, and checks the rules catalog it would be planned against.
With --plan, checks a plan file and recomputes its fingerprint to detect edits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rules") {
				cfg.SetEngineRulesPath(opts.rulesPath)
			}
			return runValidate(ctx, getLoggerFromContext(ctx), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	validateCmd.Flags().StringVarP(&opts.blueprintPath, "file", "f", "", "Blueprint file to validate, or - for stdin")
	validateCmd.Flags().StringVar(&opts.planPath, "plan", "", "Plan JSON file to validate and verify")
	validateCmd.Flags().StringVar(&opts.rulesPath, "rules", "", "Rules catalog file (default is the embedded catalog)")
	validateCmd.MarkFlagsMutuallyExclusive("file", "plan")
	validateCmd.MarkFlagsOneRequired("file", "plan")

	return validateCmd
}

func runValidate(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	opts validateOptions,
	stdin io.Reader,
	stdout io.Writer,
) error {
	metrics := getMetricsFromContext(ctx)
	defer metrics.LogSummary(logger)

	switch {
	case opts.planPath != "":
		return validatePlanFile(logger, opts.planPath, stdin, stdout)
	case opts.blueprintPath != "":
		return validateBlueprintFile(logger, cfg, metrics, opts.blueprintPath, stdin, stdout)
	default:
		return errors.New("one of --file or --plan is required")
	}
}

func validateBlueprintFile(logger *zap.Logger, cfg config.Interface, metrics *observability.Metrics, path string, stdin io.Reader, stdout io.Writer) error {
	data, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	bp, format, err := blueprint.Parse(data)
	if err != nil {
		return err
	}
	if err := blueprint.Validate(bp); err != nil {
		return err
	}
	if err := schema.ValidateBlueprint(data); err != nil {
		return err
	}
	metrics.RecordValidation()

	rules, err := loadRules(cfg.Engine().RulesPath)
	if err != nil {
		return err
	}
	if !rules.WeightsNormalized() {
		logger.Warn("Rule weights do not sum to 1.0; scores may leave [0,1]", zap.Float64("weight_sum", rules.WeightSum()))
		fmt.Fprintf(stdout, "warning: rule weights sum to %.4f, not 1.0\n", rules.WeightSum())
	}

	_, err = fmt.Fprintf(stdout, "blueprint %q is valid (%s)\n", bp.ProjectName, format)
	return err
}

func validatePlanFile(logger *zap.Logger, path string, stdin io.Reader, stdout io.Writer) error {
	data, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	p, err := plan.Decode(data)
	if err != nil {
		return err
	}
	if err := schema.ValidatePlan(p); err != nil {
		return &stackerr.OutputSchemaError{Err: err}
	}
	if err := plan.Validate(p); err != nil {
		return &stackerr.OutputSchemaError{Err: err}
	}
	if err := plan.Verify(p); err != nil {
		logger.Warn("Plan fingerprint mismatch", zap.String("path", path), zap.Error(err))
		return err
	}

	_, err = fmt.Fprintf(stdout, "plan is valid, fingerprint %s verified\n", p.Meta.PlanHash)
	return err
}
