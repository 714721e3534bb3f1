package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/catalog"
	"github.com/xkilldash9x/runeforge/internal/config"
	"github.com/xkilldash9x/runeforge/internal/reporting"
	"github.com/xkilldash9x/runeforge/internal/selection"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

type explainOptions struct {
	blueprintPath string
	categories    []string
	asJSON        bool
}

func newExplainCmd() *cobra.Command {
	var (
		opts      explainOptions
		seed      uint64
		rulesPath string
	)

	explainCmd := &cobra.Command{
		Use:   "explain",
		Short: "Show how every candidate scores against a blueprint",
		Long: `Scores every candidate in the rules catalog against the blueprint and shows
which hard constraint, if any, rejects it. Nothing is selected beyond the
language the other categories depend on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.SetEngineSeed(seed)
			}
			if cmd.Flags().Changed("rules") {
				cfg.SetEngineRulesPath(rulesPath)
			}
			return runExplain(ctx, getLoggerFromContext(ctx), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	explainCmd.Flags().StringVarP(&opts.blueprintPath, "file", "f", "", "Blueprint file (YAML or JSON), or - for stdin (required)")
	_ = explainCmd.MarkFlagRequired("file")
	explainCmd.Flags().StringSliceVar(&opts.categories, "category", nil, "Only show these categories (repeatable, e.g. backend)")
	explainCmd.Flags().BoolVar(&opts.asJSON, "json", false, "Emit the explanation as JSON")
	explainCmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "Seed used only to break exact score ties")
	explainCmd.Flags().StringVar(&rulesPath, "rules", "", "Rules catalog file (default is the embedded catalog)")

	return explainCmd
}

func runExplain(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	opts explainOptions,
	stdin io.Reader,
	stdout io.Writer,
) error {
	only := make([]catalog.Category, 0, len(opts.categories))
	for _, name := range opts.categories {
		cat, err := catalog.ParseCategory(name)
		if err != nil {
			return &stackerr.ValidationError{Field: "--category", Rule: fmt.Sprintf("unknown category %q", name)}
		}
		only = append(only, cat)
	}

	data, err := readInput(opts.blueprintPath, stdin)
	if err != nil {
		return err
	}
	metrics := getMetricsFromContext(ctx)
	defer metrics.LogSummary(logger)

	bp, err := blueprint.Load(data)
	if err != nil {
		return err
	}
	metrics.RecordValidation()
	rules, err := loadRules(cfg.Engine().RulesPath)
	if err != nil {
		return err
	}

	ex, err := selection.New(rules, cfg.Engine().Seed, selection.WithLogger(logger)).Explain(bp)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if opts.asJSON {
		if err := reporting.RenderExplanationJSON(&buf, ex, only); err != nil {
			return err
		}
	} else {
		mode := resolveOutput(cfg.Output(), stdout, false)
		if err := reporting.RenderExplanation(&buf, ex, only, mode.options()...); err != nil {
			return err
		}
	}
	return emit(stdout, "", buf.Bytes())
}
