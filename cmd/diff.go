package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/runeforge/internal/plan"
	"github.com/xkilldash9x/runeforge/internal/plancompare"
	"github.com/xkilldash9x/runeforge/internal/reporting"
)

type diffOptions struct {
	summary    bool
	ignoreMeta bool
	colored    bool
}

func newDiffCmd() *cobra.Command {
	var opts diffOptions

	diffCmd := &cobra.Command{
		Use:   "diff <a.json> <b.json>",
		Short: "Show the differences between two plans",
		Long: `Compares two plan files on their canonical JSON form, so formatting
differences are ignored. Prints a unified diff by default, or one line per
changed category with --summary. Prints nothing when the plans are equal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			opts.colored = resolveOutput(cfg.Output(), cmd.OutOrStdout(), false).color
			return runDiff(getLoggerFromContext(ctx), args[0], args[1], opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	diffCmd.Flags().BoolVar(&opts.summary, "summary", false, "Print one line per changed category instead of a unified diff")
	diffCmd.Flags().BoolVar(&opts.ignoreMeta, "ignore-meta", false, "Ignore the seed and fingerprints")
	return diffCmd
}

func runDiff(logger *zap.Logger, aPath, bPath string, opts diffOptions, stdin io.Reader, stdout io.Writer) error {
	a, err := readPlan(aPath, stdin)
	if err != nil {
		return err
	}
	b, err := readPlan(bPath, stdin)
	if err != nil {
		return err
	}

	cmpOpts := plancompare.DefaultOptions()
	cmpOpts.IgnoreMeta = opts.ignoreMeta
	result := plancompare.NewService(logger).CompareWithOptions(a, b, cmpOpts)
	if result.Equivalent {
		return nil
	}

	if opts.summary {
		_, err := io.WriteString(stdout, summarize(result))
		return err
	}

	if opts.ignoreMeta {
		a.Meta, b.Meta = plan.Meta{}, plan.Meta{}
	}
	out, err := reporting.Diff(a, b, aPath, bPath)
	if err != nil {
		return fmt.Errorf("failed to diff plans: %w", err)
	}
	_, err = io.WriteString(stdout, colorizeDiff(out, opts.colored))
	return err
}

func readPlan(path string, stdin io.Reader) (*plan.StackPlan, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	return plan.Decode(data)
}

// summarize renders one line per changed category plus the cost delta.
func summarize(result *plancompare.ComparisonResult) string {
	var b strings.Builder
	for _, c := range result.Changes {
		topic := reporting.DisplayTopic(c.Topic)
		switch c.Kind {
		case plancompare.ChangeAdded:
			fmt.Fprintf(&b, "%s: added %s\n", topic, c.To)
		case plancompare.ChangeRemoved:
			fmt.Fprintf(&b, "%s: removed %s\n", topic, c.From)
		case plancompare.ChangeChoice:
			fmt.Fprintf(&b, "%s: %s -> %s (score %+.3f)\n", topic, c.From, c.To, c.ScoreDelta)
		case plancompare.ChangeScore:
			fmt.Fprintf(&b, "%s: %s score %+.3f\n", topic, c.To, c.ScoreDelta)
		case plancompare.ChangeRationale:
			fmt.Fprintf(&b, "%s: %s reasons changed\n", topic, c.To)
		}
	}
	if result.CostDelta != 0 {
		sign := "+"
		if result.CostDelta < 0 {
			sign = "-"
		}
		fmt.Fprintf(&b, "Monthly cost: %s%s\n", sign, reporting.FormatUSD(abs(result.CostDelta)))
	}
	if len(result.Changes) == 0 && result.CostDelta == 0 {
		b.WriteString("Plans differ only in metadata\n")
	}
	return b.String()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// colorizeDiff colors added, removed and hunk lines. File headers stay plain.
func colorizeDiff(diff string, enabled bool) string {
	if !enabled {
		return diff
	}
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	for _, c := range []*color.Color{added, removed, hunk} {
		c.EnableColor()
	}

	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		case strings.HasPrefix(line, "@@"):
			lines[i] = hunk.Sprint(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = added.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removed.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}
