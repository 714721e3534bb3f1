package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

type markdownRenderer struct {
	opts options
}

func (r *markdownRenderer) Render(w io.Writer, p *plan.StackPlan) error {
	doc := Markdown(p)
	if !r.opts.terminal {
		_, err := io.WriteString(w, doc)
		return err
	}

	style := "dark"
	if !r.opts.color {
		style = "notty"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(r.opts.width),
	)
	if err != nil {
		return errors.Wrap(err, "create markdown renderer")
	}
	out, err := tr.Render(doc)
	if err != nil {
		return errors.Wrap(err, "render markdown")
	}
	_, err = io.WriteString(w, out)
	return err
}

// Markdown returns the plan as a markdown summary.
func Markdown(p *plan.StackPlan) string {
	var b strings.Builder
	b.WriteString("# Stack plan\n\n")
	b.WriteString("| Category | Choice | Score | Alternatives |\n")
	b.WriteString("|---|---|---:|---|\n")
	for _, d := range p.Decisions {
		alts := strings.Join(d.Alternatives, ", ")
		if alts == "" {
			alts = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %.3f | %s |\n",
			DisplayTopic(d.Topic), escapeCell(d.Choice), d.Score, escapeCell(alts))
	}

	b.WriteString("\n## Rationale\n\n")
	for _, d := range p.Decisions {
		fmt.Fprintf(&b, "**%s: %s**\n\n", DisplayTopic(d.Topic), d.Choice)
		for _, reason := range d.Reasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Estimate\n\n")
	fmt.Fprintf(&b, "Monthly cost: **%s**\n", FormatUSD(p.Estimated.MonthlyCostUSD))
	if len(p.Estimated.Notes) > 0 {
		b.WriteString("\n")
		for _, note := range p.Estimated.Notes {
			fmt.Fprintf(&b, "> %s\n", note)
		}
	}

	b.WriteString("\n## Reproducibility\n\n")
	fmt.Fprintf(&b, "- Seed: `%d`\n", p.Meta.Seed)
	fmt.Fprintf(&b, "- Blueprint: `%s`\n", p.Meta.BlueprintHash)
	fmt.Fprintf(&b, "- Plan: `%s`\n", p.Meta.PlanHash)
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
