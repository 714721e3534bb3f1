package reporting

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/xkilldash9x/runeforge/internal/catalog"
	"github.com/xkilldash9x/runeforge/internal/selection"
)

// RenderExplanation writes the scored candidate table for each category in
// ex. When only is non-empty, other categories are skipped.
func RenderExplanation(w io.Writer, ex *selection.Explanation, only []catalog.Category, opts ...Option) error {
	o := newOptions(opts)
	pal := newPalette(o.color)

	fmt.Fprintf(w, "Project: %s  seed: %d  language: %s\n", ex.Project, ex.Seed, ex.Language)
	if !ex.Normalized {
		fmt.Fprintf(w, "%s rule weights sum to %.4f, scores may leave [0,1]\n", pal.warn.Sprint("warning:"), ex.WeightSum)
	}

	for _, cr := range ex.Categories {
		if len(only) > 0 && !contains(only, cr.Category) {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", pal.choice.Sprint(DisplayTopic(cr.Category.String())))

		rows := make([][]string, 0, len(cr.Candidates))
		for _, c := range cr.Candidates {
			status := "ok"
			if !c.Admissible {
				status = "rejected: " + string(c.Rejected)
			}
			name := c.Name
			if c.Preferred {
				name += " *"
			}
			rows = append(rows, []string{
				name,
				fmt.Sprintf("%.3f", c.Breakdown.Score),
				FormatUSD(c.Cost),
				status,
			})
		}
		styles := []*color.Color{nil, pal.score, nil, pal.muted}
		if err := writeTable(w, pal.header, []string{"CANDIDATE", "SCORE", "COST", "STATUS"}, rows, styles); err != nil {
			return err
		}
	}
	return nil
}

func contains(cats []catalog.Category, c catalog.Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}

// RenderExplanationJSON writes ex as indented JSON, keeping only the
// categories in only when it is non-empty.
func RenderExplanationJSON(w io.Writer, ex *selection.Explanation, only []catalog.Category) error {
	out := *ex
	if len(only) > 0 {
		out.Categories = nil
		for _, cr := range ex.Categories {
			if contains(only, cr.Category) {
				out.Categories = append(out.Categories, cr)
			}
		}
	}
	return writeJSON(w, &out)
}
