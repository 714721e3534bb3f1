package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

const columnGap = "  "

var (
	titler  = cases.Title(language.Und, cases.NoLower)
	printer = message.NewPrinter(language.English)
)

// palette holds per-render colors so concurrent renders with different color
// settings do not touch the package-level color.NoColor switch.
type palette struct {
	header *color.Color
	choice *color.Color
	score  *color.Color
	muted  *color.Color
	warn   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header: color.New(color.FgWhite, color.Underline),
		choice: color.New(color.FgGreen, color.Bold),
		score:  color.New(color.FgCyan),
		muted:  color.New(color.FgHiBlack),
		warn:   color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.header, p.choice, p.score, p.muted, p.warn} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

type tableRenderer struct {
	opts options
}

func (r *tableRenderer) Render(w io.Writer, p *plan.StackPlan) error {
	pal := newPalette(r.opts.color)

	rows := make([][]string, 0, len(p.Decisions))
	for _, d := range p.Decisions {
		rows = append(rows, []string{
			DisplayTopic(d.Topic),
			d.Choice,
			fmt.Sprintf("%.3f", d.Score),
			strings.Join(d.Alternatives, ", "),
		})
	}
	styles := []*color.Color{nil, pal.choice, pal.score, pal.muted}
	if err := writeTable(w, pal.header, []string{"CATEGORY", "CHOICE", "SCORE", "ALTERNATIVES"}, rows, styles); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "Estimated monthly cost: %s\n", FormatUSD(p.Estimated.MonthlyCostUSD))
	for _, note := range p.Estimated.Notes {
		fmt.Fprintf(&b, "%s %s\n", pal.warn.Sprint("note:"), note)
	}
	fmt.Fprintf(&b, "%s %d\n", pal.muted.Sprint("seed:"), p.Meta.Seed)
	fmt.Fprintf(&b, "%s %s\n", pal.muted.Sprint("plan:"), p.Meta.PlanHash)
	_, err := io.WriteString(w, b.String())
	return err
}

// writeTable pads every cell to its column's display width before coloring
// so escape sequences never skew alignment.
func writeTable(w io.Writer, header *color.Color, headings []string, rows [][]string, styles []*color.Color) error {
	widths := make([]int, len(headings))
	for i, h := range headings {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(int, string) string) {
		for i, cell := range cells {
			last := i == len(cells)-1
			padded := cell
			if !last {
				padded = runewidth.FillRight(cell, widths[i])
			}
			b.WriteString(style(i, padded))
			if !last {
				b.WriteString(columnGap)
			}
		}
		b.WriteString("\n")
	}

	writeRow(headings, func(_ int, s string) string { return header.Sprint(s) })
	for _, row := range rows {
		writeRow(row, func(i int, s string) string {
			if i < len(styles) && styles[i] != nil && strings.TrimSpace(s) != "" {
				return styles[i].Sprint(s)
			}
			return s
		})
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// DisplayTopic turns a category key into a heading: "backend" becomes
// "Backend", short words are treated as acronyms ("ai" is "AI", "ci_cd" is
// "CI/CD").
func DisplayTopic(topic string) string {
	words := strings.Split(topic, "_")
	acronym := true
	for _, word := range words {
		if len(word) > 2 {
			acronym = false
			break
		}
	}
	if acronym {
		return strings.ToUpper(strings.Join(words, "/"))
	}
	return titler.String(strings.Join(words, " "))
}

// FormatUSD renders an amount in US dollars with grouping, e.g. "$1,250.00".
func FormatUSD(amount float64) string {
	return printer.Sprintf("$%.2f", amount)
}
