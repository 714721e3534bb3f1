package selection

import (
	"sort"

	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/catalog"
)

// CandidateReport is one row of an explanation.
type CandidateReport struct {
	Name       string    `json:"name"`
	Admissible bool      `json:"admissible"`
	Rejected   Violation `json:"rejected,omitempty"`
	Preferred  bool      `json:"preferred,omitempty"`
	Cost       float64   `json:"monthly_cost_base"`
	Breakdown  Breakdown `json:"breakdown"`
}

// CategoryReport lists every candidate of a category with its verdict.
type CategoryReport struct {
	Category   catalog.Category  `json:"category"`
	Candidates []CandidateReport `json:"candidates"`
}

// Explanation is the scored candidate table for a blueprint, computed without
// selecting anything beyond the language the other categories depend on.
type Explanation struct {
	Project    string           `json:"project"`
	Seed       uint64           `json:"seed"`
	Language   string           `json:"language"`
	WeightSum  float64          `json:"weight_sum"`
	Normalized bool             `json:"weights_normalized"`
	Categories []CategoryReport `json:"categories"`
}

// Explain scores every candidate of every category against bp. Rejected
// candidates keep their scores so the table shows what they would have had.
func (e *Engine) Explain(bp *blueprint.Blueprint) (*Explanation, error) {
	lang, err := e.selectCategory(catalog.Language, bp, "")
	if err != nil {
		return nil, err
	}

	out := &Explanation{
		Project:    bp.ProjectName,
		Seed:       e.seed,
		Language:   lang.Choice,
		WeightSum:  e.rules.WeightSum(),
		Normalized: e.rules.WeightsNormalized(),
	}
	for _, cat := range catalog.All() {
		language := lang.Choice
		if cat == catalog.Language {
			language = ""
		}
		out.Categories = append(out.Categories, e.explainCategory(cat, bp, language))
	}
	return out, nil
}

func (e *Engine) explainCategory(cat catalog.Category, bp *blueprint.Blueprint, language string) CategoryReport {
	pool, _ := languagePool(e.rules.Candidates(cat), cat, bp)
	inPool := make(map[string]bool, len(pool))
	for _, c := range pool {
		inPool[c.Name] = true
	}

	prefs := map[string]bool{}
	if cat != catalog.AI {
		for _, p := range bp.Prefs.For(cat) {
			prefs[p] = true
		}
	}

	report := CategoryReport{Category: cat}
	for _, c := range e.rules.Candidates(cat) {
		v := ViolationLanguageMode
		if inPool[c.Name] {
			v = Check(c, cat, bp, language)
		}
		report.Candidates = append(report.Candidates, CandidateReport{
			Name:       c.Name,
			Admissible: v == ViolationNone,
			Rejected:   v,
			Preferred:  prefs[c.Name],
			Cost:       c.MonthlyCostBase,
			Breakdown:  ScoreBreakdown(e.rules.Weights, c.Metrics, bp.TrafficProfile),
		})
	}
	sort.SliceStable(report.Candidates, func(i, j int) bool {
		a, b := report.Candidates[i], report.Candidates[j]
		if a.Admissible != b.Admissible {
			return a.Admissible
		}
		return a.Breakdown.Score > b.Breakdown.Score
	})
	return report
}
