package plan

import (
	"fmt"
	"math"

	"github.com/xkilldash9x/runeforge/internal/fingerprint"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

// MaxAlternatives is the number of runner-up names a decision may list.
const MaxAlternatives = 3

// Validate runs the semantic checks on a produced plan.
func Validate(p *StackPlan) error {
	if c := p.Estimated.MonthlyCostUSD; c < 0 || math.IsNaN(c) {
		return &stackerr.ValidationError{Field: "estimated.monthly_cost_usd", Rule: "must be non-negative"}
	}
	for i, d := range p.Decisions {
		if d.Score < 0 || d.Score > 1 || math.IsNaN(d.Score) {
			return &stackerr.ValidationError{
				Field: fmt.Sprintf("decisions[%d].score", i),
				Rule:  fmt.Sprintf("for %s must be between 0 and 1", d.Topic),
			}
		}
		if len(d.Reasons) == 0 {
			return &stackerr.ValidationError{Field: fmt.Sprintf("decisions[%d].reasons", i), Rule: "must not be empty"}
		}
		if len(d.Alternatives) > MaxAlternatives {
			return &stackerr.ValidationError{
				Field: fmt.Sprintf("decisions[%d].alternatives", i),
				Rule:  fmt.Sprintf("must list at most %d names", MaxAlternatives),
			}
		}
		if i > 0 && p.Decisions[i-1].Score < d.Score {
			return &stackerr.ValidationError{Field: "decisions", Rule: "must be sorted by score descending"}
		}
	}
	return nil
}

// Verify recomputes the plan fingerprint and compares it with meta.plan_hash.
func Verify(p *StackPlan) error {
	if err := fingerprint.Check(p.Meta.PlanHash); err != nil {
		return &stackerr.ValidationError{Field: "meta.plan_hash", Rule: fmt.Sprintf("is malformed: %v", err)}
	}
	if err := fingerprint.Check(p.Meta.BlueprintHash); err != nil {
		return &stackerr.ValidationError{Field: "meta.blueprint_hash", Rule: fmt.Sprintf("is malformed: %v", err)}
	}
	want, err := Fingerprint(p)
	if err != nil {
		return err
	}
	if want != p.Meta.PlanHash {
		return &stackerr.ValidationError{
			Field: "meta.plan_hash",
			Rule:  fmt.Sprintf("does not match plan content (expected %s)", want),
		}
	}
	return nil
}
