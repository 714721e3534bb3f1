package reporting_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

const testBlueprintHash = "sha256:1111111111111111111111111111111111111111111111111111111111111111"

func samplePlan(t *testing.T) *plan.StackPlan {
	t.Helper()
	p, err := plan.NewBuilder().
		AddDecision(plan.Decision{
			Topic:        "language",
			Choice:       "Rust",
			Reasons:      []string{"Highest quality score", "Meets latency target"},
			Alternatives: []string{"Go", "TypeScript"},
			Score:        0.815,
		}).
		AddDecision(plan.Decision{
			Topic:   "ai",
			Choice:  "Claude, OpenAI",
			Reasons: []string{"Best model quality"},
			Score:   0.78,
		}).
		AddDecision(plan.Decision{
			Topic:        "ci_cd",
			Choice:       "GitHub Actions",
			Reasons:      []string{"Lowest operational overhead"},
			Alternatives: []string{"GitLab CI"},
			Score:        0.7,
		}).
		SetStack(plan.Stack{Language: "Rust", AI: []string{"Claude", "OpenAI"}, CICD: "GitHub Actions"}).
		SetEstimate(plan.Estimated{MonthlyCostUSD: 1250, Notes: []string{"hipaa requires: encryption"}}).
		SetMeta(42, testBlueprintHash).
		Seal()
	require.NoError(t, err)
	return p
}
