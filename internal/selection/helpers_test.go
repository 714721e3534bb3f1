package selection

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/catalog"
)

// fixtureRules builds a rules document with one cheap candidate per category,
// replacing the list of any category named in overrides with the given YAML.
func fixtureRules(t *testing.T, overrides map[catalog.Category]string) *catalog.RulesDocument {
	t.Helper()
	var b strings.Builder
	b.WriteString("version: 1\n")
	b.WriteString("weights: { quality: 0.30, slo: 0.25, cost: 0.20, security: 0.15, ops: 0.10 }\n")
	b.WriteString("candidates:\n")
	for _, cat := range catalog.All() {
		fmt.Fprintf(&b, "  %s:\n", cat)
		if section, ok := overrides[cat]; ok {
			b.WriteString(section)
			continue
		}
		fmt.Fprintf(&b, "    - name: %q\n", "default-"+cat.String())
		b.WriteString("      metrics: { quality: 0.5, slo: 0.5, cost: 0.5, security: 0.5, ops: 0.5 }\n")
		b.WriteString("      regions: [\"*\"]\n")
		b.WriteString("      monthly_cost_base: 10\n")
	}
	b.WriteString("compliance_requirements:\n")
	b.WriteString("  hipaa: { required_features: [\"encryption\", \"audit_log\"] }\n")

	doc, err := catalog.Load([]byte(b.String()))
	require.NoError(t, err, b.String())
	return doc
}

// candidateYAML renders one list entry for fixtureRules overrides.
func candidateYAML(name string, metric float64, cost float64, extra ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "    - name: %q\n", name)
	fmt.Fprintf(&b, "      metrics: { quality: %[1]g, slo: %[1]g, cost: %[1]g, security: %[1]g, ops: %[1]g }\n", metric)
	b.WriteString("      regions: [\"*\"]\n")
	fmt.Fprintf(&b, "      monthly_cost_base: %g\n", cost)
	for _, e := range extra {
		b.WriteString("      " + e + "\n")
	}
	return b.String()
}

func defaultRules(t *testing.T) *catalog.RulesDocument {
	t.Helper()
	doc, err := catalog.DefaultRules()
	require.NoError(t, err)
	return doc
}

func costCap(v float64) *float64 { return &v }

func newBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		ProjectName:    "test-project",
		Goals:          []string{"Build a web app"},
		Constraints:    blueprint.Constraints{MonthlyCostUSDMax: costCap(1000)},
		TrafficProfile: blueprint.TrafficProfile{RPSPeak: 1000, Global: true},
	}
}
