package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/runeforge/internal/plan"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

func TestPlan_JSONToStdout(t *testing.T) {
	env := newTestEnv(t)
	stdout, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules)
	require.NoError(t, err)

	p := decodePlan(t, stdout)
	assert.Equal(t, plan.Stack{
		Language: "Rust",
		Frontend: "SvelteKit",
		Backend:  "Actix Web",
		Database: "PostgreSQL",
		Cache:    "Redis",
		Queue:    "NATS",
		AI:       []string{"RuneSage"},
		Infra:    "Terraform",
		CICD:     "GitHub Actions",
	}, p.Stack)
	assert.Equal(t, testRulesTotal, p.Estimated.MonthlyCostUSD)
	assert.Equal(t, uint64(42), p.Meta.Seed)
	assert.Len(t, p.Decisions, 9)
	require.NoError(t, plan.Verify(p))
}

func TestPlan_Deterministic(t *testing.T) {
	env := newTestEnv(t)
	first, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules)
	require.NoError(t, err)
	second, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlan_OutFile(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "plans", "plan.json")

	stdout, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules, "--out", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	p := decodePlan(t, string(raw))
	assert.Equal(t, "Rust", p.Stack.Language)
}

func TestPlan_MetricsOut(t *testing.T) {
	env := newTestEnv(t)

	t.Run("prometheus text", func(t *testing.T) {
		out := filepath.Join(env.dir, "metrics", "run.prom")
		_, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules, "--metrics-out", out)
		require.NoError(t, err)

		raw, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "runeforge_blueprint_validations_total 1")
		assert.Contains(t, string(raw), `runeforge_selections_total{outcome="success"} 1`)
		assert.Contains(t, string(raw), `runeforge_selections_total{outcome="failure"} 0`)
	})

	t.Run("json for a failed run", func(t *testing.T) {
		tight := writeFile(t, env.dir, "tight.yaml", strings.Replace(testBlueprint, "1000\ntraffic", "250\ntraffic", 1))
		out := filepath.Join(env.dir, "metrics.json")
		_, _, err := executeCommand(t, nil, "plan", "-f", tight, "--rules", env.rules, "--metrics-out", out)
		assert.Equal(t, stackerr.ExitNoStack, stackerr.ExitCode(err), "the selection error is kept")

		raw, err := os.ReadFile(out)
		require.NoError(t, err)
		var got map[string]float64
		require.NoError(t, jsoniter.Unmarshal(raw, &got))
		assert.Equal(t, 1.0, got["blueprint_validations"])
		assert.Equal(t, 0.0, got["successful_selections"])
		assert.Equal(t, 1.0, got["failed_selections"])
	})

	t.Run("invalid blueprint never reaches selection", func(t *testing.T) {
		broken := writeFile(t, env.dir, "broken.yaml", strings.Replace(testBlueprint, "rps_peak: 1000", "rps_peak: .inf", 1))
		out := filepath.Join(env.dir, "broken.json")
		_, _, err := executeCommand(t, nil, "plan", "-f", broken, "--rules", env.rules, "--metrics-out", out)
		var verr *stackerr.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "traffic_profile.rps_peak", verr.Field)

		raw, err := os.ReadFile(out)
		require.NoError(t, err)
		var got map[string]float64
		require.NoError(t, jsoniter.Unmarshal(raw, &got))
		assert.Zero(t, got["blueprint_validations"])
		assert.Zero(t, got["failed_selections"])
	})
}

func TestPlan_Stdin(t *testing.T) {
	env := newTestEnv(t)
	stdout, _, err := executeCommand(t, strings.NewReader(testBlueprint), "plan", "-f", "-", "--rules", env.rules)
	require.NoError(t, err)
	assert.Equal(t, "Rust", decodePlan(t, stdout).Stack.Language)
}

func TestPlan_SeedFlagAndEnv(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules, "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), decodePlan(t, stdout).Meta.Seed)

	t.Setenv("RUNEFORGE_ENGINE_SEED", "99")
	stdout, _, err = executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), decodePlan(t, stdout).Meta.Seed)

	stdout, _, err = executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules, "--seed", "5")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), decodePlan(t, stdout).Meta.Seed, "flag wins over environment")
}

func TestPlan_Formats(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		format string
		want   string
	}{
		{"yaml", "language: Rust"},
		{"xml", `<testcase name="language" classname="runeforge.language">`},
		{"table", "Estimated monthly cost: $620.00"},
		{"markdown", "| Language | Rust |"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			stdout, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules, "--format", tt.format)
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.want)
			assert.NotContains(t, stdout, "\x1b[", "non-terminal output is never colored by default")
		})
	}
}

func TestPlan_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules, "--format", "sarif")
	var verr *stackerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "--format", verr.Field)
}

func TestPlan_Errors(t *testing.T) {
	env := newTestEnv(t)
	invalid := writeFile(t, env.dir, "invalid.yaml", `
project_name: ""
goals: []
constraints: {}
traffic_profile:
  rps_peak: 1000
  global: true
  latency_sensitive: false
`)
	tight := writeFile(t, env.dir, "tight.yaml", strings.Replace(testBlueprint, "1000\ntraffic", "250\ntraffic", 1))
	brokenRules := writeFile(t, env.dir, "broken-rules.yaml", "version: 1\n")
	unbounded := writeFile(t, env.dir, "unbounded.yaml", strings.Replace(testBlueprint, "monthly_cost_usd_max: 1000", "monthly_cost_usd_max: .inf", 1))

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing blueprint", []string{"-f", filepath.Join(env.dir, "absent.yaml"), "--rules", env.rules}, stackerr.ExitInput},
		{"invalid blueprint", []string{"-f", invalid, "--rules", env.rules}, stackerr.ExitInput},
		{"missing rules", []string{"-f", env.blueprint, "--rules", filepath.Join(env.dir, "absent-rules.yaml")}, stackerr.ExitInput},
		{"broken rules", []string{"-f", env.blueprint, "--rules", brokenRules}, stackerr.ExitInput},
		{"infinite cost cap", []string{"-f", unbounded, "--rules", env.rules}, stackerr.ExitInput},
		{"over budget", []string{"-f", tight, "--rules", env.rules}, stackerr.ExitNoStack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, nil, append([]string{"plan"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.code, stackerr.ExitCode(err))
			assert.Empty(t, stdout, "nothing is emitted on failure")
		})
	}
}

func TestPlan_BudgetErrorDetails(t *testing.T) {
	env := newTestEnv(t)
	tight := writeFile(t, env.dir, "tight.yaml", strings.Replace(testBlueprint, "1000\ntraffic", "250\ntraffic", 1))

	_, _, err := executeCommand(t, nil, "plan", "-f", tight, "--rules", env.rules)
	var budget *stackerr.BudgetExceededError
	require.ErrorAs(t, err, &budget)
	assert.Equal(t, 250.0, budget.Cap)
	assert.Equal(t, testRulesTotal, budget.Total)
}

func TestPlan_StrictSchema(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint, "--rules", env.rules, "--strict")
	require.NoError(t, err)
}

func TestPlan_DefaultRules(t *testing.T) {
	env := newTestEnv(t)
	stdout, _, err := executeCommand(t, nil, "plan", "-f", env.blueprint)
	require.NoError(t, err)

	p := decodePlan(t, stdout)
	assert.Equal(t, "Rust", p.Stack.Language)
	assert.Equal(t, "Actix Web", p.Stack.Backend)
	assert.Equal(t, []string{"Claude", "OpenAI"}, p.Stack.AI)
	assert.Equal(t, 875.0, p.Estimated.MonthlyCostUSD)
}

func TestPlan_RequiresFile(t *testing.T) {
	_, _, err := executeCommand(t, nil, "plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "file" not set`)
}
