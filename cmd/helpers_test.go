package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

// testRules has one candidate per category so every outcome is fixed.
const testRules = `
version: 1
weights:
  quality: 0.30
  slo: 0.25
  cost: 0.20
  security: 0.15
  ops: 0.10
candidates:
  language:
    - name: "Rust"
      metrics: { quality: 0.9, slo: 0.95, cost: 0.8, security: 0.95, ops: 0.85 }
      regions: ["*"]
      monthly_cost_base: 0
  backend:
    - name: "Actix Web"
      requires: { language: "Rust" }
      metrics: { quality: 0.9, slo: 0.9, cost: 0.7, security: 0.8, ops: 0.8 }
      regions: ["*"]
      monthly_cost_base: 100
  frontend:
    - name: "SvelteKit"
      metrics: { quality: 0.85, slo: 0.8, cost: 0.8, security: 0.8, ops: 0.85 }
      regions: ["*"]
      monthly_cost_base: 50
  database:
    - name: "PostgreSQL"
      persistence: "sql"
      metrics: { quality: 0.9, slo: 0.85, cost: 0.7, security: 0.9, ops: 0.8 }
      regions: ["*"]
      monthly_cost_base: 200
  cache:
    - name: "Redis"
      metrics: { quality: 0.9, slo: 0.95, cost: 0.6, security: 0.85, ops: 0.85 }
      regions: ["*"]
      monthly_cost_base: 100
  queue:
    - name: "NATS"
      metrics: { quality: 0.85, slo: 0.9, cost: 0.5, security: 0.85, ops: 0.9 }
      regions: ["*"]
      monthly_cost_base: 50
  ai:
    - name: "RuneSage"
      metrics: { quality: 0.8, slo: 0.8, cost: 0.7, security: 0.8, ops: 0.8 }
      regions: ["*"]
      monthly_cost_base: 100
  infra:
    - name: "Terraform"
      metrics: { quality: 0.9, slo: 0.85, cost: 0.8, security: 0.9, ops: 0.9 }
      regions: ["*"]
      monthly_cost_base: 0
  ci_cd:
    - name: "GitHub Actions"
      metrics: { quality: 0.85, slo: 0.8, cost: 0.9, security: 0.85, ops: 0.9 }
      regions: ["*"]
      monthly_cost_base: 20
`

// testRulesTotal is the summed base cost of the single candidates above.
const testRulesTotal = 620.0

const testBlueprint = `
project_name: "test-project"
goals:
  - "Build a web app"
constraints:
  monthly_cost_usd_max: 1000
traffic_profile:
  rps_peak: 1000
  global: true
  latency_sensitive: false
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testEnv is a temp directory holding the fixture rules and blueprint.
type testEnv struct {
	dir       string
	rules     string
	blueprint string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	return testEnv{
		dir:       dir,
		rules:     writeFile(t, dir, "rules.yaml", testRules),
		blueprint: writeFile(t, dir, "blueprint.yaml", testBlueprint),
	}
}

// executeCommand runs a fresh command tree and captures its output.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	// Keep the working directory's runeforge.yaml and .env out of tests.
	args = append([]string{"--config", writeFile(t, t.TempDir(), "runeforge.yaml", "{}\n"), "--env-file", ""}, args...)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func decodePlan(t *testing.T, raw string) *plan.StackPlan {
	t.Helper()
	p, err := plan.Decode([]byte(strings.TrimSpace(raw)))
	require.NoError(t, err)
	return p
}
