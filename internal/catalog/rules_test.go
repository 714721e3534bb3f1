package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

const minimalRules = `
version: 1
weights: { quality: 0.30, slo: 0.25, cost: 0.20, security: 0.15, ops: 0.10 }
candidates:
  language:
    - name: "Rust"
      metrics: { quality: 0.9, slo: 0.95, cost: 0.8, security: 0.95, ops: 0.85 }
      regions: ["*"]
    - name: "Go"
      metrics: { quality: 0.85, slo: 0.9, cost: 0.85, security: 0.9, ops: 0.9 }
      regions: ["*"]
  backend:
    - name: "Actix Web"
      requires: { language: "Rust" }
      metrics: { quality: 0.9, slo: 0.9, cost: 0.7, security: 0.8, ops: 0.8 }
      regions: ["*"]
      monthly_cost_base: 100
  frontend: []
  database:
    - name: "PostgreSQL"
      persistence: "sql"
      metrics: { quality: 0.9, slo: 0.85, cost: 0.7, security: 0.9, ops: 0.8 }
      regions: ["*"]
      monthly_cost_base: 200
      notes: ["Battle tested"]
  cache: []
  queue: []
  ai: []
  infra: []
  ci_cd: []
`

func TestLoad_Minimal(t *testing.T) {
	doc, err := Load([]byte(minimalRules))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Version)
	assert.InDelta(t, 0.30, doc.Weights.Quality, 1e-9)
	assert.True(t, doc.WeightsNormalized())

	langs := doc.Candidates(Language)
	require.Len(t, langs, 2)
	assert.Equal(t, "Rust", langs[0].Name, "source order must be preserved")
	assert.Equal(t, "Go", langs[1].Name)
	assert.Equal(t, "", langs[0].RequiredLanguage())

	backend := doc.Candidates(Backend)
	require.Len(t, backend, 1)
	assert.Equal(t, "Rust", backend[0].RequiredLanguage())

	db, ok := doc.Lookup(Database, "PostgreSQL")
	require.True(t, ok)
	assert.Equal(t, "sql", db.Persistence)
	assert.Equal(t, []string{"Battle tested"}, db.Notes)

	assert.Equal(t, 100.0, doc.BaseCost(Backend, "Actix Web"))
	assert.Equal(t, 0.0, doc.BaseCost(Backend, "Unknown"))
	assert.Equal(t, 0.0, doc.BaseCost(Language, "Rust"), "monthly_cost_base defaults to 0")
	assert.Empty(t, doc.Candidates(Frontend))
	assert.NotNil(t, doc.ComplianceRequirements)
}

func TestLoad_DefaultRules(t *testing.T) {
	doc, err := DefaultRules()
	require.NoError(t, err)
	for _, cat := range All() {
		assert.NotEmpty(t, doc.Candidates(cat), "default catalog should cover %s", cat)
	}
	assert.Contains(t, doc.ComplianceRequirements, "hipaa")
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty document", "", "decode rules document"},
		{"not yaml", "version: [1, 2", "decode rules document"},
		{"unknown top level field", minimalRules + "\nextra: true\n", "field extra not found"},
		{"missing weights", "version: 1\ncandidates: {}\n", "missing field `weights`"},
		{"missing version", "weights: {quality: 1}\ncandidates: {}\n", "missing field `version`"},
		{"missing category", strings.Replace(minimalRules, "  ci_cd: []\n", "", 1), "candidates.ci_cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			require.Error(t, err)
			var perr *stackerr.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{
			name:  "unknown category",
			input: minimalRules + "  serverless: []\n",
			field: "candidates.serverless",
		},
		{
			name:  "duplicate candidate",
			input: strings.Replace(minimalRules, `"Go"`, `"Rust"`, 1),
			field: "candidates.language[1].name",
		},
		{
			name:  "negative cost",
			input: strings.Replace(minimalRules, "monthly_cost_base: 100", "monthly_cost_base: -5", 1),
			field: "candidates.backend[0].monthly_cost_base",
		},
		{
			name:  "infinite cost",
			input: strings.Replace(minimalRules, "monthly_cost_base: 100", "monthly_cost_base: .inf", 1),
			field: "candidates.backend[0].monthly_cost_base",
		},
		{
			name:  "nan cost",
			input: strings.Replace(minimalRules, "monthly_cost_base: 200", "monthly_cost_base: .nan", 1),
			field: "candidates.database[0].monthly_cost_base",
		},
		{
			name:  "infinite metric",
			input: strings.Replace(minimalRules, "{ quality: 0.9, slo: 0.95,", "{ quality: -.inf, slo: 0.95,", 1),
			field: "candidates.language[0].metrics.quality",
		},
		{
			name:  "infinite weight",
			input: strings.Replace(minimalRules, "cost: 0.20,", "cost: .inf,", 1),
			field: "weights.cost",
		},
		{
			name:  "negative weight",
			input: strings.Replace(minimalRules, "ops: 0.10 }", "ops: -0.10 }", 1),
			field: "weights.ops",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			var verr *stackerr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoad_UnnormalizedWeightsAreKept(t *testing.T) {
	input := strings.Replace(minimalRules, "quality: 0.30,", "quality: 0.60,", 1)
	doc, err := Load([]byte(input))
	require.NoError(t, err)
	assert.InDelta(t, 1.30, doc.WeightSum(), 1e-9)
	assert.False(t, doc.WeightsNormalized())
}

func TestCategory(t *testing.T) {
	all := All()
	require.Len(t, all, 9)
	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{"language", "backend", "frontend", "database", "cache", "queue", "ai", "infra", "ci_cd"}, names)

	for _, c := range all {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCategory("mobile")
	assert.Error(t, err)

	assert.True(t, Backend.DependsOnLanguage())
	assert.False(t, Frontend.DependsOnLanguage())
	assert.Equal(t, "category(42)", Category(42).String())

	var c Category
	require.NoError(t, c.UnmarshalText([]byte("ci_cd")))
	assert.Equal(t, CICD, c)
	out, err := AI.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ai", string(out))
}
