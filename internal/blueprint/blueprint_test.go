package blueprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/runeforge/internal/catalog"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

const validYAML = `
project_name: "test-project"
goals:
  - "Build a web app"
constraints:
  monthly_cost_usd_max: 500
traffic_profile:
  rps_peak: 1000
  global: true
  latency_sensitive: false
`

const validJSON = `{
  "project_name": "test-project",
  "goals": ["Build a web app"],
  "constraints": { "monthly_cost_usd_max": 500 },
  "traffic_profile": { "rps_peak": 1000, "global": true, "latency_sensitive": false }
}`

const fullYAML = `
project_name: "full-project"
goals:
  - "Build a scalable API"
  - "Support real-time features"
constraints:
  monthly_cost_usd_max: 1000
  persistence: sql
  region_allow: ["us-east-1", "eu-west-1"]
  compliance: ["audit-log", "sbom", "hipaa"]
traffic_profile:
  rps_peak: 5000
  global: true
  latency_sensitive: true
prefs:
  frontend: ["SvelteKit", "Next.js"]
  backend: ["Actix Web", "Axum"]
  database: ["PostgreSQL"]
  ai: ["RuneSage"]
single_language_mode: rust
`

func TestParse_YAML(t *testing.T) {
	bp, format, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)
	assert.Equal(t, "test-project", bp.ProjectName)
	assert.Equal(t, []string{"Build a web app"}, bp.Goals)

	limit, ok := bp.CostCap()
	require.True(t, ok)
	assert.Equal(t, 500.0, limit)
	assert.True(t, bp.TrafficProfile.Global)
	assert.False(t, bp.TrafficProfile.LatencySensitive)
	assert.Nil(t, bp.Prefs)
	assert.Equal(t, Persistence(""), bp.RequestedPersistence())
}

func TestParse_JSON(t *testing.T) {
	bp, format, err := Parse([]byte(validJSON))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, "test-project", bp.ProjectName)
	assert.Equal(t, 1000.0, bp.TrafficProfile.RPSPeak)
}

func TestParse_AllFields(t *testing.T) {
	bp, err := Load([]byte(fullYAML))
	require.NoError(t, err)

	assert.Equal(t, "full-project", bp.ProjectName)
	assert.Len(t, bp.Goals, 2)
	assert.Equal(t, PersistenceSQL, bp.RequestedPersistence())
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, bp.Constraints.RegionAllow)
	assert.True(t, bp.Constraints.HasCompliance(ComplianceHIPAA))
	assert.False(t, bp.Constraints.HasCompliance(ComplianceSOX))
	require.NotNil(t, bp.SingleLanguageMode)
	name, err := bp.SingleLanguageMode.CandidateName()
	require.NoError(t, err)
	assert.Equal(t, "Rust", name)

	assert.Equal(t, []string{"Actix Web", "Axum"}, bp.Prefs.For(catalog.Backend))
	assert.Equal(t, []string{"RuneSage"}, bp.Prefs.For(catalog.AI))
	assert.Nil(t, bp.Prefs.For(catalog.Cache))
}

func TestPreferencesFor_NilReceiver(t *testing.T) {
	var p *Preferences
	for _, cat := range catalog.All() {
		assert.Nil(t, p.For(cat))
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"garbage", "::::", "failed to parse blueprint"},
		{"unknown field yaml", validYAML + "owner: me\n", "field owner not found"},
		{"unknown field json", strings.Replace(validJSON, `"goals"`, `"owner": "me", "goals"`, 1), "owner"},
		{"missing project name", strings.Replace(validYAML, `project_name: "test-project"`, "", 1), "project_name"},
		{"missing constraints", strings.Replace(validYAML, "constraints:\n  monthly_cost_usd_max: 500\n", "", 1), "constraints"},
		{"missing traffic flag", strings.Replace(validYAML, "  global: true\n", "", 1), "traffic_profile.global"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.input))
			require.Error(t, err)
			var perr *stackerr.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "blueprint", perr.Source)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(string) string
		field string
	}{
		{"empty project name", func(s string) string {
			return strings.Replace(s, `"test-project"`, `""`, 1)
		}, "project_name"},
		{"empty goals", func(s string) string {
			return strings.Replace(s, "goals:\n  - \"Build a web app\"", "goals: []", 1)
		}, "goals"},
		{"negative rps", func(s string) string {
			return strings.Replace(s, "rps_peak: 1000", "rps_peak: -1", 1)
		}, "traffic_profile.rps_peak"},
		{"negative cost cap", func(s string) string {
			return strings.Replace(s, "monthly_cost_usd_max: 500", "monthly_cost_usd_max: -500", 1)
		}, "constraints.monthly_cost_usd_max"},
		{"infinite rps", func(s string) string {
			return strings.Replace(s, "rps_peak: 1000", "rps_peak: .inf", 1)
		}, "traffic_profile.rps_peak"},
		{"nan rps", func(s string) string {
			return strings.Replace(s, "rps_peak: 1000", "rps_peak: .nan", 1)
		}, "traffic_profile.rps_peak"},
		{"infinite cost cap", func(s string) string {
			return strings.Replace(s, "monthly_cost_usd_max: 500", "monthly_cost_usd_max: .inf", 1)
		}, "constraints.monthly_cost_usd_max"},
		{"negative infinite cost cap", func(s string) string {
			return strings.Replace(s, "monthly_cost_usd_max: 500", "monthly_cost_usd_max: -.inf", 1)
		}, "constraints.monthly_cost_usd_max"},
		{"bad persistence", func(s string) string {
			return strings.Replace(s, "monthly_cost_usd_max: 500", "persistence: graph", 1)
		}, "constraints.persistence"},
		{"bad compliance", func(s string) string {
			return strings.Replace(s, "monthly_cost_usd_max: 500", "compliance: [gdpr]", 1)
		}, "constraints.compliance[0]"},
		{"bad language mode", func(s string) string {
			return s + "single_language_mode: cobol\n"
		}, "single_language_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.edit(validYAML)))
			var verr *stackerr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidate_ZeroCapAllowed(t *testing.T) {
	input := strings.Replace(validYAML, "monthly_cost_usd_max: 500", "monthly_cost_usd_max: 0", 1)
	_, err := Load([]byte(input))
	assert.NoError(t, err)
}
