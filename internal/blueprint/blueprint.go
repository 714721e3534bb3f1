package blueprint

import (
	"fmt"

	"github.com/xkilldash9x/runeforge/internal/catalog"
)

// Persistence is the storage model a project needs. Matching against
// database candidates is by exact tag equality.
type Persistence string

const (
	PersistenceKV   Persistence = "kv"
	PersistenceSQL  Persistence = "sql"
	PersistenceBoth Persistence = "both"
)

// Valid reports whether p is a known persistence tag.
func (p Persistence) Valid() bool {
	switch p {
	case PersistenceKV, PersistenceSQL, PersistenceBoth:
		return true
	}
	return false
}

// Compliance is a regulatory or supply-chain regime the stack must support.
type Compliance string

const (
	ComplianceAuditLog Compliance = "audit-log"
	ComplianceSBOM     Compliance = "sbom"
	CompliancePCI      Compliance = "pci"
	ComplianceSOX      Compliance = "sox"
	ComplianceHIPAA    Compliance = "hipaa"
)

// Valid reports whether c is a known compliance flag.
func (c Compliance) Valid() bool {
	switch c {
	case ComplianceAuditLog, ComplianceSBOM, CompliancePCI, ComplianceSOX, ComplianceHIPAA:
		return true
	}
	return false
}

// LanguageMode restricts the whole stack to a single implementation language.
type LanguageMode string

const (
	LanguageRust       LanguageMode = "rust"
	LanguageGo         LanguageMode = "go"
	LanguageTypeScript LanguageMode = "ts"
)

// CandidateName maps the mode to the language candidate name used in rules.
func (m LanguageMode) CandidateName() (string, error) {
	switch m {
	case LanguageRust:
		return "Rust", nil
	case LanguageGo:
		return "Go", nil
	case LanguageTypeScript:
		return "TypeScript", nil
	default:
		return "", fmt.Errorf("unknown language mode %q", string(m))
	}
}

// Blueprint is the declarative description of a project. It is treated as
// immutable once parsed.
type Blueprint struct {
	ProjectName        string         `json:"project_name" yaml:"project_name"`
	Goals              []string       `json:"goals" yaml:"goals"`
	Constraints        Constraints    `json:"constraints" yaml:"constraints"`
	TrafficProfile     TrafficProfile `json:"traffic_profile" yaml:"traffic_profile"`
	Prefs              *Preferences   `json:"prefs,omitempty" yaml:"prefs,omitempty"`
	SingleLanguageMode *LanguageMode  `json:"single_language_mode,omitempty" yaml:"single_language_mode,omitempty"`
}

// Constraints are the hard limits every chosen candidate must satisfy.
type Constraints struct {
	MonthlyCostUSDMax *float64     `json:"monthly_cost_usd_max,omitempty" yaml:"monthly_cost_usd_max,omitempty"`
	Persistence       *Persistence `json:"persistence,omitempty" yaml:"persistence,omitempty"`
	RegionAllow       []string     `json:"region_allow,omitempty" yaml:"region_allow,omitempty"`
	Compliance        []Compliance `json:"compliance,omitempty" yaml:"compliance,omitempty"`
}

// HasCompliance reports whether flag is among the declared compliance regimes.
func (c Constraints) HasCompliance(flag Compliance) bool {
	for _, f := range c.Compliance {
		if f == flag {
			return true
		}
	}
	return false
}

// TrafficProfile describes expected load.
type TrafficProfile struct {
	RPSPeak          float64 `json:"rps_peak" yaml:"rps_peak"`
	Global           bool    `json:"global" yaml:"global"`
	LatencySensitive bool    `json:"latency_sensitive" yaml:"latency_sensitive"`
}

// Preferences are soft, per-category lists of preferred candidate names.
type Preferences struct {
	Language []string `json:"language,omitempty" yaml:"language,omitempty"`
	Backend  []string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Frontend []string `json:"frontend,omitempty" yaml:"frontend,omitempty"`
	Database []string `json:"database,omitempty" yaml:"database,omitempty"`
	Cache    []string `json:"cache,omitempty" yaml:"cache,omitempty"`
	Queue    []string `json:"queue,omitempty" yaml:"queue,omitempty"`
	AI       []string `json:"ai,omitempty" yaml:"ai,omitempty"`
	Infra    []string `json:"infra,omitempty" yaml:"infra,omitempty"`
	CICD     []string `json:"ci_cd,omitempty" yaml:"ci_cd,omitempty"`
}

// For returns the preference list declared for a category, if any.
func (p *Preferences) For(cat catalog.Category) []string {
	if p == nil {
		return nil
	}
	switch cat {
	case catalog.Language:
		return p.Language
	case catalog.Backend:
		return p.Backend
	case catalog.Frontend:
		return p.Frontend
	case catalog.Database:
		return p.Database
	case catalog.Cache:
		return p.Cache
	case catalog.Queue:
		return p.Queue
	case catalog.AI:
		return p.AI
	case catalog.Infra:
		return p.Infra
	case catalog.CICD:
		return p.CICD
	default:
		panic(fmt.Sprintf("unhandled category %s", cat))
	}
}

// CostCap returns the monthly cost ceiling and whether one is set.
func (b *Blueprint) CostCap() (float64, bool) {
	if b.Constraints.MonthlyCostUSDMax == nil {
		return 0, false
	}
	return *b.Constraints.MonthlyCostUSDMax, true
}

// RequestedPersistence returns the requested persistence tag, or "".
func (b *Blueprint) RequestedPersistence() Persistence {
	if b.Constraints.Persistence == nil {
		return ""
	}
	return *b.Constraints.Persistence
}
