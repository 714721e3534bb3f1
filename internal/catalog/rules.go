package catalog

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/runeforge/api/schemas"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

// Weights are the relative importance of each metric. They are intended to sum
// to 1.0; the loader does not enforce it.
type Weights struct {
	Quality  float64 `yaml:"quality" json:"quality"`
	SLO      float64 `yaml:"slo" json:"slo"`
	Cost     float64 `yaml:"cost" json:"cost"`
	Security float64 `yaml:"security" json:"security"`
	Ops      float64 `yaml:"ops" json:"ops"`
}

// Sum adds up the five weights.
func (w Weights) Sum() float64 {
	return w.Quality + w.SLO + w.Cost + w.Security + w.Ops
}

// Metrics are per-candidate ratings, each intended to lie in [0,1].
type Metrics struct {
	Quality  float64 `yaml:"quality" json:"quality"`
	SLO      float64 `yaml:"slo" json:"slo"`
	Cost     float64 `yaml:"cost" json:"cost"`
	Security float64 `yaml:"security" json:"security"`
	Ops      float64 `yaml:"ops" json:"ops"`
}

// Requirements are inter-category dependencies a candidate declares.
type Requirements struct {
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
}

// Candidate is one technology option within a category.
type Candidate struct {
	Name            string        `yaml:"name" json:"name"`
	Requires        *Requirements `yaml:"requires,omitempty" json:"requires,omitempty"`
	Persistence     string        `yaml:"persistence,omitempty" json:"persistence,omitempty"`
	Metrics         Metrics       `yaml:"metrics" json:"metrics"`
	Regions         []string      `yaml:"regions" json:"regions"`
	MonthlyCostBase float64       `yaml:"monthly_cost_base" json:"monthly_cost_base"`
	Notes           []string      `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// RequiredLanguage returns the language the candidate depends on, or "" when
// it declares none.
func (c Candidate) RequiredLanguage() string {
	if c.Requires == nil {
		return ""
	}
	return c.Requires.Language
}

// ComplianceRequirement lists the features a compliance regime expects.
type ComplianceRequirement struct {
	RequiredFeatures []string `yaml:"required_features" json:"required_features"`
}

// RulesDocument is the loaded, read-only technology catalog.
// It is safe to share between goroutines once Load has returned.
type RulesDocument struct {
	Version                int
	Weights                Weights
	ComplianceRequirements map[string]ComplianceRequirement

	candidates [numCategories][]Candidate
}

// rulesFile mirrors the on-disk layout. Pointer fields detect missing keys.
type rulesFile struct {
	Version                *int                             `yaml:"version"`
	Weights                *Weights                         `yaml:"weights"`
	Candidates             map[string][]Candidate           `yaml:"candidates"`
	ComplianceRequirements map[string]ComplianceRequirement `yaml:"compliance_requirements"`
}

// Load decodes a YAML rules document. Structural problems yield a
// *stackerr.ParseError; semantically invalid values a *stackerr.ValidationError.
func Load(data []byte) (*RulesDocument, error) {
	var raw rulesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &stackerr.ParseError{Source: "rules", Err: errors.Wrap(err, "decode rules document")}
	}

	switch {
	case raw.Version == nil:
		return nil, &stackerr.ParseError{Source: "rules", Err: errors.New("missing field `version`")}
	case raw.Weights == nil:
		return nil, &stackerr.ParseError{Source: "rules", Err: errors.New("missing field `weights`")}
	case raw.Candidates == nil:
		return nil, &stackerr.ParseError{Source: "rules", Err: errors.New("missing field `candidates`")}
	}

	doc := &RulesDocument{
		Version:                *raw.Version,
		Weights:                *raw.Weights,
		ComplianceRequirements: raw.ComplianceRequirements,
	}
	if doc.ComplianceRequirements == nil {
		doc.ComplianceRequirements = map[string]ComplianceRequirement{}
	}

	if err := validateWeights(doc.Weights); err != nil {
		return nil, err
	}

	// Iterate in sorted key order so the first reported problem is stable.
	keys := make([]string, 0, len(raw.Candidates))
	for k := range raw.Candidates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cat, err := ParseCategory(key)
		if err != nil {
			return nil, &stackerr.ValidationError{Field: "candidates." + key, Rule: "is not a known category"}
		}
		list := raw.Candidates[key]
		if err := validateCandidates(cat, list); err != nil {
			return nil, err
		}
		doc.candidates[cat] = list
	}

	for _, cat := range All() {
		if _, ok := raw.Candidates[cat.String()]; !ok {
			return nil, &stackerr.ParseError{
				Source: "rules",
				Err:    fmt.Errorf("missing field `candidates.%s`", cat),
			}
		}
	}

	return doc, nil
}

// DefaultRules loads the catalog embedded in the binary.
func DefaultRules() (*RulesDocument, error) {
	return Load(schemas.DefaultRules)
}

func validateWeights(w Weights) error {
	named := []struct {
		field string
		v     float64
	}{
		{"weights.quality", w.Quality},
		{"weights.slo", w.SLO},
		{"weights.cost", w.Cost},
		{"weights.security", w.Security},
		{"weights.ops", w.Ops},
	}
	for _, n := range named {
		if n.v < 0 || math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			return &stackerr.ValidationError{Field: n.field, Rule: "must be a non-negative number"}
		}
	}
	return nil
}

func validateCandidates(cat Category, list []Candidate) error {
	seen := make(map[string]struct{}, len(list))
	for i, c := range list {
		field := fmt.Sprintf("candidates.%s[%d]", cat, i)
		if c.Name == "" {
			return &stackerr.ValidationError{Field: field + ".name", Rule: "cannot be empty"}
		}
		if _, dup := seen[c.Name]; dup {
			return &stackerr.ValidationError{
				Field: field + ".name",
				Rule:  fmt.Sprintf("duplicates candidate %q within %s", c.Name, cat),
			}
		}
		seen[c.Name] = struct{}{}
		if v := c.MonthlyCostBase; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return &stackerr.ValidationError{Field: field + ".monthly_cost_base", Rule: "must be a finite non-negative number"}
		}
		m := c.Metrics
		for _, r := range []struct {
			name string
			v    float64
		}{{"quality", m.Quality}, {"slo", m.SLO}, {"cost", m.Cost}, {"security", m.Security}, {"ops", m.Ops}} {
			if math.IsNaN(r.v) || math.IsInf(r.v, 0) {
				return &stackerr.ValidationError{Field: field + ".metrics." + r.name, Rule: "must be a finite number"}
			}
		}
	}
	return nil
}

// Candidates returns the candidates of a category in source order.
// The returned slice must not be modified.
func (d *RulesDocument) Candidates(cat Category) []Candidate {
	if !cat.Valid() {
		return nil
	}
	return d.candidates[cat]
}

// Lookup finds a candidate by name within a category.
func (d *RulesDocument) Lookup(cat Category, name string) (Candidate, bool) {
	for _, c := range d.Candidates(cat) {
		if c.Name == name {
			return c, true
		}
	}
	return Candidate{}, false
}

// BaseCost returns the base monthly cost of a named candidate, or 0 when the
// name is unknown in that category.
func (d *RulesDocument) BaseCost(cat Category, name string) float64 {
	c, ok := d.Lookup(cat, name)
	if !ok {
		return 0
	}
	return c.MonthlyCostBase
}

// WeightSum is the sum of the scoring weights. The scorer's fixed normalization
// assumes 1.0.
func (d *RulesDocument) WeightSum() float64 {
	return d.Weights.Sum()
}

// WeightsNormalized reports whether the weights sum to 1.0 within tolerance.
func (d *RulesDocument) WeightsNormalized() bool {
	return math.Abs(d.WeightSum()-1.0) <= 1e-6
}
