package blueprint

import (
	"bytes"
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

// strictJSON rejects fields the blueprint does not declare.
var strictJSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// rawBlueprint uses pointers so that missing required keys can be told apart
// from zero values.
type rawBlueprint struct {
	ProjectName        *string       `json:"project_name" yaml:"project_name"`
	Goals              *[]string     `json:"goals" yaml:"goals"`
	Constraints        *Constraints  `json:"constraints" yaml:"constraints"`
	TrafficProfile     *rawTraffic   `json:"traffic_profile" yaml:"traffic_profile"`
	Prefs              *Preferences  `json:"prefs" yaml:"prefs"`
	SingleLanguageMode *LanguageMode `json:"single_language_mode" yaml:"single_language_mode"`
}

type rawTraffic struct {
	RPSPeak          *float64 `json:"rps_peak" yaml:"rps_peak"`
	Global           *bool    `json:"global" yaml:"global"`
	LatencySensitive *bool    `json:"latency_sensitive" yaml:"latency_sensitive"`
}

// Format identifies which encoding a blueprint was read from.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Parse decodes a blueprint from YAML or JSON. YAML is attempted first; JSON
// is the fallback. Unknown and missing required fields are rejected with a
// *stackerr.ParseError. Parse does not perform semantic validation; see Load.
func Parse(data []byte) (*Blueprint, Format, error) {
	format := FormatYAML
	if looksLikeJSON(data) {
		format = FormatJSON
	}

	raw, yamlErr := decodeYAML(data)
	if yamlErr != nil {
		var jsonErr error
		raw, jsonErr = decodeJSON(data)
		if jsonErr != nil {
			// Report the error of the encoding the input most likely was.
			cause := yamlErr
			if looksLikeJSON(data) {
				cause = jsonErr
			}
			return nil, "", &stackerr.ParseError{Source: "blueprint", Err: cause}
		}
	}

	bp, err := raw.build()
	if err != nil {
		return nil, "", &stackerr.ParseError{Source: "blueprint", Err: err}
	}
	return bp, format, nil
}

// Load parses and semantically validates a blueprint.
func Load(data []byte) (*Blueprint, error) {
	bp, _, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(bp); err != nil {
		return nil, err
	}
	return bp, nil
}

func decodeYAML(data []byte) (*rawBlueprint, error) {
	var raw rawBlueprint
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	return &raw, nil
}

func decodeJSON(data []byte) (*rawBlueprint, error) {
	var raw rawBlueprint
	if err := strictJSON.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	return &raw, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func (r *rawBlueprint) build() (*Blueprint, error) {
	switch {
	case r.ProjectName == nil:
		return nil, missing("project_name")
	case r.Goals == nil:
		return nil, missing("goals")
	case r.Constraints == nil:
		return nil, missing("constraints")
	case r.TrafficProfile == nil:
		return nil, missing("traffic_profile")
	case r.TrafficProfile.RPSPeak == nil:
		return nil, missing("traffic_profile.rps_peak")
	case r.TrafficProfile.Global == nil:
		return nil, missing("traffic_profile.global")
	case r.TrafficProfile.LatencySensitive == nil:
		return nil, missing("traffic_profile.latency_sensitive")
	}

	goals := make([]string, len(*r.Goals))
	copy(goals, *r.Goals)

	return &Blueprint{
		ProjectName: *r.ProjectName,
		Goals:       goals,
		Constraints: *r.Constraints,
		TrafficProfile: TrafficProfile{
			RPSPeak:          *r.TrafficProfile.RPSPeak,
			Global:           *r.TrafficProfile.Global,
			LatencySensitive: *r.TrafficProfile.LatencySensitive,
		},
		Prefs:              r.Prefs,
		SingleLanguageMode: r.SingleLanguageMode,
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("missing field `%s`", field)
}

// Validate performs the semantic checks structural decoding cannot express.
func Validate(bp *Blueprint) error {
	if bp.ProjectName == "" {
		return &stackerr.ValidationError{Field: "project_name", Rule: "cannot be empty"}
	}
	if len(bp.Goals) == 0 {
		return &stackerr.ValidationError{Field: "goals", Rule: "cannot be empty"}
	}
	if rps := bp.TrafficProfile.RPSPeak; !nonNegative(rps) {
		return &stackerr.ValidationError{Field: "traffic_profile.rps_peak", Rule: "must be a finite non-negative number"}
	}
	if limit, ok := bp.CostCap(); ok && !nonNegative(limit) {
		return &stackerr.ValidationError{Field: "constraints.monthly_cost_usd_max", Rule: "must be a finite non-negative number"}
	}
	if p := bp.Constraints.Persistence; p != nil && !p.Valid() {
		return &stackerr.ValidationError{
			Field: "constraints.persistence",
			Rule:  fmt.Sprintf("must be one of kv, sql, both (got %q)", string(*p)),
		}
	}
	for i, c := range bp.Constraints.Compliance {
		if !c.Valid() {
			return &stackerr.ValidationError{
				Field: fmt.Sprintf("constraints.compliance[%d]", i),
				Rule:  fmt.Sprintf("unknown compliance flag %q", string(c)),
			}
		}
	}
	if m := bp.SingleLanguageMode; m != nil {
		if _, err := m.CandidateName(); err != nil {
			return &stackerr.ValidationError{Field: "single_language_mode", Rule: "must be one of rust, go, ts"}
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
