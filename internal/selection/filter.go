package selection

import (
	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/catalog"
)

// Violation names the hard constraint a candidate failed. The empty value
// means the candidate is admissible.
type Violation string

const (
	ViolationNone        Violation = ""
	ViolationRegion      Violation = "region"
	ViolationCost        Violation = "monthly_cost"
	ViolationPersistence Violation = "persistence"
	ViolationLanguage    Violation = "language"
	// ViolationLanguageMode is reported only for language candidates excluded
	// by single_language_mode.
	ViolationLanguageMode Violation = "single_language_mode"
)

// wildcard region tags match every allow-list.
var wildcardRegions = map[string]struct{}{"*": {}, "global": {}}

// Admissible reports whether c satisfies every hard constraint of bp within
// cat. language is the already chosen language, or "" while the language
// category itself is being resolved.
func Admissible(c catalog.Candidate, cat catalog.Category, bp *blueprint.Blueprint, language string) bool {
	return Check(c, cat, bp, language) == ViolationNone
}

// Check evaluates the constraints in a fixed order and returns the first one
// c violates.
func Check(c catalog.Candidate, cat catalog.Category, bp *blueprint.Blueprint, language string) Violation {
	if !regionAllowed(c.Regions, bp.Constraints.RegionAllow) {
		return ViolationRegion
	}
	if limit, ok := bp.CostCap(); ok && c.MonthlyCostBase > limit {
		return ViolationCost
	}
	if cat == catalog.Database {
		if want := bp.RequestedPersistence(); want != "" && c.Persistence != string(want) {
			return ViolationPersistence
		}
	}
	if language != "" {
		if req := c.RequiredLanguage(); req != "" && req != language {
			return ViolationLanguage
		}
	}
	return ViolationNone
}

// regionAllowed treats an empty allow-list, absent or explicit, as no restriction.
func regionAllowed(candidate, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, r := range candidate {
		if _, ok := wildcardRegions[r]; ok {
			return true
		}
		for _, a := range allow {
			if r == a {
				return true
			}
		}
	}
	return false
}
