// Package schemas ships the documents runeforge validates against: the JSON
// schemas for blueprints and stack plans, and the default rules catalog.
package schemas

import _ "embed"

//go:embed blueprint.schema.json
var BlueprintSchema []byte

//go:embed plan.schema.json
var PlanSchema []byte

//go:embed rules.yaml
var DefaultRules []byte

// Resource names the schemas are registered under.
const (
	BlueprintSchemaURL = "https://runeforge.dev/schemas/blueprint.schema.json"
	PlanSchemaURL      = "https://runeforge.dev/schemas/plan.schema.json"
)
