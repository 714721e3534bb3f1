// Package schema validates blueprint and plan documents against the JSON
// schemas embedded from api/schemas.
package schema

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/runeforge/api/schemas"
	"github.com/xkilldash9x/runeforge/internal/plan"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

var (
	compileOnce sync.Once
	compiled    struct {
		blueprint *jsonschema.Schema
		plan      *jsonschema.Schema
		err       error
	}

	printer = message.NewPrinter(language.English)
)

func load() error {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for url, raw := range map[string][]byte{
			schemas.BlueprintSchemaURL: schemas.BlueprintSchema,
			schemas.PlanSchemaURL:      schemas.PlanSchema,
		} {
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
			if err != nil {
				compiled.err = errors.Wrapf(err, "decode embedded schema %s", url)
				return
			}
			if err := c.AddResource(url, doc); err != nil {
				compiled.err = errors.Wrapf(err, "register schema %s", url)
				return
			}
		}
		if compiled.blueprint, compiled.err = c.Compile(schemas.BlueprintSchemaURL); compiled.err != nil {
			return
		}
		compiled.plan, compiled.err = c.Compile(schemas.PlanSchemaURL)
	})
	return compiled.err
}

// ValidateBlueprint checks a raw YAML or JSON blueprint document against the
// blueprint schema.
func ValidateBlueprint(raw []byte) error {
	if err := load(); err != nil {
		return err
	}
	inst, err := instanceOf(raw)
	if err != nil {
		return &stackerr.ParseError{Source: "blueprint", Err: err}
	}
	return check(compiled.blueprint, inst)
}

// ValidatePlan checks a plan against the plan schema.
func ValidatePlan(p *plan.StackPlan) error {
	if err := load(); err != nil {
		return err
	}
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode plan for schema validation: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "decode encoded plan")
	}
	return check(compiled.plan, inst)
}

// instanceOf decodes raw into the value model the validator expects. YAML is
// re-encoded as JSON first so numbers and maps take JSON shapes.
func instanceOf(raw []byte) (any, error) {
	if inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw)); err == nil {
		return inst, nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decode blueprint document")
	}
	asJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "re-encode YAML blueprint as JSON")
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
}

func check(sch *jsonschema.Schema, inst any) error {
	err := sch.Validate(inst)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	leaf := deepest(verr)
	return &stackerr.ValidationError{
		Field: pointer(leaf.InstanceLocation),
		Rule:  leaf.ErrorKind.LocalizedString(printer),
	}
}

// deepest follows the first cause chain down to the most specific failure.
func deepest(e *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	return e
}

func pointer(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}
