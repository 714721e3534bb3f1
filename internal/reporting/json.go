package reporting

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

var indentedJSON = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

type jsonRenderer struct{}

func (jsonRenderer) Render(w io.Writer, p *plan.StackPlan) error {
	return writeJSON(w, p)
}

// writeJSON encodes v with two-space indentation and a trailing newline.
func writeJSON(w io.Writer, v any) error {
	b, err := indentedJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

type yamlRenderer struct{}

func (yamlRenderer) Render(w io.Writer, p *plan.StackPlan) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return enc.Close()
}
