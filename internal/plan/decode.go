package plan

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

var strictJSON = jsoniter.Config{
	EscapeHTML:            false,
	DisallowUnknownFields: true,
}.Froze()

// Decode reads a JSON plan such as one written by the plan command. Unknown
// fields are rejected. Decode does not validate or verify the plan.
func Decode(data []byte) (*StackPlan, error) {
	var p StackPlan
	if err := strictJSON.Unmarshal(data, &p); err != nil {
		return nil, &stackerr.ParseError{Source: "plan", Err: errors.Wrap(err, "decode plan document")}
	}
	return &p, nil
}
