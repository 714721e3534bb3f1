package reporting

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/xkilldash9x/runeforge/internal/fingerprint"
	"github.com/xkilldash9x/runeforge/internal/plan"
)

// Diff returns a unified diff between the canonical, indented JSON forms of
// two plans. Equal plans produce an empty string.
func Diff(a, b *plan.StackPlan, fromName, toName string) (string, error) {
	left, err := canonicalLines(a)
	if err != nil {
		return "", errors.Wrapf(err, "canonicalize %s", fromName)
	}
	right, err := canonicalLines(b)
	if err != nil {
		return "", errors.Wrapf(err, "canonicalize %s", toName)
	}
	if left == right {
		return "", nil
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(left),
		B:        difflib.SplitLines(right),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// canonicalLines indents the canonical encoding so keys are sorted and each
// scalar sits on its own line.
func canonicalLines(p *plan.StackPlan) (string, error) {
	raw, err := fingerprint.Canonical(p)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return "", errors.Wrap(err, "indent canonical json")
	}
	out.WriteByte('\n')
	return out.String(), nil
}
