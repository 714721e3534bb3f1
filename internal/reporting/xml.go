package reporting

import (
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

// xmlRenderer writes a JUnit-style document: one testsuite for the plan and
// one testcase per decision, so CI dashboards can show the selection.
type xmlRenderer struct{}

func (xmlRenderer) Render(w io.Writer, p *plan.StackPlan) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", "runeforge")
	suites.CreateAttr("tests", strconv.Itoa(len(p.Decisions)))

	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", "stack-plan")
	suite.CreateAttr("tests", strconv.Itoa(len(p.Decisions)))
	suite.CreateAttr("failures", "0")

	props := suite.CreateElement("properties")
	addProperty(props, "seed", strconv.FormatUint(p.Meta.Seed, 10))
	addProperty(props, "blueprint_hash", p.Meta.BlueprintHash)
	addProperty(props, "plan_hash", p.Meta.PlanHash)
	addProperty(props, "monthly_cost_usd", formatFloat(p.Estimated.MonthlyCostUSD))

	for _, d := range p.Decisions {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", d.Topic)
		tc.CreateAttr("classname", "runeforge."+d.Topic)

		tcProps := tc.CreateElement("properties")
		addProperty(tcProps, "choice", d.Choice)
		addProperty(tcProps, "score", formatFloat(d.Score))
		if len(d.Alternatives) > 0 {
			addProperty(tcProps, "alternatives", strings.Join(d.Alternatives, ", "))
		}
		tc.CreateElement("system-out").SetText(strings.Join(d.Reasons, "\n"))
	}

	if len(p.Estimated.Notes) > 0 {
		suite.CreateElement("system-err").SetText(strings.Join(p.Estimated.Notes, "\n"))
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return errors.Wrap(err, "write xml")
	}
	return nil
}

func addProperty(parent *etree.Element, name, value string) {
	prop := parent.CreateElement("property")
	prop.CreateAttr("name", name)
	prop.CreateAttr("value", value)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
