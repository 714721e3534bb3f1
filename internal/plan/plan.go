package plan

// StackPlan is the full output of a selection run.
type StackPlan struct {
	Decisions []Decision `json:"decisions" yaml:"decisions"`
	Stack     Stack      `json:"stack" yaml:"stack"`
	Estimated Estimated  `json:"estimated" yaml:"estimated"`
	Meta      Meta       `json:"meta" yaml:"meta"`
}

// Decision is the outcome for one category.
type Decision struct {
	Topic        string   `json:"topic" yaml:"topic"`
	Choice       string   `json:"choice" yaml:"choice"`
	Reasons      []string `json:"reasons" yaml:"reasons"`
	Alternatives []string `json:"alternatives" yaml:"alternatives"`
	Score        float64  `json:"score" yaml:"score"`
}

// Stack is the resolved technology per category. AI holds up to two names.
type Stack struct {
	Language string    `json:"language" yaml:"language"`
	Services []Service `json:"services,omitempty" yaml:"services,omitempty"`
	Frontend string    `json:"frontend" yaml:"frontend"`
	Backend  string    `json:"backend" yaml:"backend"`
	Database string    `json:"database" yaml:"database"`
	Cache    string    `json:"cache" yaml:"cache"`
	Queue    string    `json:"queue" yaml:"queue"`
	AI       []string  `json:"ai" yaml:"ai"`
	Infra    string    `json:"infra" yaml:"infra"`
	CICD     string    `json:"ci_cd" yaml:"ci_cd"`
}

// Service describes a deployable unit of the stack.
type Service struct {
	Name      string `json:"name" yaml:"name"`
	Kind      string `json:"kind" yaml:"kind"`
	Language  string `json:"language" yaml:"language"`
	Framework string `json:"framework" yaml:"framework"`
	Runtime   string `json:"runtime" yaml:"runtime"`
	Build     string `json:"build" yaml:"build"`
	Tests     string `json:"tests" yaml:"tests"`
}

// Estimated carries the cost estimate.
type Estimated struct {
	MonthlyCostUSD float64  `json:"monthly_cost_usd" yaml:"monthly_cost_usd"`
	EgressGB       *float64 `json:"egress_gb,omitempty" yaml:"egress_gb,omitempty"`
	Notes          []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Meta carries the reproducibility fingerprints.
type Meta struct {
	Seed          uint64 `json:"seed" yaml:"seed"`
	BlueprintHash string `json:"blueprint_hash" yaml:"blueprint_hash"`
	PlanHash      string `json:"plan_hash" yaml:"plan_hash"`
}

// Decision returns the decision for a topic, if present.
func (p *StackPlan) Decision(topic string) (Decision, bool) {
	for _, d := range p.Decisions {
		if d.Topic == topic {
			return d, true
		}
	}
	return Decision{}, false
}

// clone returns a deep copy so sealed plans never share backing arrays with
// the builder.
func (p StackPlan) clone() StackPlan {
	out := p
	out.Decisions = make([]Decision, len(p.Decisions))
	for i, d := range p.Decisions {
		d.Reasons = append([]string(nil), d.Reasons...)
		d.Alternatives = append([]string(nil), d.Alternatives...)
		if d.Reasons == nil {
			d.Reasons = []string{}
		}
		if d.Alternatives == nil {
			d.Alternatives = []string{}
		}
		out.Decisions[i] = d
	}
	out.Stack.AI = append([]string{}, p.Stack.AI...)
	if p.Stack.Services != nil {
		out.Stack.Services = append([]Service(nil), p.Stack.Services...)
	}
	if p.Estimated.EgressGB != nil {
		v := *p.Estimated.EgressGB
		out.Estimated.EgressGB = &v
	}
	if p.Estimated.Notes != nil {
		out.Estimated.Notes = append([]string(nil), p.Estimated.Notes...)
	}
	return out
}
