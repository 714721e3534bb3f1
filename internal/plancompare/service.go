// File: internal/plancompare/service.go

// Package plancompare compares two stack plans semantically and reports the
// per-category changes between them.
package plancompare

import (
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

// ChangeKind classifies a per-category difference.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeRemoved   ChangeKind = "removed"
	ChangeChoice    ChangeKind = "choice"
	ChangeScore     ChangeKind = "score"
	ChangeRationale ChangeKind = "rationale"
)

// Change is one difference between the decisions of two plans.
type Change struct {
	Topic string     `json:"topic"`
	Kind  ChangeKind `json:"kind"`
	From  string     `json:"from,omitempty"`
	To    string     `json:"to,omitempty"`
	// ScoreDelta is the new score minus the old one.
	ScoreDelta float64 `json:"score_delta"`
}

// ComparisonResult is the outcome of comparing two plans.
type ComparisonResult struct {
	Equivalent bool     `json:"equivalent"`
	Changes    []Change `json:"changes"`
	CostDelta  float64  `json:"cost_delta"`
	// Diff is the go-cmp report over the compared fields, empty when equivalent.
	Diff string `json:"-"`
}

// Comparer compares plans.
type Comparer interface {
	Compare(a, b *plan.StackPlan) *ComparisonResult
	CompareWithOptions(a, b *plan.StackPlan, opts Options) *ComparisonResult
}

type service struct {
	logger *zap.Logger
}

// NewService creates a plan comparison service.
func NewService(logger *zap.Logger) Comparer {
	return &service{logger: logger.Named("plancompare")}
}

// Compare uses DefaultOptions.
func (s *service) Compare(a, b *plan.StackPlan) *ComparisonResult {
	return s.CompareWithOptions(a, b, DefaultOptions())
}

func (s *service) CompareWithOptions(a, b *plan.StackPlan, opts Options) *ComparisonResult {
	diff := cmp.Diff(a, b, s.buildCmpOptions(opts)...)
	result := &ComparisonResult{
		Equivalent: diff == "",
		Diff:       diff,
		CostDelta:  b.Estimated.MonthlyCostUSD - a.Estimated.MonthlyCostUSD,
		Changes:    s.decisionChanges(a, b, opts),
	}
	s.logger.Debug("Compared plans",
		zap.Bool("equivalent", result.Equivalent),
		zap.Int("changes", len(result.Changes)),
		zap.Float64("cost_delta", result.CostDelta),
	)
	return result
}

// buildCmpOptions assembles the go-cmp options for opts.
func (s *service) buildCmpOptions(opts Options) cmp.Options {
	cmpOpts := cmp.Options{cmpopts.EquateEmpty()}

	if opts.IgnoreMeta {
		cmpOpts = append(cmpOpts, cmpopts.IgnoreFields(plan.StackPlan{}, "Meta"))
	}
	if opts.IgnoreReasons {
		cmpOpts = append(cmpOpts, cmpopts.IgnoreFields(plan.Decision{}, "Reasons"))
	}
	if opts.IgnoreAlternativeOrder {
		cmpOpts = append(cmpOpts, cmp.FilterPath(isAlternatives, cmpopts.SortSlices(func(x, y string) bool { return x < y })))
	}
	if opts.ScoreTolerance > 0 {
		cmpOpts = append(cmpOpts, cmp.FilterPath(isScore, cmpopts.EquateApprox(0, opts.ScoreTolerance)))
	}
	// Decisions are matched by topic, not position; scores may reorder them.
	cmpOpts = append(cmpOpts, cmpopts.SortSlices(func(x, y plan.Decision) bool { return x.Topic < y.Topic }))
	return cmpOpts
}

func isAlternatives(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	return ok && sf.Name() == "Alternatives"
}

func isScore(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	return ok && sf.Name() == "Score"
}

// decisionChanges lists per-topic changes in topic order.
func (s *service) decisionChanges(a, b *plan.StackPlan, opts Options) []Change {
	before := byTopic(a)
	after := byTopic(b)

	topics := make([]string, 0, len(before)+len(after))
	for t := range before {
		topics = append(topics, t)
	}
	for t := range after {
		if _, ok := before[t]; !ok {
			topics = append(topics, t)
		}
	}
	sort.Strings(topics)

	changes := []Change{}
	for _, topic := range topics {
		old, hadOld := before[topic]
		cur, hasNew := after[topic]
		switch {
		case !hasNew:
			changes = append(changes, Change{Topic: topic, Kind: ChangeRemoved, From: old.Choice, ScoreDelta: -old.Score})
		case !hadOld:
			changes = append(changes, Change{Topic: topic, Kind: ChangeAdded, To: cur.Choice, ScoreDelta: cur.Score})
		case old.Choice != cur.Choice:
			changes = append(changes, Change{Topic: topic, Kind: ChangeChoice, From: old.Choice, To: cur.Choice, ScoreDelta: cur.Score - old.Score})
		case scoreChanged(old.Score, cur.Score, opts.ScoreTolerance):
			changes = append(changes, Change{Topic: topic, Kind: ChangeScore, From: old.Choice, To: cur.Choice, ScoreDelta: cur.Score - old.Score})
		case !opts.IgnoreReasons && !cmp.Equal(old.Reasons, cur.Reasons, cmpopts.EquateEmpty()):
			changes = append(changes, Change{Topic: topic, Kind: ChangeRationale, From: old.Choice, To: cur.Choice})
		}
	}
	return changes
}

func scoreChanged(a, b, tolerance float64) bool {
	d := b - a
	if d < 0 {
		d = -d
	}
	return d > tolerance
}

func byTopic(p *plan.StackPlan) map[string]plan.Decision {
	m := make(map[string]plan.Decision, len(p.Decisions))
	for _, d := range p.Decisions {
		m[d.Topic] = d
	}
	return m
}
