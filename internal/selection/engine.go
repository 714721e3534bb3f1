package selection

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/catalog"
	"github.com/xkilldash9x/runeforge/internal/fingerprint"
	"github.com/xkilldash9x/runeforge/internal/observability"
	"github.com/xkilldash9x/runeforge/internal/plan"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

const (
	maxAlternatives   = plan.MaxAlternatives
	aiChoices         = 2
	aiAlternatives    = 2
	highScoreCutoff   = 0.8
	latencySLOCutoff  = 0.85
	securityCutoff    = 0.85
	aiChoiceSeparator = ", "
)

// Engine turns blueprints into stack plans. It is an immutable value built
// from a rules document and a seed; a single Engine may serve concurrent
// Select calls. Metrics, when set, only observe.
type Engine struct {
	rules   *catalog.RulesDocument
	seed    uint64
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for selection events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records selection outcomes and constraint rejections in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New returns an engine over rules using seed for tie-breaking.
func New(rules *catalog.RulesDocument, seed uint64, opts ...Option) *Engine {
	e := &Engine{rules: rules, seed: seed, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "selection"))
	if !rules.WeightsNormalized() {
		e.logger.Warn("Rule weights do not sum to 1.0; scores may leave [0,1]",
			zap.Float64("weight_sum", rules.WeightSum()))
	}
	return e
}

// Seed returns the tie-break seed.
func (e *Engine) Seed() uint64 { return e.seed }

// Rules returns the rules document the engine scores against.
func (e *Engine) Rules() *catalog.RulesDocument { return e.rules }

// ranked is a scored candidate.
type ranked struct {
	candidate catalog.Candidate
	breakdown Breakdown
}

func (r ranked) score() float64 { return r.breakdown.Score }

// Select resolves every category of bp and returns the sealed plan. It either
// returns a complete plan or an error; partial plans are never produced.
func (e *Engine) Select(bp *blueprint.Blueprint) (*plan.StackPlan, error) {
	start := time.Now()
	p, err := e.selectStack(bp)
	e.metrics.RecordSelection(err == nil, time.Since(start))
	return p, err
}

func (e *Engine) selectStack(bp *blueprint.Blueprint) (*plan.StackPlan, error) {
	observability.SelectionStarted(e.logger, bp.ProjectName, e.seed)

	var (
		decisions = make([]plan.Decision, 0, len(catalog.All()))
		stack     = plan.Stack{AI: []string{}}
		total     float64
		language  string
	)

	for _, cat := range catalog.All() {
		if cat == catalog.AI {
			d, names, err := e.selectAI(bp, language)
			if err != nil {
				return nil, e.fail(cat.String(), err)
			}
			stack.AI = names
			for _, n := range names {
				total += e.rules.BaseCost(cat, n)
			}
			decisions = append(decisions, d)
			continue
		}

		d, err := e.selectCategory(cat, bp, language)
		if err != nil {
			return nil, e.fail(cat.String(), err)
		}
		if cat == catalog.Language {
			language = d.Choice
		}
		assign(&stack, cat, d.Choice)
		total += e.rules.BaseCost(cat, d.Choice)
		decisions = append(decisions, d)
	}

	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].Score > decisions[j].Score
	})

	if limit, ok := bp.CostCap(); ok && total > limit {
		return nil, e.fail("budget", &stackerr.BudgetExceededError{Cap: limit, Total: total})
	}

	bpHash, err := fingerprint.Of(bp)
	if err != nil {
		return nil, e.fail("fingerprint", fmt.Errorf("failed to fingerprint blueprint: %w", err))
	}

	sealed, err := plan.NewBuilder().
		SetDecisions(decisions).
		SetStack(stack).
		SetEstimate(plan.Estimated{MonthlyCostUSD: total, Notes: e.complianceNotes(bp)}).
		SetMeta(e.seed, bpHash.String()).
		Seal()
	if err != nil {
		return nil, e.fail("seal", err)
	}

	observability.SelectionFinished(e.logger, stackSummary(sealed.Stack), total, sealed.Meta.PlanHash)
	return sealed, nil
}

func (e *Engine) fail(stage string, err error) error {
	observability.SelectionFailed(e.logger, stage, err)
	return err
}

// rank returns the admissible candidates of cat ordered by score, highest
// first. Preferences narrow the set only when at least one preferred
// candidate is admissible.
func (e *Engine) rank(cat catalog.Category, bp *blueprint.Blueprint, language string, applyPrefs bool) ([]ranked, error) {
	pool, err := languagePool(e.rules.Candidates(cat), cat, bp)
	if err != nil {
		return nil, err
	}

	admissible := make([]catalog.Candidate, 0, len(pool))
	for _, c := range pool {
		v := Check(c, cat, bp, language)
		if limit, ok := bp.CostCap(); ok && v != ViolationRegion {
			observability.ConstraintEvaluated(e.logger, string(ViolationCost), c.Name, limit, c.MonthlyCostBase, v != ViolationCost)
		}
		if v != ViolationNone {
			e.metrics.RecordConstraintViolation(string(v))
			observability.CandidateRejected(e.logger, cat.String(), c.Name, string(v))
			continue
		}
		admissible = append(admissible, c)
	}
	if len(admissible) == 0 {
		return nil, &stackerr.NoCandidateError{Category: cat.String()}
	}

	if applyPrefs {
		admissible = preferred(admissible, bp.Prefs.For(cat))
	}

	out := make([]ranked, len(admissible))
	for i, c := range admissible {
		b := ScoreBreakdown(e.rules.Weights, c.Metrics, bp.TrafficProfile)
		observability.CandidateScored(e.logger, cat.String(), c.Name, b.Score, b)
		out[i] = ranked{candidate: c, breakdown: b}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score() > out[j].score() })
	return out, nil
}

// languagePool applies single_language_mode to the language category.
func languagePool(all []catalog.Candidate, cat catalog.Category, bp *blueprint.Blueprint) ([]catalog.Candidate, error) {
	if cat != catalog.Language || bp.SingleLanguageMode == nil {
		return all, nil
	}
	name, err := bp.SingleLanguageMode.CandidateName()
	if err != nil {
		return nil, &stackerr.ValidationError{Field: "single_language_mode", Rule: err.Error()}
	}
	for _, c := range all {
		if c.Name == name {
			return []catalog.Candidate{c}, nil
		}
	}
	return nil, nil
}

func preferred(cands []catalog.Candidate, prefs []string) []catalog.Candidate {
	if len(prefs) == 0 {
		return cands
	}
	want := make(map[string]struct{}, len(prefs))
	for _, p := range prefs {
		want[p] = struct{}{}
	}
	var hits []catalog.Candidate
	for _, c := range cands {
		if _, ok := want[c.Name]; ok {
			hits = append(hits, c)
		}
	}
	if len(hits) == 0 {
		return cands
	}
	return hits
}

func (e *Engine) selectCategory(cat catalog.Category, bp *blueprint.Blueprint, language string) (plan.Decision, error) {
	scored, err := e.rank(cat, bp, language, true)
	if err != nil {
		return plan.Decision{}, err
	}

	top := scored[0].score()
	var tied []string
	for _, r := range scored {
		if math.Abs(r.score()-top) < tieEpsilon {
			tied = append(tied, r.candidate.Name)
		}
	}

	chosen := scored[0]
	if len(tied) > 1 {
		name := Choose(cat.String(), e.seed, tied)
		observability.TieBroken(e.logger, cat.String(), e.seed, tied, name)
		for _, r := range scored {
			if r.candidate.Name == name {
				chosen = r
				break
			}
		}
	}

	alternatives := make([]string, 0, maxAlternatives)
	for _, r := range scored {
		if len(alternatives) == maxAlternatives {
			break
		}
		if r.candidate.Name != chosen.candidate.Name {
			alternatives = append(alternatives, r.candidate.Name)
		}
	}

	observability.CategoryDecided(e.logger, cat.String(), chosen.candidate.Name, chosen.score())
	return plan.Decision{
		Topic:        cat.String(),
		Choice:       chosen.candidate.Name,
		Reasons:      reasonsFor(cat, chosen, bp, language),
		Alternatives: alternatives,
		Score:        chosen.score(),
	}, nil
}

// selectAI picks the two best AI providers. Preferences do not apply.
func (e *Engine) selectAI(bp *blueprint.Blueprint, language string) (plan.Decision, []string, error) {
	scored, err := e.rank(catalog.AI, bp, language, false)
	if err != nil {
		return plan.Decision{}, nil, err
	}

	names := make([]string, 0, aiChoices)
	for _, r := range scored[:min(aiChoices, len(scored))] {
		names = append(names, r.candidate.Name)
	}
	alternatives := []string{}
	if len(scored) > aiChoices {
		for _, r := range scored[aiChoices:min(aiChoices+aiAlternatives, len(scored))] {
			alternatives = append(alternatives, r.candidate.Name)
		}
	}

	observability.CategoryDecided(e.logger, catalog.AI.String(), strings.Join(names, aiChoiceSeparator), scored[0].score())
	return plan.Decision{
		Topic:  catalog.AI.String(),
		Choice: strings.Join(names, aiChoiceSeparator),
		Reasons: []string{
			"Selected based on quality and cost balance",
			"Multiple AI providers for redundancy",
		},
		Alternatives: alternatives,
		Score:        scored[0].score(),
	}, names, nil
}

func reasonsFor(cat catalog.Category, chosen ranked, bp *blueprint.Blueprint, language string) []string {
	var reasons []string
	m := chosen.candidate.Metrics

	if cat.DependsOnLanguage() && language != "" {
		reasons = append(reasons, fmt.Sprintf("Compatible with %s language", language))
	}
	if chosen.score() > highScoreCutoff {
		reasons = append(reasons, "High overall score across all metrics")
	}
	if bp.TrafficProfile.LatencySensitive && m.SLO > latencySLOCutoff {
		reasons = append(reasons, "Excellent performance for latency-sensitive workload")
	}
	if len(bp.Constraints.Compliance) > 0 {
		if m.Security > securityCutoff {
			reasons = append(reasons, "Strong security features for compliance requirements")
		}
		if bp.Constraints.HasCompliance(blueprint.ComplianceHIPAA) {
			reasons = append(reasons, "HIPAA-compliant infrastructure support")
		}
		if bp.Constraints.HasCompliance(blueprint.ComplianceSOX) {
			reasons = append(reasons, "SOX compliance with audit trail capabilities")
		}
	}
	if len(chosen.candidate.Notes) > 0 {
		reasons = append(reasons, chosen.candidate.Notes[0])
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("Selected based on optimal %s score", cat))
	}
	return reasons
}

// complianceNotes lists, per declared compliance flag, the features the rules
// document expects the stack to provide.
func (e *Engine) complianceNotes(bp *blueprint.Blueprint) []string {
	var notes []string
	for _, flag := range bp.Constraints.Compliance {
		req, ok := e.rules.ComplianceRequirements[string(flag)]
		if !ok || len(req.RequiredFeatures) == 0 {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s requires: %s", flag, strings.Join(req.RequiredFeatures, ", ")))
	}
	return notes
}

func assign(s *plan.Stack, cat catalog.Category, name string) {
	switch cat {
	case catalog.Language:
		s.Language = name
	case catalog.Backend:
		s.Backend = name
	case catalog.Frontend:
		s.Frontend = name
	case catalog.Database:
		s.Database = name
	case catalog.Cache:
		s.Cache = name
	case catalog.Queue:
		s.Queue = name
	case catalog.Infra:
		s.Infra = name
	case catalog.CICD:
		s.CICD = name
	case catalog.AI:
		s.AI = append(s.AI, name)
	default:
		panic(fmt.Sprintf("unhandled category %s", cat))
	}
}

type stackSummary plan.Stack

func (s stackSummary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("language", s.Language)
	enc.AddString("backend", s.Backend)
	enc.AddString("frontend", s.Frontend)
	enc.AddString("database", s.Database)
	enc.AddString("cache", s.Cache)
	enc.AddString("queue", s.Queue)
	enc.AddString("ai", strings.Join(s.AI, aiChoiceSeparator))
	enc.AddString("infra", s.Infra)
	enc.AddString("ci_cd", s.CICD)
	return nil
}
