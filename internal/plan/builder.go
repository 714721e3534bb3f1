package plan

import (
	"fmt"

	"github.com/xkilldash9x/runeforge/internal/fingerprint"
)

// Builder assembles a StackPlan. The plan fingerprint is only ever computed by
// Seal, over a copy whose PlanHash is blank, so the hash can never be part of
// its own input.
type Builder struct {
	draft  StackPlan
	sealed bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{draft: StackPlan{Decisions: []Decision{}, Stack: Stack{AI: []string{}}}}
}

// AddDecision appends a decision. Ordering is the caller's responsibility.
func (b *Builder) AddDecision(d Decision) *Builder {
	b.draft.Decisions = append(b.draft.Decisions, d)
	return b
}

// SetDecisions replaces all decisions.
func (b *Builder) SetDecisions(ds []Decision) *Builder {
	b.draft.Decisions = append([]Decision{}, ds...)
	return b
}

// SetStack sets the resolved stack.
func (b *Builder) SetStack(s Stack) *Builder {
	b.draft.Stack = s
	return b
}

// SetEstimate sets the cost estimate.
func (b *Builder) SetEstimate(e Estimated) *Builder {
	b.draft.Estimated = e
	return b
}

// SetMeta records the seed and blueprint fingerprint.
func (b *Builder) SetMeta(seed uint64, blueprintHash string) *Builder {
	b.draft.Meta = Meta{Seed: seed, BlueprintHash: blueprintHash}
	return b
}

// Seal finalizes the plan: it hashes the draft with an empty plan hash and
// returns a new plan carrying that hash. A builder can be sealed once.
func (b *Builder) Seal() (*StackPlan, error) {
	if b.sealed {
		return nil, fmt.Errorf("plan builder already sealed")
	}
	if b.draft.Meta.BlueprintHash == "" {
		return nil, fmt.Errorf("plan meta is missing the blueprint hash")
	}

	unsealed := b.draft.clone()
	unsealed.Meta.PlanHash = ""

	hash, err := Fingerprint(&unsealed)
	if err != nil {
		return nil, err
	}

	sealed := unsealed.clone()
	sealed.Meta.PlanHash = hash
	b.sealed = true
	return &sealed, nil
}

// Fingerprint hashes a plan with its plan hash blanked. It never mutates p.
func Fingerprint(p *StackPlan) (string, error) {
	unsealed := p.clone()
	unsealed.Meta.PlanHash = ""
	d, err := fingerprint.Of(unsealed)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint plan: %w", err)
	}
	return d.String(), nil
}
