package reconciler

import (
	"fmt"
	"strings"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/provenance"
	"github.com/agentstation/bizmerge/pkg/similarity"
)

// StrategyType represents the type of resolution strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the name of the strategy type.
func (s StrategyType) Name() string {
	words := strings.Split(s.String(), "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

const (
	// StrategyTypeFusion merges similar values and keeps the more detailed one.
	StrategyTypeFusion StrategyType = "similarity-fusion"
	// StrategyTypeSourceOrder takes the first value in slot order.
	StrategyTypeSourceOrder StrategyType = "source-order"
)

// Candidate is a non-null value offered by one provenance slot.
type Candidate struct {
	Slot  provenance.Slot
	Value string
}

// Decision is the outcome of resolving one attribute of one row.
type Decision struct {
	Value    string
	Valid    bool // false when no candidate was available
	Steps    []provenance.Provenance
	Appended int // candidates appended as more detailed
	Replaced int // candidates that replaced the running best value
}

// Slots returns the slots that contributed to the decision.
func (d Decision) Slots() []provenance.Slot {
	slots := make([]provenance.Slot, 0, len(d.Steps))
	for _, s := range d.Steps {
		slots = append(slots, s.Slot)
	}
	return slots
}

// Strategy resolves the candidates of one attribute into a single value.
// Implementations must be pure: the decision depends only on the arguments.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Resolve picks the value of attribute from candidates given in slot order
	Resolve(attribute string, candidates []Candidate) Decision
}

// baseStrategy provides common strategy functionality.
type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// FusionStrategy seeds the result with the most trusted candidate and then
// walks the others in slot order. A candidate scoring higher than the
// running best replaces it. A candidate scoring at least the detail
// threshold whose tokens cover the best value's tokens is appended as
// "best, candidate". Empty strings are not candidates.
type FusionStrategy struct {
	baseStrategy
	threshold int
	scorer    *similarity.Scorer
}

// NewFusionStrategy creates a similarity fusion strategy with the given
// detail threshold.
func NewFusionStrategy(threshold int) *FusionStrategy {
	return &FusionStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeFusion,
			description: fmt.Sprintf("Merges similar values, appending more detailed ones scoring at least %d", threshold),
		},
		threshold: threshold,
		scorer:    similarity.NewScorer(),
	}
}

// Threshold returns the detail threshold.
func (s *FusionStrategy) Threshold() int {
	return s.threshold
}

// Resolve fuses the candidates.
func (s *FusionStrategy) Resolve(_ string, candidates []Candidate) Decision {
	var present []Candidate
	for _, c := range candidates {
		if c.Value != "" {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return Decision{}
	}

	seed := present[0]
	d := Decision{Value: seed.Value, Valid: true}
	d.Steps = append(d.Steps, provenance.Provenance{
		Slot:   seed.Slot,
		Value:  seed.Value,
		Score:  constants.SeedScore,
		Reason: fmt.Sprintf("seeded from %s", seed.Slot),
	})
	bestScore := constants.SeedScore

	for _, c := range present {
		if c.Value == d.Value {
			continue
		}
		score := s.scorer.TokenSortRatio(d.Value, c.Value)
		switch {
		case score > bestScore:
			d.Value = c.Value
			bestScore = score
			d.Replaced++
			d.Steps = append(d.Steps, provenance.Provenance{
				Slot:   c.Slot,
				Value:  d.Value,
				Score:  score,
				Reason: fmt.Sprintf("replaced by %s (score %d)", c.Slot, score),
			})
		case score >= s.threshold && similarity.IsMoreDetailed(d.Value, c.Value):
			d.Value = d.Value + constants.AppendSeparator + c.Value
			d.Appended++
			d.Steps = append(d.Steps, provenance.Provenance{
				Slot:   c.Slot,
				Value:  d.Value,
				Score:  score,
				Reason: fmt.Sprintf("appended more detailed value from %s (score %d)", c.Slot, score),
			})
		}
	}
	return d
}

// SourceOrderStrategy takes the first candidate in slot order.
// Slots earlier in the order have higher precedence.
type SourceOrderStrategy struct {
	baseStrategy
}

// NewSourceOrderStrategy creates a source priority order strategy.
func NewSourceOrderStrategy() *SourceOrderStrategy {
	return &SourceOrderStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeSourceOrder,
			description: "Takes the first value in slot priority order",
		},
	}
}

// Resolve returns the first candidate. An empty string still counts as a
// recorded value.
func (s *SourceOrderStrategy) Resolve(_ string, candidates []Candidate) Decision {
	if len(candidates) == 0 {
		return Decision{}
	}
	c := candidates[0]
	return Decision{
		Value: c.Value,
		Valid: true,
		Steps: []provenance.Provenance{{
			Slot:   c.Slot,
			Value:  c.Value,
			Reason: fmt.Sprintf("first non-null in priority order (%s)", c.Slot),
		}},
	}
}
