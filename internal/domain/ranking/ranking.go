// Package ranking converts four 1-10 ratings into a priority rank, an
// action tier, and an escalation flag. It is a pure library: no I/O, no
// logging, no state between calls.
package ranking

import (
	"math"
)

// Rating domain bounds.
const (
	MinRating = 1
	MaxRating = 10
)

// Formula constants. This block is the single definition of the scoring
// formula; call sites must not restate weights or thresholds.
const (
	customerImpactWeight = 0.57
	teamEnergyWeight     = 0.43
	frequencyWeight      = 0.6
	easeWeight           = 0.4

	makeItHappenFloor   = 70
	actOnItNowFloor     = 50
	moveItForwardFloor  = 36
	whenTimeAllowsFloor = 25

	escalationEnergyFloor = 9
	escalationEaseCeiling = 3
)

// Tier is the qualitative action band derived from a priority rank.
type Tier string

// Action tiers, highest urgency first.
const (
	TierMakeItHappen   Tier = "Make it happen"
	TierActOnItNow     Tier = "Act on it now"
	TierMoveItForward  Tier = "Move it forward"
	TierWhenTimeAllows Tier = "When time allows"
	TierParkForLater   Tier = "Park for later"
)

// Tiers returns all action tiers in descending urgency order.
func Tiers() []Tier {
	return []Tier{
		TierMakeItHappen,
		TierActOnItNow,
		TierMoveItForward,
		TierWhenTimeAllows,
		TierParkForLater,
	}
}

// Ratings holds the four 1-10 inputs for one item.
type Ratings struct {
	CustomerImpact int `json:"customer_impact"`
	TeamEnergy     int `json:"team_energy"`
	Frequency      int `json:"frequency"`
	Ease           int `json:"ease"`
}

// Result is the engine output the caller persists verbatim.
type Result struct {
	PriorityRank   int  `json:"priority_rank"`
	ActionTier     Tier `json:"action_tier"`
	EscalationFlag bool `json:"escalation_flag"`
}

// Validate checks every rating against [MinRating, MaxRating]. Out-of-range
// values are rejected, never clamped; the returned *ValidationError names
// each offending field by its wire name.
func (r Ratings) Validate() error {
	var bad []string
	if r.CustomerImpact < MinRating || r.CustomerImpact > MaxRating {
		bad = append(bad, FieldCustomerImpact)
	}
	if r.TeamEnergy < MinRating || r.TeamEnergy > MaxRating {
		bad = append(bad, FieldTeamEnergy)
	}
	if r.Frequency < MinRating || r.Frequency > MaxRating {
		bad = append(bad, FieldFrequency)
	}
	if r.Ease < MinRating || r.Ease > MaxRating {
		bad = append(bad, FieldEase)
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

// Compute validates the ratings and derives the full Result. Validation runs
// before any arithmetic; on failure no partial result is produced.
//
// The score multiplies a weighted urgency (customer impact, team energy) by
// a weighted feasibility (frequency, ease) and rounds once, on the final
// product. With inputs in [1,10] both factors stay in [1,10], so the rank
// stays in [1,100].
func Compute(r Ratings) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}

	urgency := customerImpactWeight*float64(r.CustomerImpact) + teamEnergyWeight*float64(r.TeamEnergy)
	feasibility := frequencyWeight*float64(r.Frequency) + easeWeight*float64(r.Ease)
	rank := int(math.Round(urgency * feasibility))

	return Result{
		PriorityRank:   rank,
		ActionTier:     TierFor(rank),
		EscalationFlag: r.TeamEnergy >= escalationEnergyFloor && r.Ease <= escalationEaseCeiling,
	}, nil
}

// TierFor maps a priority rank onto its action tier. Bands are evaluated
// highest-first and are inclusive on their lower edge, so every rank lands
// in exactly one tier.
func TierFor(rank int) Tier {
	switch {
	case rank >= makeItHappenFloor:
		return TierMakeItHappen
	case rank >= actOnItNowFloor:
		return TierActOnItNow
	case rank >= moveItForwardFloor:
		return TierMoveItForward
	case rank >= whenTimeAllowsFloor:
		return TierWhenTimeAllows
	default:
		return TierParkForLater
	}
}
