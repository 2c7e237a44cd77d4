package core

import "math"

// Tier is the presentation bucket for a suspicion result.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierSuspect  Tier = "suspect"
	TierHighRisk Tier = "high_risk"
)

// ScorePolicy names a selectable scoring policy.
type ScorePolicy string

const (
	// PolicyPopulation scores a participant's average delta against the
	// robust population mean and std.
	PolicyPopulation ScorePolicy = "population"

	// PolicyFixed classifies a single delta against absolute thresholds.
	PolicyFixed ScorePolicy = "fixed"
)

// PopulationScorer maps a participant's deviation from the robust
// population mean to a 0-100 suspicion score via a dead-zone plus a
// tiered z-score curve.
type PopulationScorer struct {
	// DeadZoneMs is the band around the mean inside which deviation is
	// never suspicious, regardless of z-score.
	DeadZoneMs float64
}

// NewPopulationScorer returns a scorer with the default 50ms dead-zone.
func NewPopulationScorer() PopulationScorer {
	return PopulationScorer{DeadZoneMs: 50}
}

// Score computes the suspicion score for one participant average.
func (s PopulationScorer) Score(participantAvg, mean, std float64) int {
	if std == 0 {
		return 0
	}

	absDiff := math.Abs(participantAvg - mean)
	if absDiff <= s.DeadZoneMs {
		return 0
	}

	z := absDiff / std
	var score float64
	switch {
	case z < 1.0:
		score = 0
	case z < 2.0:
		score = 30 + (z-1.0)*40
	case z < 3.0:
		score = 70 + (z-2.0)*25
	default:
		score = 95 + math.Min((z-3.0)*5, 5)
	}

	return int(math.Round(score))
}

// TierFor maps a suspicion score to its presentation tier.
func TierFor(score int) Tier {
	switch {
	case score == 0:
		return TierNormal
	case score < 50:
		return TierSuspect
	default:
		return TierHighRisk
	}
}

// FixedThresholdScorer classifies a single delta directly against
// absolute thresholds, independent of the population. It predates the
// population-relative policy and remains selectable.
type FixedThresholdScorer struct {
	NormalBelowMs  float64
	SuspectBelowMs float64
}

// NewFixedThresholdScorer returns a scorer with the default
// 250ms/600ms thresholds.
func NewFixedThresholdScorer() FixedThresholdScorer {
	return FixedThresholdScorer{NormalBelowMs: 250, SuspectBelowMs: 600}
}

// Classify buckets one delta in milliseconds.
func (s FixedThresholdScorer) Classify(deltaMs float64) Tier {
	switch {
	case deltaMs < s.NormalBelowMs:
		return TierNormal
	case deltaMs < s.SuspectBelowMs:
		return TierSuspect
	default:
		return TierHighRisk
	}
}
