package codenames

import (
	"math"
	"sort"
)

// AggregateMode selects how a sample of rollout utilities reduces to
// a single selection score.
type AggregateMode string

const (
	// AggregateMean: arithmetic mean, risk-neutral.
	AggregateMean AggregateMode = "mean"
	// AggregateMeanMinusLambdaStd: mean minus lambda times the
	// population stdev, penalising high-variance clues.
	AggregateMeanMinusLambdaStd AggregateMode = "mean_minus_lambda_std"
	// AggregateP10: the 10th-percentile utility, a pessimistic floor.
	AggregateP10 AggregateMode = "p10"
)

// DefaultLambdaStd is the standard variance penalty for
// AggregateMeanMinusLambdaStd.
const DefaultLambdaStd = 0.7

// Mean returns the arithmetic mean of utilities; 0 for an empty sample.
func Mean(utilities []float64) float64 {
	if len(utilities) == 0 {
		return 0
	}
	sum := 0.0
	for _, u := range utilities {
		sum += u
	}
	return sum / float64(len(utilities))
}

// PStdev returns the population standard deviation; 0 for samples of
// size one or less.
func PStdev(utilities []float64) float64 {
	if len(utilities) <= 1 {
		return 0
	}
	m := Mean(utilities)
	sumSq := 0.0
	for _, u := range utilities {
		d := u - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(utilities)))
}

// Aggregate reduces rollout utilities to a selection score under the
// given mode. An empty sample is treated as a single zero utility, so
// the score is always finite.
func Aggregate(utilities []float64, mode AggregateMode, lambda float64) float64 {
	if len(utilities) == 0 {
		utilities = []float64{0.0}
	}
	switch mode {
	case AggregateMeanMinusLambdaStd:
		return Mean(utilities) - lambda*PStdev(utilities)
	case AggregateP10:
		sorted := make([]float64, len(utilities))
		copy(sorted, utilities)
		sort.Float64s(sorted)
		idx := int(math.Floor(0.1 * float64(len(sorted)-1)))
		return sorted[idx]
	default:
		return Mean(utilities)
	}
}

// EvalStats bundles the statistics used to rank one candidate.
type EvalStats struct {
	Mean  float64 `json:"mean_utility"`
	Std   float64 `json:"std_utility"`
	Score float64 `json:"selection_score"`
}

// StatsFor computes a candidate's ranking statistics from its rollout
// utilities.
func StatsFor(utilities []float64, mode AggregateMode, lambda float64) EvalStats {
	if len(utilities) == 0 {
		utilities = []float64{0.0}
	}
	return EvalStats{
		Mean:  Mean(utilities),
		Std:   PStdev(utilities),
		Score: Aggregate(utilities, mode, lambda),
	}
}

// Better reports whether a should be picked over b: higher selection
// score, ties broken by higher mean, then lower stdev. Callers keep
// the earlier candidate on a full tie.
func (a EvalStats) Better(b EvalStats) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Mean != b.Mean {
		return a.Mean > b.Mean
	}
	return a.Std < b.Std
}
