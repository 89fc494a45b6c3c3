package codenames

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregate_Mean(t *testing.T) {
	tests := []struct {
		name      string
		utilities []float64
		want      float64
	}{
		{"simple", []float64{1, 2, 3}, 2.0},
		{"single", []float64{4.5}, 4.5},
		{"empty treated as zero", nil, 0.0},
		{"negative", []float64{-10, 2}, -4.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.utilities, AggregateMean, 0); !almostEqual(got, tt.want) {
				t.Errorf("mean = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate_MeanMinusLambdaStd(t *testing.T) {
	// mean 2, pstdev sqrt(2/3)
	u := []float64{1, 2, 3}
	want := 2.0 - 0.7*math.Sqrt(2.0/3.0)
	if got := Aggregate(u, AggregateMeanMinusLambdaStd, 0.7); !almostEqual(got, want) {
		t.Errorf("score = %v, want %v", got, want)
	}

	// Single sample has zero stdev, so the score is the sample itself.
	if got := Aggregate([]float64{3.25}, AggregateMeanMinusLambdaStd, 0.7); !almostEqual(got, 3.25) {
		t.Errorf("single-sample score = %v, want 3.25", got)
	}
}

func TestAggregate_P10(t *testing.T) {
	tests := []struct {
		name      string
		utilities []float64
		want      float64
	}{
		// floor(0.1 * 9) = 0: lowest value
		{"ten samples", []float64{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, 0},
		// floor(0.1 * 10) = 1: second lowest of eleven
		{"eleven samples", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, 1},
		{"single", []float64{5}, 5},
		{"two", []float64{5, -2}, -2},
		{"empty treated as zero", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.utilities, AggregateP10, 0); !almostEqual(got, tt.want) {
				t.Errorf("p10 = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate_AlwaysFinite(t *testing.T) {
	inputs := [][]float64{nil, {}, {0}, {-10, -10}, {1e9, -1e9}}
	modes := []AggregateMode{AggregateMean, AggregateMeanMinusLambdaStd, AggregateP10}
	for _, u := range inputs {
		for _, mode := range modes {
			got := Aggregate(u, mode, 0.7)
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("Aggregate(%v, %s) = %v", u, mode, got)
			}
		}
	}
}

func TestPStdev(t *testing.T) {
	tests := []struct {
		name      string
		utilities []float64
		want      float64
	}{
		{"uniform", []float64{2, 2, 2}, 0},
		{"single", []float64{7}, 0},
		{"empty", nil, 0},
		{"spread", []float64{1, 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PStdev(tt.utilities); !almostEqual(got, tt.want) {
				t.Errorf("pstdev = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvalStats_Better_TieBreaks(t *testing.T) {
	tests := []struct {
		name string
		a, b EvalStats
		want bool
	}{
		{"higher score wins", EvalStats{Score: 2}, EvalStats{Score: 1}, true},
		{"lower score loses", EvalStats{Score: 1}, EvalStats{Score: 2}, false},
		{"score tie, higher mean wins", EvalStats{Score: 1, Mean: 3}, EvalStats{Score: 1, Mean: 2}, true},
		{"score and mean tie, lower std wins", EvalStats{Score: 1, Mean: 2, Std: 0.1}, EvalStats{Score: 1, Mean: 2, Std: 0.5}, true},
		{"full tie is not better", EvalStats{Score: 1, Mean: 2, Std: 0.1}, EvalStats{Score: 1, Mean: 2, Std: 0.1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Better(tt.b); got != tt.want {
				t.Errorf("Better = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatsFor_SingleSample(t *testing.T) {
	stats := StatsFor([]float64{2.5}, AggregateMeanMinusLambdaStd, 0.7)
	if !almostEqual(stats.Mean, 2.5) || !almostEqual(stats.Std, 0) || !almostEqual(stats.Score, 2.5) {
		t.Errorf("stats = %+v", stats)
	}
}
