// Package metrics aggregates game records into per-agent benchmark
// summaries.
package metrics

import (
	"math"
	"sort"

	"github.com/freeeve/codenames-bench/internal/runner"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

// wilsonZ is the 97.5th normal quantile, for a 95% interval.
const wilsonZ = 1.959964

// AgentSummary is one agent's aggregate performance across a set of
// game records. An agent appears once per record per colour it played.
type AgentSummary struct {
	Agent  string `json:"agent"`
	Games  int    `json:"games"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
	Errors int    `json:"errors"`

	// WinRate is wins over decided-or-drawn games (error games are
	// excluded from the denominator), with a 95% Wilson interval.
	WinRate     float64 `json:"win_rate"`
	WinRateLow  float64 `json:"win_rate_low"`
	WinRateHigh float64 `json:"win_rate_high"`

	// AssassinLossRate is the share of games lost by guessing the
	// assassin; OpponentFlipRate the share of own turns that ended by
	// revealing a non-team card.
	AssassinLossRate  float64 `json:"assassin_loss_rate"`
	OpponentFlipRate  float64 `json:"opponent_flip_rate"`
	AvgCorrectPerClue float64 `json:"avg_correct_per_clue"`
	AvgTurnsPerGame   float64 `json:"avg_turns_per_game"`
}

type tally struct {
	games, wins, losses, draws, errs int
	assassinLosses                   int
	turns, flips, correct            int
}

// Summarize reduces game records to per-agent summaries, sorted by
// agent name. Each record contributes to both its agents.
func Summarize(records []*runner.GameRecord) []AgentSummary {
	tallies := make(map[string]*tally)
	get := func(name string) *tally {
		t, ok := tallies[name]
		if !ok {
			t = &tally{}
			tallies[name] = t
		}
		return t
	}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		accumulate(get(rec.RedAgent), rec, codenames.Red)
		accumulate(get(rec.BlueAgent), rec, codenames.Blue)
	}

	summaries := make([]AgentSummary, 0, len(tallies))
	for name, t := range tallies {
		summaries = append(summaries, summarize(name, t))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Agent < summaries[j].Agent })
	return summaries
}

func accumulate(t *tally, rec *runner.GameRecord, team codenames.Team) {
	t.games++
	switch {
	case rec.EndReason == runner.EndError:
		t.errs++
	case rec.EndReason == runner.EndMaxTurns:
		t.draws++
	case rec.Winner == team:
		t.wins++
	case rec.Loser == team:
		t.losses++
		if rec.EndReason == runner.EndAssassin && len(rec.Turns) > 0 {
			// Losing to the assassin on someone else's turn is the
			// opponent's mistake, not yours.
			last := rec.Turns[len(rec.Turns)-1]
			if last.Team == team {
				t.assassinLosses++
			}
		}
	}

	card := team.CardType()
	for _, tl := range rec.Turns {
		if tl.Team != team {
			continue
		}
		t.turns++
		if tl.ActualOutcome.StoppedReason == codenames.StopWrong {
			t.flips++
		}
		for _, g := range tl.ActualOutcome.Applied {
			if g.CardType == card {
				t.correct++
			}
		}
	}
}

func summarize(name string, t *tally) AgentSummary {
	s := AgentSummary{
		Agent:  name,
		Games:  t.games,
		Wins:   t.wins,
		Losses: t.losses,
		Draws:  t.draws,
		Errors: t.errs,
	}
	decided := t.games - t.errs
	if decided > 0 {
		s.WinRate = float64(t.wins) / float64(decided)
	}
	s.WinRateLow, s.WinRateHigh = Wilson(t.wins, decided)
	if t.games > 0 {
		s.AssassinLossRate = float64(t.assassinLosses) / float64(t.games)
		s.AvgTurnsPerGame = float64(t.turns) / float64(t.games)
	}
	if t.turns > 0 {
		s.OpponentFlipRate = float64(t.flips) / float64(t.turns)
		s.AvgCorrectPerClue = float64(t.correct) / float64(t.turns)
	}
	return s
}

// Wilson returns the 95% Wilson score interval for wins successes in
// n trials; (0, 0) when n is zero.
func Wilson(wins, n int) (low, high float64) {
	if n <= 0 {
		return 0, 0
	}
	p := float64(wins) / float64(n)
	nf := float64(n)
	z2 := wilsonZ * wilsonZ
	denom := 1 + z2/nf
	center := p + z2/(2*nf)
	margin := wilsonZ * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf))
	low = (center - margin) / denom
	high = (center + margin) / denom
	if low < 0 {
		low = 0
	}
	if high > 1 {
		high = 1
	}
	return low, high
}
