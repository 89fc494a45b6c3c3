package codenames

// UtilityWeights maps each kind of reveal to a scalar reward from the
// acting team's perspective. Injectable so shaping experiments can
// change the risk profile without touching the engine.
type UtilityWeights struct {
	Correct  float64 `json:"correct"`
	Opponent float64 `json:"opponent"`
	Neutral  float64 `json:"neutral"`
	Assassin float64 `json:"assassin"`
}

// DefaultUtilityWeights are the benchmark's standard weights. The
// assassin penalty dwarfs everything else so risk-averse aggregation
// has something to avoid.
func DefaultUtilityWeights() UtilityWeights {
	return UtilityWeights{
		Correct:  1.0,
		Opponent: -1.0,
		Neutral:  -0.3,
		Assassin: -10.0,
	}
}

// ScoreOutcome sums the per-reveal utility of a turn for the acting
// team. No win/loss bonus: terminal value is left to the weights.
func ScoreOutcome(outcome TurnOutcome, team Team, w UtilityWeights) float64 {
	teamCard := team.CardType()
	opponentCard := team.Opponent().CardType()

	total := 0.0
	for _, g := range outcome.Applied {
		switch g.CardType {
		case teamCard:
			total += w.Correct
		case opponentCard:
			total += w.Opponent
		case CardNeutral:
			total += w.Neutral
		case CardAssassin:
			total += w.Assassin
		}
	}
	return total
}
