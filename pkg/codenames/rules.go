package codenames

import "strings"

// MaxAllowedGuesses is the guess cap for a clue number: the named
// targets plus one bonus guess.
func MaxAllowedGuesses(number int) int {
	return max(0, number+1)
}

// ApplyTurn replays guesses in order against the state, mutating the
// reveal bitmap in place. Callers needing isolation pass a Copy.
// Every rule failure becomes a stop reason on the outcome, never an
// error: given the same inputs the result is fully deterministic.
//
// An empty guess list stops with StopNatural and no reveals.
func ApplyTurn(gs *GameState, team Team, clue string, number int, guesses []string) TurnOutcome {
	maxAllowed := MaxAllowedGuesses(number)

	outcome := TurnOutcome{
		Team:          team,
		Clue:          clue,
		Number:        number,
		MaxAllowed:    maxAllowed,
		Guesses:       guesses,
		Applied:       []AppliedGuess{},
		StoppedReason: StopNatural,
	}

	seen := make(map[string]bool, len(guesses))
	teamCard := team.CardType()
	opponent := team.Opponent()

	for i, raw := range guesses {
		if i >= maxAllowed {
			outcome.StoppedReason = StopLimit
			break
		}

		token := strings.ToUpper(strings.TrimSpace(raw))
		idx := gs.Board.IndexOf(token)
		if token == "" || seen[token] || idx < 0 || gs.Revealed[idx] {
			outcome.StoppedReason = StopInvalidRepeat
			break
		}
		seen[token] = true

		gs.Revealed[idx] = true
		card := gs.Board.Key[idx]
		outcome.Applied = append(outcome.Applied, AppliedGuess{Word: token, Index: idx, CardType: card})

		if card == CardAssassin {
			outcome.StoppedReason = StopAssassin
			outcome.GameOver = true
			outcome.Winner = opponent
			outcome.Loser = team
			break
		}

		if card != teamCard {
			outcome.StoppedReason = StopWrong
			// An accidental reveal can finish the opponent's set for them.
			if gs.RemainingForTeam(opponent) == 0 {
				outcome.GameOver = true
				outcome.Winner = opponent
				outcome.Loser = team
			}
			break
		}

		if gs.RemainingForTeam(team) == 0 {
			outcome.StoppedReason = StopNatural
			outcome.GameOver = true
			outcome.Winner = team
			outcome.Loser = opponent
			break
		}
	}

	return outcome
}
