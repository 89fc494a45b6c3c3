package codenames

// GameState tracks reveal progress on a board. The board itself is
// shared and never mutated; only the reveal bitmap and the team to
// move change, and only through ApplyTurn.
type GameState struct {
	Board       *Board
	Revealed    []bool
	CurrentTeam Team
}

// NewGameState starts a fresh game on the board: nothing revealed,
// starting team to move.
func NewGameState(b *Board) *GameState {
	return &GameState{
		Board:       b,
		Revealed:    make([]bool, BoardSize),
		CurrentTeam: b.StartingTeam,
	}
}

// Copy returns an independent snapshot sharing the immutable board.
// Rollouts mutate copies so the live state stays untouched.
func (gs *GameState) Copy() *GameState {
	revealed := make([]bool, len(gs.Revealed))
	copy(revealed, gs.Revealed)
	return &GameState{
		Board:       gs.Board,
		Revealed:    revealed,
		CurrentTeam: gs.CurrentTeam,
	}
}

// RemainingByType counts unrevealed cards per card type.
func (gs *GameState) RemainingByType() map[CardType]int {
	remaining := map[CardType]int{
		CardRed:      0,
		CardBlue:     0,
		CardNeutral:  0,
		CardAssassin: 0,
	}
	for i, revealed := range gs.Revealed {
		if !revealed {
			remaining[gs.Board.Key[i]]++
		}
	}
	return remaining
}

// RemainingForTeam returns how many of the team's cards are unrevealed.
func (gs *GameState) RemainingForTeam(t Team) int {
	count := 0
	card := t.CardType()
	for i, revealed := range gs.Revealed {
		if !revealed && gs.Board.Key[i] == card {
			count++
		}
	}
	return count
}

// UnrevealedWords lists the words still in play, preserving board order.
func (gs *GameState) UnrevealedWords() []string {
	var words []string
	for i, revealed := range gs.Revealed {
		if !revealed {
			words = append(words, gs.Board.Words[i])
		}
	}
	return words
}

// RevealedWords lists the words already exposed, preserving board order.
func (gs *GameState) RevealedWords() []string {
	var words []string
	for i, revealed := range gs.Revealed {
		if revealed {
			words = append(words, gs.Board.Words[i])
		}
	}
	return words
}
