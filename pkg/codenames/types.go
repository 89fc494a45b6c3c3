// Package codenames implements the deterministic core of the game:
// boards, reveal state, turn application, clue legality, and the
// utility/aggregation math used to score simulated turns.
package codenames

import "encoding/json"

// Team represents one of the two playing teams.
type Team string

const (
	Red  Team = "RED"
	Blue Team = "BLUE"
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == Red {
		return Blue
	}
	return Red
}

// CardType returns the card colour belonging to the team.
func (t Team) CardType() CardType {
	if t == Red {
		return CardRed
	}
	return CardBlue
}

// Valid reports whether t is one of the two teams.
func (t Team) Valid() bool {
	return t == Red || t == Blue
}

// CardType represents the hidden identity of a board card.
type CardType string

const (
	CardRed      CardType = "RED"
	CardBlue     CardType = "BLUE"
	CardNeutral  CardType = "NEUTRAL"
	CardAssassin CardType = "ASSASSIN"
)

// StopReason explains why a turn stopped consuming guesses.
type StopReason string

const (
	// StopNatural: the guess list ran out without hitting another rule.
	// An empty guess list also stops here.
	StopNatural StopReason = "stop"
	// StopLimit: the number+1 guess cap was reached.
	StopLimit StopReason = "limit"
	// StopWrong: a non-team card was revealed.
	StopWrong StopReason = "wrong"
	// StopAssassin: the assassin was revealed; game over.
	StopAssassin StopReason = "assassin"
	// StopInvalidRepeat: an empty, duplicate, off-board, or
	// already-revealed guess.
	StopInvalidRepeat StopReason = "invalid_or_repeat"
)

// Candidate is a spymaster proposal as parsed from model output,
// before legality checks. Number stays untyped until the number-range
// pass normalises it; Raw preserves the model's JSON verbatim for the
// turn log; Error carries the failure text when a generation call died.
type Candidate struct {
	Word            string          `json:"clue,omitempty"`
	Number          any             `json:"number,omitempty"`
	IntendedTargets []string        `json:"intended_targets,omitempty"`
	DangerWords     []string        `json:"danger_words,omitempty"`
	Raw             json.RawMessage `json:"raw,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Clue is a candidate that passed every legality check. Its number is
// a valid integer for the acting team. IntendedTargets and DangerWords
// are analytic only and never affect play.
type Clue struct {
	Word            string          `json:"clue"`
	Number          int             `json:"number"`
	IntendedTargets []string        `json:"intended_targets,omitempty"`
	DangerWords     []string        `json:"danger_words,omitempty"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// AppliedGuess records one successful reveal within a turn.
type AppliedGuess struct {
	Word     string   `json:"word"`
	Index    int      `json:"index"`
	CardType CardType `json:"card_type"`
}

// TurnOutcome is the full result of applying one team-turn.
type TurnOutcome struct {
	Team          Team           `json:"team"`
	Clue          string         `json:"clue"`
	Number        int            `json:"number"`
	MaxAllowed    int            `json:"max_allowed"`
	Guesses       []string       `json:"guesses"`
	Applied       []AppliedGuess `json:"applied"`
	StoppedReason StopReason     `json:"stopped_reason"`
	GameOver      bool           `json:"game_over"`
	Winner        Team           `json:"winner,omitempty"`
	Loser         Team           `json:"loser,omitempty"`
}

// RejectedCandidate pairs a discarded candidate with the reason it
// was discarded.
type RejectedCandidate struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
}
