package codenames

import (
	"fmt"
	"math/rand"
	"strings"
)

// BoardSize is the number of cards on a board.
const BoardSize = 25

// Card counts by role. The starting team always has one extra card.
const (
	startingTeamCards = 9
	secondTeamCards   = 8
	neutralCards      = 7
	assassinCards     = 1
)

// Board is an immutable 25-card layout. Words and Key are parallel:
// Key[i] is the hidden identity of Words[i].
type Board struct {
	ID           string     `json:"board_id"`
	Words        []string   `json:"words"`
	Key          []CardType `json:"key"`
	StartingTeam Team       `json:"starting_team"`
	Seed         int64      `json:"seed"`
}

// IndexOf returns the position of word on the board, or -1.
// The word must already be normalised (uppercase, trimmed).
func (b *Board) IndexOf(word string) int {
	for i, w := range b.Words {
		if w == word {
			return i
		}
	}
	return -1
}

// Validate checks the board invariants: 25 unique single-token words,
// a parallel key, and the 9/8/7/1 colour distribution for the
// starting team.
func (b *Board) Validate() error {
	if len(b.Words) != BoardSize {
		return fmt.Errorf("board %s: expected %d words, got %d", b.ID, BoardSize, len(b.Words))
	}
	if len(b.Key) != BoardSize {
		return fmt.Errorf("board %s: expected %d key entries, got %d", b.ID, BoardSize, len(b.Key))
	}
	if !b.StartingTeam.Valid() {
		return fmt.Errorf("board %s: invalid starting team %q", b.ID, b.StartingTeam)
	}

	seen := make(map[string]bool, BoardSize)
	for i, w := range b.Words {
		if w == "" || w != strings.ToUpper(strings.TrimSpace(w)) || strings.ContainsAny(w, " \t") {
			return fmt.Errorf("board %s: word %d (%q) is not an uppercase single token", b.ID, i, w)
		}
		if seen[w] {
			return fmt.Errorf("board %s: duplicate word %q", b.ID, w)
		}
		seen[w] = true
	}

	counts := make(map[CardType]int, 4)
	for i, ct := range b.Key {
		switch ct {
		case CardRed, CardBlue, CardNeutral, CardAssassin:
			counts[ct]++
		default:
			return fmt.Errorf("board %s: invalid card type %q at %d", b.ID, ct, i)
		}
	}

	starting := b.StartingTeam.CardType()
	second := b.StartingTeam.Opponent().CardType()
	if counts[starting] != startingTeamCards || counts[second] != secondTeamCards ||
		counts[CardNeutral] != neutralCards || counts[CardAssassin] != assassinCards {
		return fmt.Errorf("board %s: bad key distribution %v (starting team %s)", b.ID, counts, b.StartingTeam)
	}
	return nil
}

// GenerateBoard builds a random board from the word pool, seeded for
// reproducibility. The pool must hold at least BoardSize words; use
// LoadWordlist to produce one.
func GenerateBoard(pool []string, id string, seed int64) (*Board, error) {
	if len(pool) < BoardSize {
		return nil, fmt.Errorf("board %s: pool has %d words, need %d", id, len(pool), BoardSize)
	}

	rng := rand.New(rand.NewSource(seed))

	words := make([]string, BoardSize)
	for i, j := range rng.Perm(len(pool))[:BoardSize] {
		words[i] = pool[j]
	}

	starting := Red
	if rng.Intn(2) == 1 {
		starting = Blue
	}

	key := make([]CardType, 0, BoardSize)
	for i := 0; i < startingTeamCards; i++ {
		key = append(key, starting.CardType())
	}
	for i := 0; i < secondTeamCards; i++ {
		key = append(key, starting.Opponent().CardType())
	}
	for i := 0; i < neutralCards; i++ {
		key = append(key, CardNeutral)
	}
	key = append(key, CardAssassin)
	rng.Shuffle(len(key), func(i, j int) { key[i], key[j] = key[j], key[i] })

	b := &Board{
		ID:           id,
		Words:        words,
		Key:          key,
		StartingTeam: starting,
		Seed:         seed,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
