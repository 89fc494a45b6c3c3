package codenames

import "testing"

func TestGameState_New(t *testing.T) {
	b := testBoard(t)
	gs := NewGameState(b)

	if gs.CurrentTeam != b.StartingTeam {
		t.Errorf("current team = %s, want %s", gs.CurrentTeam, b.StartingTeam)
	}
	for i, revealed := range gs.Revealed {
		if revealed {
			t.Fatalf("card %d revealed on a fresh state", i)
		}
	}
	if got := gs.RemainingForTeam(Red); got != 9 {
		t.Errorf("red remaining = %d, want 9", got)
	}
	if got := gs.RemainingForTeam(Blue); got != 8 {
		t.Errorf("blue remaining = %d, want 8", got)
	}
}

func TestGameState_Copy_Independent(t *testing.T) {
	gs := NewGameState(testBoard(t))
	gs.Revealed[3] = true

	c := gs.Copy()

	if c.CurrentTeam != gs.CurrentTeam {
		t.Error("copied team does not match original")
	}
	if !c.Revealed[3] {
		t.Error("copy should carry existing reveals")
	}

	// Mutate original — copy must be unaffected
	gs.Revealed[10] = true
	if c.Revealed[10] {
		t.Error("copy reveals should be independent of original")
	}

	// Mutate copy — original must be unaffected
	c.Revealed[11] = true
	c.CurrentTeam = Blue
	if gs.Revealed[11] {
		t.Error("original reveals should be independent of copy")
	}
	if gs.CurrentTeam != Red {
		t.Error("original team should be independent of copy")
	}

	// Board is shared, not copied
	if c.Board != gs.Board {
		t.Error("copy should share the immutable board")
	}
}

func TestGameState_DerivedViews(t *testing.T) {
	gs := NewGameState(testBoard(t))
	gs.Revealed[0] = true  // RIVER, red
	gs.Revealed[9] = true  // HOUSE, blue
	gs.Revealed[24] = true // VENOM, assassin

	remaining := gs.RemainingByType()
	if remaining[CardRed] != 8 || remaining[CardBlue] != 7 || remaining[CardNeutral] != 7 || remaining[CardAssassin] != 0 {
		t.Errorf("remaining by type = %v", remaining)
	}

	unrevealed := gs.UnrevealedWords()
	if len(unrevealed) != 22 {
		t.Fatalf("unrevealed count = %d, want 22", len(unrevealed))
	}
	// Board order preserved: STONE (index 1) comes first once RIVER is gone.
	if unrevealed[0] != "STONE" {
		t.Errorf("unrevealed[0] = %s, want STONE", unrevealed[0])
	}
	for _, w := range unrevealed {
		if w == "RIVER" || w == "HOUSE" || w == "VENOM" {
			t.Errorf("revealed word %s still listed as unrevealed", w)
		}
	}

	revealed := gs.RevealedWords()
	if len(revealed) != 3 || revealed[0] != "RIVER" || revealed[1] != "HOUSE" || revealed[2] != "VENOM" {
		t.Errorf("revealed words = %v", revealed)
	}
}

func TestTeam_Opponent(t *testing.T) {
	if Red.Opponent() != Blue || Blue.Opponent() != Red {
		t.Error("opponent should swap teams")
	}
}

func TestTeam_CardType(t *testing.T) {
	if Red.CardType() != CardRed || Blue.CardType() != CardBlue {
		t.Error("team card types should match colours")
	}
}
