package agent

import (
	"fmt"
	"strings"

	"github.com/freeeve/codenames-bench/internal/llm"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

// Prompt builders are versioned and looked up by the prompt_id in the
// agent config, so sweeps can compare prompt variants without code
// changes. The spymaster sees the full key; the guesser never does.

type spymasterPrompt func(v spymasterView) (system, user string)

type guesserPrompt func(v guesserView) (system, user string)

var spymasterPrompts = map[string]spymasterPrompt{
	"spymaster_v1": spymasterV1,
	"spymaster_v2": spymasterV2,
}

var guesserPrompts = map[string]guesserPrompt{
	"guesser_v1": guesserV1,
	"guesser_v2": guesserV2,
}

// spymasterView is the key-holder's view of the board: every
// unrevealed word partitioned by owner, plus what is already out.
type spymasterView struct {
	Team          codenames.Team
	UnrevealedAll string
	YourWords     string
	OpponentWords string
	NeutralWords  string
	AssassinWords string
	Revealed      string
	RemainingYour int
	RemainingOpp  int
}

func newSpymasterView(gs *codenames.GameState, team codenames.Team) spymasterView {
	var yours, opp, neut, assassin, already []string
	for i, w := range gs.Board.Words {
		if gs.Revealed[i] {
			already = append(already, fmt.Sprintf("%s(%s)", w, gs.Board.Key[i]))
			continue
		}
		switch gs.Board.Key[i] {
		case team.CardType():
			yours = append(yours, w)
		case codenames.CardNeutral:
			neut = append(neut, w)
		case codenames.CardAssassin:
			assassin = append(assassin, w)
		default:
			opp = append(opp, w)
		}
	}
	return spymasterView{
		Team:          team,
		UnrevealedAll: joinWords(gs.UnrevealedWords()),
		YourWords:     joinWords(yours),
		OpponentWords: joinWords(opp),
		NeutralWords:  joinWords(neut),
		AssassinWords: joinWords(assassin),
		Revealed:      joinWords(already),
		RemainingYour: len(yours),
		RemainingOpp:  len(opp),
	}
}

// guesserView hides the key: unrevealed and revealed words only, plus
// the clue under consideration.
type guesserView struct {
	Unrevealed string
	Revealed   string
	Clue       string
	Number     int
	MaxAllowed int
}

func newGuesserView(gs *codenames.GameState, clue string, number, maxAllowed int) guesserView {
	return guesserView{
		Unrevealed: joinWords(gs.UnrevealedWords()),
		Revealed:   joinWords(gs.RevealedWords()),
		Clue:       clue,
		Number:     number,
		MaxAllowed: maxAllowed,
	}
}

func joinWords(words []string) string {
	if len(words) == 0 {
		return "(none)"
	}
	return strings.Join(words, ", ")
}

func spymasterMessages(build spymasterPrompt, gs *codenames.GameState, team codenames.Team) []llm.Message {
	system, user := build(newSpymasterView(gs, team))
	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

func guesserMessages(build guesserPrompt, gs *codenames.GameState, clue string, number, maxAllowed int) []llm.Message {
	system, user := build(newGuesserView(gs, clue, number, maxAllowed))
	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

const spymasterV1System = `You are an expert CODENAMES SPYMASTER.
You know which unrevealed board words belong to your team, the opponent, neutrals, and the assassin.
Your job: output a SINGLE-WORD clue and a number.

Rules / constraints:
- Clue must be ONE word (no spaces).
- Do NOT use any board word as the clue.
- Avoid clues that could point to the assassin or opponent words.
- Prefer clues that link 2-3 of your words safely; be conservative if risk is high.

Return ONLY the JSON required by the schema.`

func spymasterV1(v spymasterView) (string, string) {
	user := fmt.Sprintf(`TEAM: %s
Unrevealed words: %s

Your unrevealed words (%d): %s
Opponent unrevealed words (%d): %s
Neutral unrevealed words: %s
ASSASSIN unrevealed words: %s

Already revealed: %s

Pick the best safe clue and number for this turn.`,
		v.Team, v.UnrevealedAll,
		v.RemainingYour, v.YourWords,
		v.RemainingOpp, v.OpponentWords,
		v.NeutralWords, v.AssassinWords, v.Revealed)
	return spymasterV1System, user
}

const spymasterV2System = `You are CODENAMES SPYMASTER (high precision).
You must output a single-word clue and an integer number.

Goal: maximize correct guesses this turn while minimizing risk.
Hard rules:
- One word clue (letters only; no spaces, no hyphens if avoidable).
- Never output a board word as the clue.
- Never intentionally bait the assassin.
- Number should usually be <= 4 unless the board is extremely safe.

Return ONLY JSON per the schema. No extra text.`

func spymasterV2(v spymasterView) (string, string) {
	user := fmt.Sprintf(`TEAM: %s
YOUR WORDS: %s
OPPONENT WORDS: %s
NEUTRALS: %s
ASSASSIN: %s
ALREADY REVEALED: %s

Choose a clue that best connects a subset of YOUR WORDS while being far from the assassin and opponent words.`,
		v.Team, v.YourWords, v.OpponentWords,
		v.NeutralWords, v.AssassinWords, v.Revealed)
	return spymasterV2System, user
}

const guesserV1System = `You are a CODENAMES GUESSER.
You only see the board words and the spymaster's clue + number.
You must propose an ordered list of guesses (0 to MAX_ALLOWED guesses).

Guidelines:
- Guess only from the unrevealed board words.
- You may return fewer than MAX_ALLOWED guesses to stop early.
- Be cautious: if uncertain, stop rather than guessing randomly.

Return ONLY JSON that matches the provided schema.`

func guesserV1(v guesserView) (string, string) {
	user := fmt.Sprintf(`UNREVEALED WORDS: %s
REVEALED WORDS: %s

CLUE: %s
NUMBER: %d
MAX_ALLOWED_GUESSES_THIS_TURN: %d

Provide the ordered list of guesses you would attempt now.`,
		v.Unrevealed, v.Revealed, v.Clue, v.Number, v.MaxAllowed)
	return guesserV1System, user
}

const guesserV2System = `You are a CODENAMES GUESSER (conservative stop policy).
Return an ordered list of guesses you would attempt now.

Rules:
- Only choose from the unrevealed words.
- Stop early unless you are confident.
- Prefer 1-2 high-confidence guesses over using the full limit.

Return ONLY JSON per schema.`

func guesserV2(v guesserView) (string, string) {
	user := fmt.Sprintf(`UNREVEALED: %s
CLUE: %s  NUMBER: %d  MAX_ALLOWED: %d
Output guesses now.`,
		v.Unrevealed, v.Clue, v.Number, v.MaxAllowed)
	return guesserV2System, user
}
