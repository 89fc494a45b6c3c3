package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/freeeve/codenames-bench/internal/llm"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

// callGuesser issues one structured guesser call against the current
// state and returns sanitized guesses plus the parsed confidences.
// The same function serves EVAL rollouts (sampling temperature) and
// the real PLAY call (usually temperature 0 so the cache can hit).
func (a *TeamAgent) callGuesser(ctx context.Context, gs *codenames.GameState, clue string, number int, temperature, topP float64) ([]string, []float64, error) {
	unrevealed := gs.UnrevealedWords()
	maxAllowed := min(number+1, len(unrevealed))
	maxSchemaGuesses := min(maxAllowed, 10)

	res, err := a.client.CreateJSON(ctx, llm.Request{
		Model:           a.cfg.Guesser.Model,
		Input:           guesserMessages(a.guessPrompt, gs, clue, number, maxAllowed),
		Temperature:     temperature,
		TopP:            topP,
		MaxOutputTokens: a.cfg.Guesser.MaxOutputTokens,
		Mode:            a.cfg.Guesser.OutputMode,
		SchemaName:      schemaNameGuesserOutput,
		Schema:          guesserSchema(unrevealed, maxSchemaGuesses),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("guesser call: %w", err)
	}
	guesses, confidences := parseGuesserOutput(res.Parsed)
	return sanitizeGuesses(guesses, maxAllowed), confidences, nil
}

// parseGuesserOutput pulls ordered (word, confidence) pairs from the
// parsed response. Words are trimmed and uppercased; confidences are
// clamped to [0,1] and default to 0.5. Anything malformed is skipped.
func parseGuesserOutput(parsed any) ([]string, []float64) {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, nil
	}
	items, ok := obj["guesses"].([]any)
	if !ok {
		return nil, nil
	}
	var guesses []string
	var confidences []float64
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		w := strings.ToUpper(strings.TrimSpace(stringValue(m["word"])))
		if w == "" {
			continue
		}
		guesses = append(guesses, w)
		confidences = append(confidences, clampConfidence(m["confidence"]))
	}
	return guesses, confidences
}

func clampConfidence(v any) float64 {
	c := 0.5
	switch n := v.(type) {
	case float64:
		c = n
	case int:
		c = float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			c = f
		}
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// sanitizeGuesses de-duplicates in order and truncates to maxAllowed.
func sanitizeGuesses(guesses []string, maxAllowed int) []string {
	out := make([]string, 0, len(guesses))
	seen := make(map[string]bool, len(guesses))
	for _, g := range guesses {
		g = strings.ToUpper(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
		if len(out) >= maxAllowed {
			break
		}
	}
	return out
}
