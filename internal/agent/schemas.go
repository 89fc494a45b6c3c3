package agent

// Structured-output schemas for the Responses API. The spymaster
// schemas are static; the guesser schema must be rebuilt per call
// because its word enum tracks the unrevealed board.

const (
	schemaNameSpymasterClue = "spymaster_clue"
	schemaNameSpymasterList = "spymaster_candidates"
	schemaNameGuesserOutput = "guesser_output"
)

// spymasterSingleSchema describes one clue proposal.
func spymasterSingleSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"clue": map[string]any{
				"type":        "string",
				"description": "A single-word clue (no spaces).",
			},
			"number": map[string]any{
				"type":        "integer",
				"description": "How many words the clue is intended to connect (1-9).",
			},
			"intended_targets": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Which board words you intended the team to guess (for analysis only).",
			},
			"danger_words": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Board words you fear the guesser might confuse with the clue.",
			},
		},
		"required":             []string{"clue", "number", "intended_targets", "danger_words"},
		"additionalProperties": false,
	}
}

// spymasterListSchema wraps the single schema in a candidates array
// bounded by maxCandidates.
func spymasterListSchema(maxCandidates int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"candidates": map[string]any{
				"type":        "array",
				"items":       spymasterSingleSchema(),
				"minItems":    1,
				"maxItems":    maxCandidates,
				"description": "List of candidate clues. Prefer unique clues.",
			},
		},
		"required":             []string{"candidates"},
		"additionalProperties": false,
	}
}

// guesserSchema constrains each guess word to the currently unrevealed
// board words and caps the list at maxGuesses.
func guesserSchema(unrevealedWords []string, maxGuesses int) map[string]any {
	// Stable enum order (board order) keeps schema bytes identical
	// across calls on the same state, which matters for cache keys.
	seen := make(map[string]bool, len(unrevealedWords))
	enum := make([]string, 0, len(unrevealedWords))
	for _, w := range unrevealedWords {
		if seen[w] {
			continue
		}
		seen[w] = true
		enum = append(enum, w)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"guesses": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"word": map[string]any{
							"type":        "string",
							"enum":        enum,
							"description": "One of the unrevealed board words.",
						},
						"confidence": map[string]any{
							"type":        "number",
							"description": "Your confidence in this guess (0.0 to 1.0).",
						},
					},
					"required":             []string{"word", "confidence"},
					"additionalProperties": false,
				},
				"maxItems":    maxGuesses,
				"description": "Ordered list of guesses you would attempt this turn. Return fewer to stop early.",
			},
			"stop_reason": map[string]any{
				"type":        "string",
				"description": "Explanation for why you stopped early (analysis only).",
			},
		},
		"required":             []string{"guesses", "stop_reason"},
		"additionalProperties": false,
	}
}
