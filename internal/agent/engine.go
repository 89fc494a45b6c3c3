// Package agent implements the per-team turn engine: spymaster
// candidate generation, the legality gate, rollout evaluation, and the
// real guess, in the pipeline
//
//	GEN → LEGAL → [FALLBACK] → EVAL → PICK → PLAY → APPLY
//
// One TeamAgent plays one side of a game against a shared LLM client.
package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/freeeve/codenames-bench/internal/config"
	"github.com/freeeve/codenames-bench/internal/llm"
	"github.com/freeeve/codenames-bench/internal/logger"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

// CandidateEvalSample is one guesser rollout against a state copy.
type CandidateEvalSample struct {
	Guesses     []string              `json:"guesses"`
	Confidences []float64             `json:"confidences"`
	Outcome     codenames.TurnOutcome `json:"outcome"`
	Utility     float64               `json:"utility"`
}

// CandidateEvaluation aggregates one candidate's rollout samples into
// the statistics PICK ranks on.
type CandidateEvaluation struct {
	Candidate codenames.Clue        `json:"candidate"`
	Samples   []CandidateEvalSample `json:"samples"`
	codenames.EvalStats
}

// ChosenSummary condenses the winning candidate for the turn log.
type ChosenSummary struct {
	Clue   string `json:"clue"`
	Number int    `json:"number"`
	codenames.EvalStats
}

// TurnLog records one team-turn end to end: what was generated, what
// was rejected and why, how each candidate evaluated, and what
// actually happened on the live board.
type TurnLog struct {
	Team                 codenames.Team                `json:"team"`
	GeneratedCandidates  int                           `json:"generated_candidates"`
	LegalCandidates      int                           `json:"legal_candidates"`
	RejectedCandidates   []codenames.RejectedCandidate `json:"rejected_candidates"`
	CandidateEvaluations []CandidateEvaluation         `json:"candidate_evaluations"`
	Chosen               ChosenSummary                 `json:"chosen"`
	ActualGuesses        []string                      `json:"actual_guesses"`
	ActualOutcome        codenames.TurnOutcome         `json:"actual_outcome"`
}

// TeamAgent plays one side: it owns that side's config and drives the
// turn pipeline against a shared LLM client.
type TeamAgent struct {
	cfg         *config.AgentConfig
	client      llm.Caller
	weights     codenames.UtilityWeights
	spyPrompt   spymasterPrompt
	guessPrompt guesserPrompt
}

// NewTeamAgent wires an agent config to the client. Unknown prompt ids
// fail here, before any game starts. A nil weights pointer selects the
// benchmark defaults.
func NewTeamAgent(cfg *config.AgentConfig, client llm.Caller, weights *codenames.UtilityWeights) (*TeamAgent, error) {
	spy, ok := spymasterPrompts[cfg.Spymaster.PromptID]
	if !ok {
		return nil, &config.ConfigError{Detail: fmt.Sprintf("unknown spymaster prompt_id %q", cfg.Spymaster.PromptID)}
	}
	guess, ok := guesserPrompts[cfg.Guesser.PromptID]
	if !ok {
		return nil, &config.ConfigError{Detail: fmt.Sprintf("unknown guesser prompt_id %q", cfg.Guesser.PromptID)}
	}
	w := codenames.DefaultUtilityWeights()
	if weights != nil {
		w = *weights
	}
	return &TeamAgent{
		cfg:         cfg,
		client:      client,
		weights:     w,
		spyPrompt:   spy,
		guessPrompt: guess,
	}, nil
}

// Name returns the configured agent name.
func (a *TeamAgent) Name() string {
	return a.cfg.Name
}

// TakeTurn runs the full pipeline for one team-turn, mutating the live
// state at APPLY. Spymaster failures degrade to rejection entries; a
// guesser failure during EVAL or PLAY aborts the turn, and the caller
// ends the game with it.
func (a *TeamAgent) TakeTurn(ctx context.Context, gs *codenames.GameState, team codenames.Team) (*TurnLog, error) {
	log := logger.ForRun(ctx)

	// GEN
	cands, rejected := a.generateCandidates(ctx, gs, team)

	// LEGAL: clue rules first, then the number-range pass, so a bad
	// word wins over a bad number in the rejection reason.
	legalWords, rejectedWords := codenames.FilterLegal(cands, gs.Board.Words)
	clues, rejectedNumbers := codenames.FilterNumbers(legalWords, gs.RemainingForTeam(team))
	rejected = append(rejected, rejectedWords...)
	rejected = append(rejected, rejectedNumbers...)

	// FALLBACK
	if len(clues) == 0 {
		fb := a.fallbackCandidate(ctx, gs, team)
		clues = []codenames.Clue{fb}
		rejected = append(rejected, codenames.RejectedCandidate{
			Candidate: codenames.Candidate{Word: fb.Word, Number: fb.Number, Raw: fb.Raw},
			Reason:    reasonFallbackUsed,
		})
		log.Warn().
			Str("team", string(team)).
			Str("clue", fb.Word).
			Msg("no legal candidates, fallback used")
	}

	// EVAL
	evalClues := clues
	if limit := a.cfg.Selection.MaxEvalCandidates; limit > 0 && len(evalClues) > limit {
		evalClues = evalClues[:limit]
	}
	evals, err := a.evaluateCandidates(ctx, gs, team, evalClues)
	if err != nil {
		return nil, err
	}

	// PICK: argmax(selection_score, mean, -std); earlier index on full tie.
	best := 0
	for i := 1; i < len(evals); i++ {
		if evals[i].EvalStats.Better(evals[best].EvalStats) {
			best = i
		}
	}
	chosen := evals[best].Candidate

	// PLAY
	guesses, _, err := a.callGuesser(ctx, gs, chosen.Word, chosen.Number, a.cfg.Guesser.Temperature, a.cfg.Guesser.TopP)
	if err != nil {
		return nil, err
	}

	// APPLY
	outcome := codenames.ApplyTurn(gs, team, chosen.Word, chosen.Number, guesses)

	log.Info().
		Str("team", string(team)).
		Str("clue", chosen.Word).
		Int("number", chosen.Number).
		Strs("guesses", guesses).
		Str("stopped", string(outcome.StoppedReason)).
		Bool("gameOver", outcome.GameOver).
		Msg("Turn applied")

	return &TurnLog{
		Team:                 team,
		GeneratedCandidates:  len(cands),
		LegalCandidates:      len(clues),
		RejectedCandidates:   rejected,
		CandidateEvaluations: evals,
		Chosen: ChosenSummary{
			Clue:      chosen.Word,
			Number:    chosen.Number,
			EvalStats: evals[best].EvalStats,
		},
		ActualGuesses: guesses,
		ActualOutcome: outcome,
	}, nil
}

// evaluateCandidates runs G guesser rollouts per candidate against
// independent state copies, all concurrently; the client's in-flight
// bound is the throttle. Rollouts read the live state but only mutate
// their own copies. Any rollout error aborts the whole batch.
func (a *TeamAgent) evaluateCandidates(ctx context.Context, gs *codenames.GameState, team codenames.Team, clues []codenames.Clue) ([]CandidateEvaluation, error) {
	samplesPer := a.cfg.Selection.EvalSamplesPerCandidate
	if samplesPer < 1 {
		samplesPer = 1
	}

	samples := make([][]CandidateEvalSample, len(clues))
	for i := range samples {
		samples[i] = make([]CandidateEvalSample, samplesPer)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, cand := range clues {
		for s := 0; s < samplesPer; s++ {
			i, cand, s := i, cand, s
			g.Go(func() error {
				guesses, confidences, err := a.callGuesser(gctx, gs, cand.Word, cand.Number, a.cfg.Selection.EvalTemperature, a.cfg.Selection.EvalTopP)
				if err != nil {
					return fmt.Errorf("eval rollout for %q: %w", cand.Word, err)
				}
				sim := gs.Copy()
				outcome := codenames.ApplyTurn(sim, team, cand.Word, cand.Number, guesses)
				samples[i][s] = CandidateEvalSample{
					Guesses:     guesses,
					Confidences: confidences,
					Outcome:     outcome,
					Utility:     codenames.ScoreOutcome(outcome, team, a.weights),
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mode := codenames.AggregateMode(a.cfg.Selection.Aggregate)
	evals := make([]CandidateEvaluation, len(clues))
	for i, cand := range clues {
		utilities := make([]float64, len(samples[i]))
		for s, smp := range samples[i] {
			utilities[s] = smp.Utility
		}
		evals[i] = CandidateEvaluation{
			Candidate: cand,
			Samples:   samples[i],
			EvalStats: codenames.StatsFor(utilities, mode, a.cfg.Selection.LambdaStd),
		}
	}
	return evals, nil
}
