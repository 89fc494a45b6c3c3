// Package runner plays full benchmark games and streams one JSON
// record per game. It owns the board/turn loop around the agent turn
// engine and the match expansion (boards x replicates x mirror).
package runner

import (
	"context"
	"time"

	"github.com/freeeve/codenames-bench/internal/agent"
	"github.com/freeeve/codenames-bench/internal/config"
	"github.com/freeeve/codenames-bench/internal/llm"
	"github.com/freeeve/codenames-bench/internal/logger"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

// End reasons recorded on a game record.
const (
	EndAssassin        = "assassin"
	EndCompletedAgents = "completed_agents"
	EndMaxTurns        = "max_turns"
	EndError           = "error"
)

// DefaultMaxTurns caps a game that never terminates on its own. A
// clean game finishes well under 20 turns.
const DefaultMaxTurns = 40

// GameRecord is the persisted outcome of one played game: board
// metadata, every turn log, and how the game ended.
type GameRecord struct {
	RunID        string           `json:"run_id"`
	MatchID      string           `json:"match_id,omitempty"`
	RedAgent     string           `json:"red_agent"`
	BlueAgent    string           `json:"blue_agent"`
	Mirror       bool             `json:"mirror"`
	BoardID      string           `json:"board_id"`
	Seed         int64            `json:"seed"`
	StartingTeam codenames.Team   `json:"starting_team"`
	Turns        []*agent.TurnLog `json:"turns"`
	Winner       codenames.Team   `json:"winner,omitempty"`
	Loser        codenames.Team   `json:"loser,omitempty"`
	EndReason    string           `json:"end_reason"`
	Error        string           `json:"error,omitempty"`
	DurationMs   int64            `json:"duration_ms"`
}

// PlayGame plays one full game on the board, alternating teams from
// the starting team. Turn errors (a dead guesser, a refusal) end the
// game with EndReason "error" and are captured on the record, never
// returned: no error crosses a game boundary. The returned error is
// reserved for setup problems (bad agent config), which are fatal
// before play.
func PlayGame(ctx context.Context, board *codenames.Board, redCfg, blueCfg *config.AgentConfig, client llm.Caller, maxTurns int) (*GameRecord, error) {
	red, err := agent.NewTeamAgent(redCfg, client, nil)
	if err != nil {
		return nil, err
	}
	blue, err := agent.NewTeamAgent(blueCfg, client, nil)
	if err != nil {
		return nil, err
	}
	agents := map[codenames.Team]*agent.TeamAgent{
		codenames.Red:  red,
		codenames.Blue: blue,
	}

	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	log := logger.ForRun(ctx)
	start := time.Now()
	gs := codenames.NewGameState(board)
	rec := &GameRecord{
		RedAgent:     redCfg.Name,
		BlueAgent:    blueCfg.Name,
		BoardID:      board.ID,
		Seed:         board.Seed,
		StartingTeam: board.StartingTeam,
		Turns:        []*agent.TurnLog{},
	}

	team := board.StartingTeam
	for turn := 0; turn < maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			rec.EndReason = EndError
			rec.Error = err.Error()
			break
		}

		tl, err := agents[team].TakeTurn(ctx, gs, team)
		if err != nil {
			rec.EndReason = EndError
			rec.Error = err.Error()
			log.Error().Err(err).
				Str("boardId", board.ID).
				Str("team", string(team)).
				Int("turn", turn+1).
				Msg("Turn failed, ending game")
			break
		}
		rec.Turns = append(rec.Turns, tl)

		if tl.ActualOutcome.GameOver {
			rec.Winner = tl.ActualOutcome.Winner
			rec.Loser = tl.ActualOutcome.Loser
			if tl.ActualOutcome.StoppedReason == codenames.StopAssassin {
				rec.EndReason = EndAssassin
			} else {
				rec.EndReason = EndCompletedAgents
			}
			break
		}

		team = team.Opponent()
		gs.CurrentTeam = team
	}

	if rec.EndReason == "" {
		rec.EndReason = EndMaxTurns
	}
	rec.DurationMs = time.Since(start).Milliseconds()

	log.Info().
		Str("boardId", board.ID).
		Str("winner", string(rec.Winner)).
		Str("endReason", rec.EndReason).
		Int("turns", len(rec.Turns)).
		Int64("durationMs", rec.DurationMs).
		Msg("Game finished")
	return rec, nil
}
