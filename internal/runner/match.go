package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/freeeve/codenames-bench/internal/agent"
	"github.com/freeeve/codenames-bench/internal/config"
	"github.com/freeeve/codenames-bench/internal/llm"
	"github.com/freeeve/codenames-bench/internal/logger"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

// ResultStore receives each finished game record, typically for a
// Postgres row per game. NDJSON output is the primary sink either way.
type ResultStore interface {
	SaveGame(ctx context.Context, record *GameRecord) error
}

// RunConfig describes a full benchmark run: which boards, which two
// agents, and how results flow out.
type RunConfig struct {
	Boards []*codenames.Board
	AgentA *config.AgentConfig
	AgentB *config.AgentConfig
	Client llm.Caller

	// Replicates repeats every board; Mirror additionally replays each
	// run with the colour assignments swapped.
	Replicates int
	Mirror     bool
	MaxTurns   int
	// Workers bounds how many games play concurrently.
	Workers int

	// Out receives one JSON record per line, written as each game
	// finishes so a crashed run still leaves valid NDJSON. Optional.
	Out io.Writer
	// Store persists records beyond the NDJSON stream. Optional; store
	// failures are logged, not fatal.
	Store ResultStore
}

// gameSpec is one scheduled game within a run.
type gameSpec struct {
	runID  string
	board  *codenames.Board
	red    *config.AgentConfig
	blue   *config.AgentConfig
	mirror bool
}

// expand lays out every game in deterministic order: boards in file
// order, replicates in sequence, the mirrored game right after its
// original.
func expand(cfg RunConfig) []gameSpec {
	replicates := cfg.Replicates
	if replicates < 1 {
		replicates = 1
	}
	var specs []gameSpec
	for _, b := range cfg.Boards {
		for r := 1; r <= replicates; r++ {
			specs = append(specs, gameSpec{
				runID: fmt.Sprintf("%s::rep%d::Ared", b.ID, r),
				board: b,
				red:   cfg.AgentA,
				blue:  cfg.AgentB,
			})
			if cfg.Mirror {
				specs = append(specs, gameSpec{
					runID:  fmt.Sprintf("%s::rep%d::Ablue", b.ID, r),
					board:  b,
					red:    cfg.AgentB,
					blue:   cfg.AgentA,
					mirror: true,
				})
			}
		}
	}
	return specs
}

// Run plays every game in the match set under a bounded worker pool.
// Games are independent (each owns its own state), so they run in
// parallel; records land in spec order in the returned slice while the
// NDJSON stream is completion-ordered. Agent configs are validated up
// front so a bad config fails before any game starts.
func Run(ctx context.Context, cfg RunConfig) ([]*GameRecord, error) {
	if _, err := agent.NewTeamAgent(cfg.AgentA, cfg.Client, nil); err != nil {
		return nil, err
	}
	if _, err := agent.NewTeamAgent(cfg.AgentB, cfg.Client, nil); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	matchID := uuid.NewString()
	specs := expand(cfg)
	writer := &recordWriter{w: cfg.Out}

	log := logger.Get()
	log.Info().
		Str("matchId", matchID).
		Int("games", len(specs)).
		Int("workers", workers).
		Bool("mirror", cfg.Mirror).
		Msg("Match run starting")

	records := make([]*GameRecord, len(specs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, spec := range specs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, spec gameSpec) {
			defer wg.Done()
			defer func() { <-sem }()

			runCtx := logger.WithRunID(ctx, spec.runID)
			rec, err := PlayGame(runCtx, spec.board, spec.red, spec.blue, cfg.Client, cfg.MaxTurns)
			if err != nil {
				// Configs were validated up front, so this is a bug or
				// a cancelled context; record it and keep the run alive.
				rec = &GameRecord{
					RedAgent:     spec.red.Name,
					BlueAgent:    spec.blue.Name,
					BoardID:      spec.board.ID,
					Seed:         spec.board.Seed,
					StartingTeam: spec.board.StartingTeam,
					Turns:        []*agent.TurnLog{},
					EndReason:    EndError,
					Error:        err.Error(),
				}
			}
			rec.RunID = spec.runID
			rec.MatchID = matchID
			rec.Mirror = spec.mirror

			if err := writer.write(rec); err != nil {
				log := logger.ForRun(runCtx)
				log.Error().Err(err).Msg("Failed to write game record")
			}
			if cfg.Store != nil {
				if err := cfg.Store.SaveGame(runCtx, rec); err != nil {
					log := logger.ForRun(runCtx)
					log.Error().Err(err).Msg("Failed to persist game record")
				}
			}
			records[idx] = rec
		}(i, spec)
	}
	wg.Wait()

	log.Info().Str("matchId", matchID).Int("games", len(records)).Msg("Match run complete")
	return records, nil
}

// recordWriter serialises NDJSON writes from concurrent games. Each
// record goes out in a single Write call so lines never interleave.
type recordWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (rw *recordWriter) write(rec *GameRecord) error {
	if rw.w == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.RunID, err)
	}
	rw.mu.Lock()
	defer rw.mu.Unlock()
	_, err = rw.w.Write(append(data, '\n'))
	return err
}

// ReadRecords decodes game records from NDJSON, one per line, as
// written by Run or by a previous partial run.
func ReadRecords(r io.Reader) ([]*GameRecord, error) {
	var records []*GameRecord
	dec := json.NewDecoder(r)
	line := 0
	for dec.More() {
		line++
		var rec GameRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("results record %d: %w", line, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}
