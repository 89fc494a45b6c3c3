package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/freeeve/codenames-bench/internal/runner"
)

// ResultStore writes one row per played game, keyed by run_id so a
// re-run of the same match upserts instead of duplicating.
type ResultStore struct {
	db *sql.DB
}

// NewResultStore creates a ResultStore on an open pool.
func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

// SaveGame upserts the record. The full record lands in a JSONB column
// for ad-hoc queries; the indexed columns cover the common cuts
// (per agent, per board, per end reason).
func (s *ResultStore) SaveGame(ctx context.Context, rec *runner.GameRecord) error {
	record, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.RunID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_results (run_id, match_id, red_agent, blue_agent, mirror, board_id,
		                           starting_team, winner, loser, end_reason, turns, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (run_id) DO UPDATE SET
		   match_id = EXCLUDED.match_id,
		   red_agent = EXCLUDED.red_agent,
		   blue_agent = EXCLUDED.blue_agent,
		   mirror = EXCLUDED.mirror,
		   board_id = EXCLUDED.board_id,
		   starting_team = EXCLUDED.starting_team,
		   winner = EXCLUDED.winner,
		   loser = EXCLUDED.loser,
		   end_reason = EXCLUDED.end_reason,
		   turns = EXCLUDED.turns,
		   record = EXCLUDED.record,
		   saved_at = now()`,
		rec.RunID, rec.MatchID, rec.RedAgent, rec.BlueAgent, rec.Mirror, rec.BoardID,
		string(rec.StartingTeam), string(rec.Winner), string(rec.Loser), rec.EndReason,
		len(rec.Turns), record,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.RunID, err)
	}
	return nil
}

// FindByRunID loads one record back out of its JSONB column, or nil
// when absent.
func (s *ResultStore) FindByRunID(ctx context.Context, runID string) (*runner.GameRecord, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM game_results WHERE run_id = $1`, runID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game %s: %w", runID, err)
	}
	var rec runner.GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", runID, err)
	}
	return &rec, nil
}

// ListByMatch returns the records of one match in run_id order.
func (s *ResultStore) ListByMatch(ctx context.Context, matchID string) ([]*runner.GameRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM game_results WHERE match_id = $1 ORDER BY run_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list match %s: %w", matchID, err)
	}
	defer rows.Close()

	var records []*runner.GameRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec runner.GameRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
