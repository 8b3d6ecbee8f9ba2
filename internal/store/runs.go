package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

type runRow struct {
	ID          int64  `db:"id"`
	RunKey      string `db:"run_key"`
	CreatedAt   string `db:"created_at"`
	ConfigJSON  string `db:"config_json"`
	SummaryJSON string `db:"summary_json"`
	CSVText     string `db:"csv_text"`
}

// PopulationPoint is one population's summary within an archived run.
type PopulationPoint struct {
	RunID          int64   `db:"run_id"`
	Population     string  `db:"population"`
	CompletionRate float64 `db:"completion_rate"`
	AvgTouchpoints float64 `db:"avg_touchpoints"`
	AvgTotalTime   float64 `db:"avg_total_time"`
	N              int     `db:"n"`
}

// SaveRun archives a completed run and returns its listing entry.
func (s *Store) SaveRun(ctx context.Context, cfg model.Config, summary model.Summary, csvText string) (info model.RunInfo, err error) {
	configJSON, err := json.MarshalToString(cfg)
	if err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to encode config: %w", err)
	}
	summaryJSON, err := json.MarshalToString(summary)
	if err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to encode summary: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	info = model.RunInfo{
		Key:       uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Summary:   summary,
	}
	err = tx.QueryRowxContext(ctx, tx.Rebind(
		`INSERT INTO runs (run_key, created_at, config_json, summary_json, csv_text)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		info.Key,
		info.CreatedAt.Format(time.RFC3339Nano),
		configJSON,
		summaryJSON,
		csvText,
	).Scan(&info.ID)
	if err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to insert run: %w", err)
	}

	insertPop := tx.Rebind(`INSERT INTO run_populations (run_id, population, completion_rate, avg_touchpoints, avg_total_time, n)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for _, p := range summary.ByPopulation {
		if _, err = tx.ExecContext(ctx, insertPop, info.ID, p.Population, p.CompletionRate, p.AvgTouchpoints, p.AvgTotalTime, p.N); err != nil {
			return model.RunInfo{}, fmt.Errorf("failed to insert population summary: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to commit run: %w", err)
	}
	s.log.Debug("run saved", "id", info.ID, "key", info.Key, "bytes", len(csvText))
	return info, nil
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 means 50.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT id, run_key, created_at, summary_json FROM runs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]model.RunInfo, 0, len(rows))
	for _, row := range rows {
		info, err := row.info()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// GetRun loads a run with its configuration and CSV.
func (s *Store) GetRun(ctx context.Context, id int64) (model.Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT id, run_key, created_at, config_json, summary_json, csv_text FROM runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	info, err := row.info()
	if err != nil {
		return model.Run{}, err
	}
	run := model.Run{RunInfo: info, CSVText: row.CSVText}
	if err := json.UnmarshalFromString(row.ConfigJSON, &run.Config); err != nil {
		return model.Run{}, fmt.Errorf("failed to decode config of run %d: %w", id, err)
	}
	return run, nil
}

// PopulationHistory returns a population's summary across the most recent
// runs, oldest first.
func (s *Store) PopulationHistory(ctx context.Context, population string, limit int) ([]PopulationPoint, error) {
	if limit <= 0 {
		limit = 50
	}
	var points []PopulationPoint
	err := s.db.SelectContext(ctx, &points, s.db.Rebind(
		`SELECT run_id, population, completion_rate, avg_touchpoints, avg_total_time, n
		 FROM run_populations WHERE population = ? ORDER BY run_id DESC LIMIT ?`), population, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load population history: %w", err)
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

func (r runRow) info() (model.RunInfo, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to parse created_at of run %d: %w", r.ID, err)
	}
	info := model.RunInfo{ID: r.ID, Key: r.RunKey, CreatedAt: createdAt}
	if err := json.UnmarshalFromString(r.SummaryJSON, &info.Summary); err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to decode summary of run %d: %w", r.ID, err)
	}
	return info, nil
}
