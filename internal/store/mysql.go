package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scenarios (
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  description TEXT,
  config JSON NOT NULL,
  created_at DATETIME(6) NOT NULL,
  updated_at DATETIME(6) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS runs (
  id VARCHAR(64) PRIMARY KEY,
  scenario_id VARCHAR(64) NOT NULL,
  seed BIGINT NOT NULL,
  status VARCHAR(16) NOT NULL,
  duration DOUBLE NOT NULL,
  tick_interval INT NOT NULL,
  summary JSON NULL,
  started_at DATETIME(6) NOT NULL,
  completed_at DATETIME(6) NULL,
  INDEX idx_runs_scenario (scenario_id, started_at),
  FOREIGN KEY (scenario_id) REFERENCES scenarios(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS run_metrics (
  run_id VARCHAR(64) NOT NULL,
  tick INT NOT NULL,
  payload JSON NOT NULL,
  PRIMARY KEY (run_id, tick),
  FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS run_events (
  run_id VARCHAR(64) NOT NULL,
  seq INT NOT NULL,
  time DOUBLE NOT NULL,
  kind VARCHAR(32) NOT NULL,
  message TEXT NOT NULL,
  PRIMARY KEY (run_id, seq),
  FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
)`,
}

// ensureParseTime adds parseTime=true to a MySQL DSN if not already present.
// DATETIME columns only scan into time.Time with it.
func ensureParseTime(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "parsetime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// MySQLStore persists scenarios and runs in MySQL or MariaDB.
type MySQLStore struct {
	db *sql.DB
}

// OpenMySQL opens a connection pool and verifies it with a ping.
func OpenMySQL(ctx context.Context, cfg config.StoreSettings) (*MySQLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	db, err := sql.Open("mysql", ensureParseTime(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

// Migrate creates the tables if they do not exist.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) SaveScenario(ctx context.Context, sc scenario.Scenario) error {
	cfg, err := json.Marshal(sc.Config)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO scenarios (id, name, description, config, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE name = VALUES(name), description = VALUES(description),
  config = VALUES(config), updated_at = VALUES(updated_at)`,
		sc.ID, sc.Name, sc.Description, cfg, sc.CreatedAt.UTC(), sc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save scenario: %w", err)
	}
	return nil
}

const scenarioColumns = `id, name, description, config, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (scenario.Scenario, error) {
	var sc scenario.Scenario
	var desc sql.NullString
	var cfg []byte
	if err := row.Scan(&sc.ID, &sc.Name, &desc, &cfg, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
		return scenario.Scenario{}, err
	}
	sc.Description = desc.String
	if err := json.Unmarshal(cfg, &sc.Config); err != nil {
		return scenario.Scenario{}, fmt.Errorf("decode scenario config: %w", err)
	}
	return sc, nil
}

func (s *MySQLStore) GetScenario(ctx context.Context, id string) (scenario.Scenario, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, id)
	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return scenario.Scenario{}, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	return sc, err
}

func (s *MySQLStore) ListScenarios(ctx context.Context) ([]scenario.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()
	var out []scenario.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *MySQLStore) DeleteScenario(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return expectRow(res, "scenario", id)
}

func (s *MySQLStore) CreateRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, scenario_id, seed, status, duration, tick_interval, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ScenarioID, r.Seed, string(r.Status), r.Duration, r.TickInterval, r.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	if err := s.AppendMetrics(ctx, r.ID, r.Metrics); err != nil {
		return err
	}
	return s.AppendEvents(ctx, r.ID, r.Events)
}

const runColumns = `id, scenario_id, seed, status, duration, tick_interval, summary, started_at, completed_at`

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var status string
	var summary []byte
	var completed sql.NullTime
	if err := row.Scan(&r.ID, &r.ScenarioID, &r.Seed, &status, &r.Duration, &r.TickInterval, &summary, &r.StartedAt, &completed); err != nil {
		return Run{}, err
	}
	r.Status = RunStatus(status)
	if len(summary) > 0 {
		var sum engine.Summary
		if err := json.Unmarshal(summary, &sum); err != nil {
			return Run{}, fmt.Errorf("decode run summary: %w", err)
		}
		r.Summary = &sum
	}
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	r.Metrics = []engine.TickMetric{}
	r.Events = []engine.Event{}
	return r, nil
}

func (s *MySQLStore) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM run_metrics WHERE run_id = ? ORDER BY tick`, id)
	if err != nil {
		return Run{}, fmt.Errorf("load metrics: %w", err)
	}
	for rows.Next() {
		var payload []byte
		var m engine.TickMetric
		if err := rows.Scan(&payload); err != nil {
			rows.Close()
			return Run{}, err
		}
		if err := json.Unmarshal(payload, &m); err != nil {
			rows.Close()
			return Run{}, fmt.Errorf("decode metric: %w", err)
		}
		r.Metrics = append(r.Metrics, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT time, kind, message FROM run_events WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return Run{}, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ev engine.Event
		var kind string
		if err := rows.Scan(&ev.Time, &kind, &ev.Message); err != nil {
			return Run{}, err
		}
		ev.Kind = engine.EventKind(kind)
		r.Events = append(r.Events, ev)
	}
	return r, rows.Err()
}

func (s *MySQLStore) ListRuns(ctx context.Context, scenarioID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE scenario_id = ? ORDER BY started_at DESC, id`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *MySQLStore) AppendMetrics(ctx context.Context, runID string, metrics []engine.TickMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_metrics (run_id, tick, payload) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, m := range metrics {
			payload, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, runID, m.Tick, payload); err != nil {
				return fmt.Errorf("append metric %d: %w", m.Tick, err)
			}
		}
		return nil
	})
}

func (s *MySQLStore) AppendEvents(ctx context.Context, runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM run_events WHERE run_id = ? FOR UPDATE`, runID).Scan(&next); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_events (run_id, seq, time, kind, message) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, ev := range events {
			if _, err := stmt.ExecContext(ctx, runID, next+i, ev.Time, string(ev.Kind), ev.Message); err != nil {
				return fmt.Errorf("append event: %w", err)
			}
		}
		return nil
	})
}

func (s *MySQLStore) CompleteRun(ctx context.Context, runID string, summary engine.Summary, at time.Time) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, summary = ?, completed_at = ? WHERE id = ?`,
		string(StatusCompleted), payload, at.UTC(), runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return expectRow(res, "run", runID)
}

func (s *MySQLStore) SetRunStatus(ctx context.Context, runID string, status RunStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, string(status), runID)
	if err != nil {
		return fmt.Errorf("set run status: %w", err)
	}
	return expectRow(res, "run", runID)
}

// Close closes the connection pool.
func (s *MySQLStore) Close() error { return s.db.Close() }

func (s *MySQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

var _ Store = (*MySQLStore)(nil)
