package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/schedsim/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a
// Store. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Scenario CRUD ---

func (s *SQLiteStore) CreateScenario(ctx context.Context, sc *model.Scenario) error {
	s.logger.Debug("sql", "op", "insert", "table", "scenarios", "id", sc.ID)

	processesJSON, err := json.Marshal(sc.Processes)
	if err != nil {
		return fmt.Errorf("marshal processes: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, name, description, processes, default_policy, quantum, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Description, string(processesJSON),
		string(sc.DefaultPolicy), sc.Quantum,
		sc.CreatedAt.Format(time.RFC3339Nano), sc.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	s.logger.Debug("sql", "op", "select", "table", "scenarios", "id", id)

	var sc model.Scenario
	var processesJSON, policy string
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, processes, default_policy, quantum, created_at, updated_at
		 FROM scenarios WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.Name, &sc.Description, &processesJSON, &policy, &sc.Quantum, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(processesJSON), &sc.Processes); err != nil {
		return nil, fmt.Errorf("unmarshal processes: %w", err)
	}
	sc.DefaultPolicy = model.Policy(policy)
	sc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &sc, nil
}

func (s *SQLiteStore) ListScenarios(ctx context.Context, opts model.ListOptions) ([]*model.Scenario, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "scenarios", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, processes, default_policy, quantum, created_at, updated_at
		 FROM scenarios ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var scenarios []*model.Scenario
	for rows.Next() {
		var sc model.Scenario
		var processesJSON, policy string
		var createdAt, updatedAt string

		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Description, &processesJSON, &policy, &sc.Quantum, &createdAt, &updatedAt); err != nil {
			return nil, 0, err
		}
		json.Unmarshal([]byte(processesJSON), &sc.Processes)
		sc.DefaultPolicy = model.Policy(policy)
		sc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		sc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

		scenarios = append(scenarios, &sc)
	}
	return scenarios, total, rows.Err()
}

func (s *SQLiteStore) UpdateScenario(ctx context.Context, sc *model.Scenario) error {
	s.logger.Debug("sql", "op", "update", "table", "scenarios", "id", sc.ID)

	processesJSON, err := json.Marshal(sc.Processes)
	if err != nil {
		return fmt.Errorf("marshal processes: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE scenarios SET name=?, description=?, processes=?, default_policy=?, quantum=?, updated_at=?
		 WHERE id=?`,
		sc.Name, sc.Description, string(processesJSON), string(sc.DefaultPolicy), sc.Quantum,
		sc.UpdatedAt.Format(time.RFC3339Nano), sc.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("scenario %s not found", sc.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteScenario(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "scenarios", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("scenario %s not found", id)
	}
	return nil
}

// --- Run operations ---

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID)

	processesJSON, metricsJSON, err := marshalRunBlobs(run)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, scenario_id, scenario_name, policy, state, quantum, interval_ms, clock, processes, metrics, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ScenarioID, run.ScenarioName, string(run.Policy), string(run.State),
		run.Quantum, run.IntervalMS, run.Clock, processesJSON, metricsJSON,
		run.CreatedAt.Format(time.RFC3339Nano), formatTimePtr(run.StartedAt), formatTimePtr(run.CompletedAt),
	)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, scenario_id, scenario_name, policy, state, quantum, interval_ms, clock, processes, metrics, created_at, started_at, completed_at
		 FROM runs WHERE id = ?`, id,
	)
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var whereClauses []string
	var countArgs []any
	if opts.State != "" {
		whereClauses = append(whereClauses, "state = ?")
		countArgs = append(countArgs, opts.State)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM runs` + whereSQL
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT id, scenario_id, scenario_name, policy, state, quantum, interval_ms, clock, processes, metrics, created_at, started_at, completed_at
		FROM runs` + whereSQL + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	listArgs := append(countArgs, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "update", "table", "runs", "id", run.ID, "state", run.State)

	processesJSON, metricsJSON, err := marshalRunBlobs(run)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET policy=?, state=?, quantum=?, interval_ms=?, clock=?, processes=?, metrics=?, started_at=?, completed_at=?
		 WHERE id=?`,
		string(run.Policy), string(run.State), run.Quantum, run.IntervalMS, run.Clock,
		processesJSON, metricsJSON, formatTimePtr(run.StartedAt), formatTimePtr(run.CompletedAt),
		run.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

func (s *SQLiteStore) GetRunsByState(ctx context.Context, state model.RunState) ([]*model.Run, error) {
	s.logger.Debug("sql", "op", "select_by_state", "table", "runs", "state", state)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scenario_id, scenario_name, policy, state, quantum, interval_ms, clock, processes, metrics, created_at, started_at, completed_at
		 FROM runs WHERE state = ? ORDER BY created_at`, string(state),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- helpers ---

func marshalRunBlobs(run *model.Run) (processesJSON string, metricsJSON *string, err error) {
	procs, err := json.Marshal(run.Processes)
	if err != nil {
		return "", nil, fmt.Errorf("marshal processes: %w", err)
	}
	if run.Processes == nil {
		procs = []byte("[]")
	}
	if run.Metrics != nil {
		m, err := json.Marshal(run.Metrics)
		if err != nil {
			return "", nil, fmt.Errorf("marshal metrics: %w", err)
		}
		ms := string(m)
		metricsJSON = &ms
	}
	return string(procs), metricsJSON, nil
}

// scanRun reads one run row. scan is either sql.Row.Scan or sql.Rows.Scan.
func scanRun(scan func(dest ...any) error) (*model.Run, error) {
	var run model.Run
	var policy, state, processesJSON, createdAt string
	var metricsJSON, startedAt, completedAt *string

	if err := scan(&run.ID, &run.ScenarioID, &run.ScenarioName, &policy, &state,
		&run.Quantum, &run.IntervalMS, &run.Clock, &processesJSON, &metricsJSON,
		&createdAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	run.Policy = model.Policy(policy)
	run.State = model.RunState(state)
	if err := json.Unmarshal([]byte(processesJSON), &run.Processes); err != nil {
		return nil, fmt.Errorf("unmarshal processes: %w", err)
	}
	if metricsJSON != nil {
		run.Metrics = &model.Metrics{}
		if err := json.Unmarshal([]byte(*metricsJSON), run.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	run.StartedAt = parseTimePtr(startedAt)
	run.CompletedAt = parseTimePtr(completedAt)

	return &run, nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}

func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, _ := time.Parse(time.RFC3339Nano, *s)
	return &t
}
