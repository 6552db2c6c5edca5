/*
Package sqlite provides a SQLite-backed implementation of core.TxStore.

PURPOSE:
  Persists activities, tasks, partners, reference tables, position rates,
  allocations, period rules, contract settings and templates. The same
  queries run on the database handle and inside a transaction, so the
  import commit gets the full store interface within WithTx.

KEY TABLES:
  tasks:             Sub-activities with start/end dates
  position_rates:    One rate per (task, position)           PRIMARY KEY
  allocations:       One allocation per (task, partner)      UNIQUE
  period_rules:      Honorarium ceiling per period key
  contract_settings: Official and letter details per period key
  templates:         Stored template JSON

CASCADES:
  Deleting a task deletes its rates and allocations (ON DELETE CASCADE with
  foreign_keys enabled on every connection).

VALUE ENCODING:
  decimals    TEXT, exact decimal string ("175000", "2.5")
  dates       TEXT, "2006-01-02", empty for no date
  period keys TEXT, "2025" or "2025-07"

CONCURRENCY:
  The pool is limited to one connection. Calls made while WithTx runs wait
  for the connection, so a transaction never interleaves with other writes.
  ":memory:" databases also depend on this: every connection would otherwise
  open its own empty database.

USAGE:
  store, err := sqlite.New("./data/honor.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - core/store.go: Interface definitions
  - core/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/core"
)

// Store implements core.TxStore using SQLite.
type Store struct {
	queries
	db *sql.DB
}

var _ core.TxStore = (*Store)(nil)

// New opens the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{queries: queries{db: db}, db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_activity ON tasks(activity_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_start ON tasks(start_date);

	CREATE TABLE IF NOT EXISTS partners (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		national_id TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS positions (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS units (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS position_rates (
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		position TEXT NOT NULL,
		rate TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		basis_volume TEXT NOT NULL DEFAULT '0',
		budget_line TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (task_id, position)
	);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		partner_id TEXT NOT NULL,
		position TEXT NOT NULL,
		volume TEXT NOT NULL,
		UNIQUE (task_id, partner_id)
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_partner ON allocations(partner_id);

	CREATE TABLE IF NOT EXISTS period_rules (
		period_key TEXT PRIMARY KEY,
		ceiling TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contract_settings (
		period_key TEXT PRIMARY KEY,
		official_name TEXT NOT NULL DEFAULT '',
		official_title TEXT NOT NULL DEFAULT '',
		official_nip TEXT NOT NULL DEFAULT '',
		letter_number_format TEXT NOT NULL DEFAULT '',
		issue_date TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		honor_clause TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		body BLOB NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (core.TxStore interface)
// =============================================================================

// WithTx runs fn inside a database transaction. The transaction is committed
// only when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(store core.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{db: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// QUERIES - shared by *sql.DB and *sql.Tx
// =============================================================================

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

var _ core.Store = (*queries)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func queryAll[T any](ctx context.Context, db dbtx, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// queryOne scans a single row, returning notFound when there is none.
func queryOne[T any](ctx context.Context, db dbtx, scan func(scanner) (T, error), notFound error, query string, args ...any) (T, error) {
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, notFound
	}
	return v, err
}

// =============================================================================
// ACTIVITIES / TASKS
// =============================================================================

func (q *queries) ListActivities(ctx context.Context) ([]core.Activity, error) {
	out, err := queryAll(ctx, q.db, func(r scanner) (core.Activity, error) {
		var a core.Activity
		err := r.Scan(&a.ID, &a.Name)
		return a, err
	}, `SELECT id, name FROM activities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return out, nil
}

func (q *queries) SaveActivity(ctx context.Context, a core.Activity) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO activities (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		a.ID, a.Name)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

const taskColumns = `id, activity_id, name, description, start_date, end_date, status`

func scanTask(r scanner) (core.Task, error) {
	var (
		t          core.Task
		start, end string
	)
	if err := r.Scan(&t.ID, &t.ActivityID, &t.Name, &t.Description, &start, &end, &t.Status); err != nil {
		return core.Task{}, err
	}
	var err error
	if t.Start, err = parseDate(start); err != nil {
		return core.Task{}, err
	}
	if t.End, err = parseDate(end); err != nil {
		return core.Task{}, err
	}
	return t, nil
}

func (q *queries) GetTask(ctx context.Context, id core.TaskID) (core.Task, error) {
	return queryOne(ctx, q.db, scanTask, core.ErrTaskNotFound,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
}

func (q *queries) ListTasks(ctx context.Context) ([]core.Task, error) {
	out, err := queryAll(ctx, q.db, scanTask, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}

func (q *queries) SaveTask(ctx context.Context, t core.Task) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			activity_id = excluded.activity_id,
			name = excluded.name,
			description = excluded.description,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status`,
		t.ID, t.ActivityID, t.Name, t.Description, t.Start.String(), t.End.String(), t.Status)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (q *queries) DeleteTask(ctx context.Context, id core.TaskID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(res, core.ErrTaskNotFound)
}

// =============================================================================
// PARTNERS / REFERENCE TABLES
// =============================================================================

func scanPartner(r scanner) (core.Partner, error) {
	var p core.Partner
	err := r.Scan(&p.ID, &p.Name, &p.NationalID, &p.Address, &p.Phone, &p.Email)
	return p, err
}

func (q *queries) GetPartner(ctx context.Context, id core.PartnerID) (core.Partner, error) {
	return queryOne(ctx, q.db, scanPartner, core.ErrPartnerNotFound,
		`SELECT id, name, national_id, address, phone, email FROM partners WHERE id = ?`, id)
}

func (q *queries) ListPartners(ctx context.Context) ([]core.Partner, error) {
	out, err := queryAll(ctx, q.db, scanPartner,
		`SELECT id, name, national_id, address, phone, email FROM partners ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	return out, nil
}

func (q *queries) SavePartner(ctx context.Context, p core.Partner) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO partners (id, name, national_id, address, phone, email) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			national_id = excluded.national_id,
			address = excluded.address,
			phone = excluded.phone,
			email = excluded.email`,
		p.ID, p.Name, p.NationalID, p.Address, p.Phone, p.Email)
	if err != nil {
		return fmt.Errorf("failed to save partner: %w", err)
	}
	return nil
}

func (q *queries) ListPositions(ctx context.Context) ([]core.Position, error) {
	out, err := queryAll(ctx, q.db, func(r scanner) (core.Position, error) {
		var p core.Position
		err := r.Scan(&p.Code, &p.Name)
		return p, err
	}, `SELECT code, name FROM positions ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return out, nil
}

func (q *queries) SavePosition(ctx context.Context, p core.Position) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO positions (code, name) VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name`,
		p.Code, p.Name)
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

func (q *queries) ListUnits(ctx context.Context) ([]core.MeasureUnit, error) {
	out, err := queryAll(ctx, q.db, func(r scanner) (core.MeasureUnit, error) {
		var u core.MeasureUnit
		err := r.Scan(&u.Code, &u.Name)
		return u, err
	}, `SELECT code, name FROM units ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return out, nil
}

func (q *queries) SaveUnit(ctx context.Context, u core.MeasureUnit) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO units (code, name) VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name`,
		u.Code, u.Name)
	if err != nil {
		return fmt.Errorf("failed to save unit: %w", err)
	}
	return nil
}

// =============================================================================
// POSITION RATES
// =============================================================================

const rateColumns = `task_id, position, rate, unit, basis_volume, budget_line`

func scanRate(r scanner) (core.PositionRate, error) {
	var (
		pr          core.PositionRate
		rate, basis string
	)
	if err := r.Scan(&pr.TaskID, &pr.Position, &rate, &pr.Unit, &basis, &pr.BudgetLine); err != nil {
		return core.PositionRate{}, err
	}
	var err error
	if pr.Rate, err = decimal.NewFromString(rate); err != nil {
		return core.PositionRate{}, fmt.Errorf("corrupt rate %q: %w", rate, err)
	}
	if pr.BasisVolume, err = decimal.NewFromString(basis); err != nil {
		return core.PositionRate{}, fmt.Errorf("corrupt basis volume %q: %w", basis, err)
	}
	return pr, nil
}

func (q *queries) ListRates(ctx context.Context) ([]core.PositionRate, error) {
	out, err := queryAll(ctx, q.db, scanRate,
		`SELECT `+rateColumns+` FROM position_rates ORDER BY task_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	return out, nil
}

func (q *queries) RatesForTask(ctx context.Context, task core.TaskID) ([]core.PositionRate, error) {
	out, err := queryAll(ctx, q.db, scanRate,
		`SELECT `+rateColumns+` FROM position_rates WHERE task_id = ? ORDER BY position`, task)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates of task %s: %w", task, err)
	}
	return out, nil
}

func (q *queries) SaveRate(ctx context.Context, r core.PositionRate) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO position_rates (`+rateColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		r.TaskID, r.Position, r.Rate.String(), r.Unit, r.BasisVolume.String(), r.BudgetLine)
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return core.ErrDuplicateRate
	default:
		return fmt.Errorf("failed to save rate %s/%s: %w", r.TaskID, r.Position, err)
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

const allocationColumns = `id, task_id, partner_id, position, volume`

func scanAllocation(r scanner) (core.Allocation, error) {
	var (
		a      core.Allocation
		volume string
	)
	if err := r.Scan(&a.ID, &a.TaskID, &a.PartnerID, &a.Position, &volume); err != nil {
		return core.Allocation{}, err
	}
	v, err := decimal.NewFromString(volume)
	if err != nil {
		return core.Allocation{}, fmt.Errorf("corrupt volume %q: %w", volume, err)
	}
	a.Volume = v
	return a, nil
}

func (q *queries) GetAllocation(ctx context.Context, id core.AllocationID) (core.Allocation, error) {
	return queryOne(ctx, q.db, scanAllocation, core.ErrAllocationNotFound,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, id)
}

func (q *queries) ListAllocations(ctx context.Context) ([]core.Allocation, error) {
	return q.queryAllocations(ctx, `SELECT `+allocationColumns+` FROM allocations ORDER BY id`)
}

func (q *queries) AllocationsByTask(ctx context.Context, task core.TaskID) ([]core.Allocation, error) {
	return q.queryAllocations(ctx, `SELECT `+allocationColumns+` FROM allocations WHERE task_id = ? ORDER BY id`, task)
}

func (q *queries) AllocationsByPartner(ctx context.Context, partner core.PartnerID) ([]core.Allocation, error) {
	return q.queryAllocations(ctx, `SELECT `+allocationColumns+` FROM allocations WHERE partner_id = ? ORDER BY id`, partner)
}

func (q *queries) queryAllocations(ctx context.Context, query string, args ...any) ([]core.Allocation, error) {
	out, err := queryAll(ctx, q.db, scanAllocation, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	return out, nil
}

func (q *queries) SaveAllocation(ctx context.Context, a core.Allocation) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO allocations (`+allocationColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			task_id = excluded.task_id,
			partner_id = excluded.partner_id,
			position = excluded.position,
			volume = excluded.volume`,
		a.ID, a.TaskID, a.PartnerID, a.Position, a.Volume.String())
	if err == nil {
		return nil
	}
	if !isUniqueConstraintError(err) {
		return fmt.Errorf("failed to save allocation: %w", err)
	}

	var existing core.AllocationID
	if qerr := q.db.QueryRowContext(ctx,
		`SELECT id FROM allocations WHERE task_id = ? AND partner_id = ?`, a.TaskID, a.PartnerID,
	).Scan(&existing); qerr != nil {
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	return &core.DuplicateAllocationError{TaskID: a.TaskID, PartnerID: a.PartnerID, ExistingID: existing}
}

func (q *queries) DeleteAllocation(ctx context.Context, id core.AllocationID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete allocation: %w", err)
	}
	return requireAffected(res, core.ErrAllocationNotFound)
}

// =============================================================================
// PERIOD CONFIGURATION
// =============================================================================

func (q *queries) ListPeriodRules(ctx context.Context) ([]core.PeriodRule, error) {
	out, err := queryAll(ctx, q.db, func(r scanner) (core.PeriodRule, error) {
		var key, ceiling string
		if err := r.Scan(&key, &ceiling); err != nil {
			return core.PeriodRule{}, err
		}
		k, err := core.ParsePeriodKey(key)
		if err != nil {
			return core.PeriodRule{}, err
		}
		c, err := decimal.NewFromString(ceiling)
		if err != nil {
			return core.PeriodRule{}, fmt.Errorf("corrupt ceiling %q: %w", ceiling, err)
		}
		return core.PeriodRule{Key: k, Ceiling: c}, nil
	}, `SELECT period_key, ceiling FROM period_rules ORDER BY period_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list period rules: %w", err)
	}
	return out, nil
}

func (q *queries) SavePeriodRule(ctx context.Context, r core.PeriodRule) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO period_rules (period_key, ceiling) VALUES (?, ?)
		ON CONFLICT(period_key) DO UPDATE SET ceiling = excluded.ceiling`,
		r.Key.String(), r.Ceiling.String())
	if err != nil {
		return fmt.Errorf("failed to save period rule: %w", err)
	}
	return nil
}

func (q *queries) GetContractSetting(ctx context.Context, key core.PeriodKey) (core.ContractSetting, error) {
	scan := func(r scanner) (core.ContractSetting, error) {
		s := core.ContractSetting{Key: key}
		var issue string
		if err := r.Scan(&s.OfficialName, &s.OfficialTitle, &s.OfficialNIP, &s.LetterNumberFormat, &issue, &s.TemplateID, &s.HonorClause); err != nil {
			return core.ContractSetting{}, err
		}
		var err error
		s.IssueDate, err = parseDate(issue)
		return s, err
	}
	return queryOne(ctx, q.db, scan, error(&core.TemplateNotReadyError{Period: key}), `
		SELECT official_name, official_title, official_nip, letter_number_format, issue_date, template_id, honor_clause
		FROM contract_settings WHERE period_key = ?`, key.String())
}

func (q *queries) SaveContractSetting(ctx context.Context, s core.ContractSetting) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO contract_settings
		(period_key, official_name, official_title, official_nip, letter_number_format, issue_date, template_id, honor_clause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(period_key) DO UPDATE SET
			official_name = excluded.official_name,
			official_title = excluded.official_title,
			official_nip = excluded.official_nip,
			letter_number_format = excluded.letter_number_format,
			issue_date = excluded.issue_date,
			template_id = excluded.template_id,
			honor_clause = excluded.honor_clause`,
		s.Key.String(), s.OfficialName, s.OfficialTitle, s.OfficialNIP, s.LetterNumberFormat,
		s.IssueDate.String(), s.TemplateID, s.HonorClause)
	if err != nil {
		return fmt.Errorf("failed to save contract setting: %w", err)
	}
	return nil
}

// =============================================================================
// TEMPLATES
// =============================================================================

func (q *queries) GetTemplate(ctx context.Context, id core.TemplateID) (core.TemplateRecord, error) {
	return queryOne(ctx, q.db, func(r scanner) (core.TemplateRecord, error) {
		var t core.TemplateRecord
		err := r.Scan(&t.ID, &t.Name, &t.Body)
		return t, err
	}, core.ErrTemplateNotFound, `SELECT id, name, body FROM templates WHERE id = ?`, id)
}

func (q *queries) SaveTemplate(ctx context.Context, t core.TemplateRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, body) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, body = excluded.body`,
		t.ID, t.Name, t.Body)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (q *queries) Reset(ctx context.Context) error {
	tables := []string{
		"allocations", "position_rates", "tasks", "activities", "partners",
		"positions", "units", "period_rules", "contract_settings", "templates",
	}
	for _, table := range tables {
		if _, err := q.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
