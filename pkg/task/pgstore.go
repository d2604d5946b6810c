package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed task store. Guarded mutations (status,
// assign, delete) lock the row with SELECT ... FOR UPDATE inside a
// transaction so concurrent requests cannot interleave on one record.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const taskColumns = `id, title, description, client_id, tasker_id, category_id, address_id,
	scheduled_at, duration_est_mins, status, priority, is_urgent,
	price_ghs, platform_fee_ghs, currency, location, created_at, updated_at`

// EnsureTable creates the tasks and task_history tables if they don't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id                TEXT PRIMARY KEY,
			title             TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			client_id         TEXT NOT NULL,
			tasker_id         TEXT,
			category_id       TEXT NOT NULL,
			address_id        TEXT NOT NULL,
			scheduled_at      TIMESTAMPTZ NOT NULL,
			duration_est_mins INTEGER NOT NULL,
			status            TEXT NOT NULL DEFAULT 'CREATED',
			priority          TEXT NOT NULL DEFAULT 'MEDIUM',
			is_urgent         BOOLEAN NOT NULL DEFAULT FALSE,
			price_ghs         DOUBLE PRECISION NOT NULL,
			platform_fee_ghs  DOUBLE PRECISION NOT NULL,
			currency          TEXT NOT NULL DEFAULT 'GHS',
			location          TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ DEFAULT NOW(),
			updated_at        TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return wrapUnavailable(err)
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_client ON tasks(client_id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_tasker ON tasks(tasker_id) WHERE tasker_id IS NOT NULL`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_history (
			id          TEXT PRIMARY KEY,
			task_id     TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			from_status TEXT NOT NULL DEFAULT '',
			to_status   TEXT NOT NULL,
			note        TEXT NOT NULL DEFAULT '',
			at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_task_history_task ON task_history(task_id, at)`)
	return err
}

// Create inserts a new task, assigning its id, status and timestamps.
func (s *PgStore) Create(ctx context.Context, t *Task) (*Task, error) {
	cp := *t
	now := time.Now().Truncate(time.Microsecond)
	cp.ID = uuid.Must(uuid.NewV7()).String()
	cp.Status = StatusCreated
	cp.TaskerID = nil
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if cp.Priority == "" {
		cp.Priority = DefaultPriority
	}
	if cp.Currency == "" {
		cp.Currency = Currency
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		cp.ID, cp.Title, cp.Description, cp.ClientID, cp.TaskerID, cp.CategoryID, cp.AddressID,
		cp.ScheduledAt, cp.DurationEstMins, cp.Status, cp.Priority, cp.IsUrgent,
		cp.PriceGHS, cp.PlatformFeeGHS, cp.Currency, cp.Location, cp.CreatedAt, cp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if err := insertHistory(ctx, tx, cp.ID, "", StatusCreated, "", now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &cp, nil
}

// Get retrieves a single task by id.
func (s *PgStore) Get(ctx context.Context, id string) (*Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// List filters tasks and returns one page in insertion order.
func (s *PgStore) List(ctx context.Context, f Filter, p PageRequest) (*Page, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}

	where, args := buildWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return nil, wrapUnavailable(fmt.Errorf("count tasks: %w", err))
	}

	offset := (p.Page - 1) * p.Limit
	query := fmt.Sprintf(`SELECT `+taskColumns+` FROM tasks%s ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, query, append(args, p.Limit, offset)...)
	if err != nil {
		return nil, wrapUnavailable(fmt.Errorf("list tasks: %w", err))
	}
	defer rows.Close()

	items, err := scanTaskRows(rows)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages(total, p.Limit),
	}, nil
}

// Update applies field changes. Status is not updatable here; see UpdateStatus.
func (s *PgStore) Update(ctx context.Context, id string, u Update) (*Task, error) {
	set := []string{"updated_at = $1"}
	args := []any{time.Now().Truncate(time.Microsecond)}

	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.ScheduledAt != nil {
		add("scheduled_at", *u.ScheduledAt)
	}
	if u.DurationEstMins != nil {
		add("duration_est_mins", *u.DurationEstMins)
	}
	if u.PriceGHS != nil {
		add("price_ghs", *u.PriceGHS)
	}
	if u.PlatformFeeGHS != nil {
		add("platform_fee_ghs", *u.PlatformFeeGHS)
	}
	if u.Priority != nil {
		add("priority", *u.Priority)
	}
	if u.IsUrgent != nil {
		add("is_urgent", *u.IsUrgent)
	}
	if u.Location != nil {
		add("location", *u.Location)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING `+taskColumns,
		strings.Join(set, ", "), len(args))

	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return t, nil
}

// UpdateStatus moves a task along the lifecycle under a row lock. A target
// that is not an allowed next status fails with a TransitionError and leaves
// the task unmodified.
func (s *PgStore) UpdateStatus(ctx context.Context, id string, next Status, note string) (*Task, error) {
	return s.guarded(ctx, id, func(cur Status) error {
		if !cur.CanTransition(next) {
			return &TransitionError{From: cur, To: next}
		}
		return nil
	}, func(ctx context.Context, tx pgx.Tx, cur Status, now time.Time) (pgx.Row, error) {
		if err := insertHistory(ctx, tx, id, cur, next, note, now); err != nil {
			return nil, err
		}
		return tx.QueryRow(ctx, `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 RETURNING `+taskColumns,
			next, now, id), nil
	})
}

// Assign sets the tasker and advances CREATED -> ASSIGNED under a row lock.
func (s *PgStore) Assign(ctx context.Context, id, taskerID string) (*Task, error) {
	return s.guarded(ctx, id, func(cur Status) error {
		if cur != StatusCreated {
			return &TransitionError{From: cur, To: StatusAssigned}
		}
		return nil
	}, func(ctx context.Context, tx pgx.Tx, cur Status, now time.Time) (pgx.Row, error) {
		if err := insertHistory(ctx, tx, id, cur, StatusAssigned, "assigned to "+taskerID, now); err != nil {
			return nil, err
		}
		return tx.QueryRow(ctx, `UPDATE tasks SET tasker_id = $1, status = $2, updated_at = $3 WHERE id = $4 RETURNING `+taskColumns,
			taskerID, StatusAssigned, now, id), nil
	})
}

// Delete removes a task. Only CREATED or CANCELLED tasks may be deleted.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapUnavailable(err)
	}
	defer tx.Rollback(ctx)

	var cur Status
	err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1 FOR UPDATE`, id).Scan(&cur)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if cur != StatusCreated && cur != StatusCancelled {
		return &StateError{Status: cur, Op: "delete"}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return tx.Commit(ctx)
}

// History returns the task's audit trail in chronological order.
func (s *PgStore) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, wrapUnavailable(err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, from_status, to_status, note, at
		FROM task_history WHERE task_id = $1 ORDER BY at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("task history %s: %w", id, err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.From, &e.To, &e.Note, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return entries, nil
}

// Count returns the total task count.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

// guarded runs check against the current status under a row lock, then the
// mutation, inside one transaction.
func (s *PgStore) guarded(ctx context.Context, id string,
	check func(cur Status) error,
	mutate func(ctx context.Context, tx pgx.Tx, cur Status, now time.Time) (pgx.Row, error),
) (*Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	defer tx.Rollback(ctx)

	var cur Status
	err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1 FOR UPDATE`, id).Scan(&cur)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock task %s: %w", id, err)
	}
	if err := check(cur); err != nil {
		return nil, err
	}

	now := time.Now().Truncate(time.Microsecond)
	row, err := mutate(ctx, tx, cur, now)
	if err != nil {
		return nil, err
	}
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return t, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, taskID string, from, to Status, note string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO task_history (id, task_id, from_status, to_status, note, at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.Must(uuid.NewV7()).String(), taskID, string(from), to, note, at)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.CategoryID != "" {
		add("category_id = $%d", f.CategoryID)
	}
	if f.ClientID != "" {
		add("client_id = $%d", f.ClientID)
	}
	if f.TaskerID != "" {
		add("tasker_id = $%d", f.TaskerID)
	}
	if f.Priority != "" {
		add("priority = $%d", f.Priority)
	}
	if f.IsUrgent != nil {
		add("is_urgent = $%d", *f.IsUrgent)
	}
	if f.MinPrice > 0 {
		add("price_ghs >= $%d", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		add("price_ghs <= $%d", f.MaxPrice)
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ClientID, &t.TaskerID, &t.CategoryID, &t.AddressID,
		&t.ScheduledAt, &t.DurationEstMins, &t.Status, &t.Priority, &t.IsUrgent,
		&t.PriceGHS, &t.PlatformFeeGHS, &t.Currency, &t.Location, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTaskRows(rows pgx.Rows) ([]Task, error) {
	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

// wrapUnavailable maps connection-level failures to ErrUnavailable so the API
// boundary can answer 503 instead of 500.
func wrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
