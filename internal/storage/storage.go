// Package storage is the SQLite-backed task record store. It owns durable task
// state and publishes a full snapshot to subscribers after every write.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"myday/internal/task"
)

const selectColumns = `SELECT id, name, created_at, due_date, is_important, is_completed, is_overdue FROM tasks`

// Store persists tasks keyed by integer ID.
type Store struct {
	db *sql.DB

	mu     sync.Mutex
	subs   map[int]chan []task.Task
	nextID int
	closed bool
	done   chan struct{} // closed by Close
}

// Open opens (creating if needed) the database at dbPath and migrates the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, subs: map[int]chan []task.Task{}, done: make(chan struct{})}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes every subscription and the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL DEFAULT '',
	is_important INTEGER NOT NULL DEFAULT 0,
	is_completed INTEGER NOT NULL DEFAULT 0,
	is_overdue INTEGER NOT NULL DEFAULT 0
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return s.ensureTaskColumns(ctx)
}

// ensureTaskColumns adds columns introduced after the first schema version.
func (s *Store) ensureTaskColumns(ctx context.Context) error {
	required := map[string]string{
		"created_at":   "ALTER TABLE tasks ADD COLUMN created_at TEXT NOT NULL DEFAULT '';",
		"is_important": "ALTER TABLE tasks ADD COLUMN is_important INTEGER NOT NULL DEFAULT 0;",
		"is_overdue":   "ALTER TABLE tasks ADD COLUMN is_overdue INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	return nil
}

// All returns every task, incomplete first and important before normal within
// each completion group. Ties keep insertion order.
func (s *Store) All(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY is_completed ASC, is_important DESC, id ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns a single task. Returns task.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?;`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Insert stores t. A zero ID is assigned by the database; a non-zero ID
// replaces any existing record with that ID entirely.
func (s *Store) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	if t.CreatedAt == "" {
		t.CreatedAt = task.CreationStamp(time.Now())
	}

	if t.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO tasks (name, created_at, due_date, is_important, is_completed, is_overdue) VALUES (?, ?, ?, ?, ?, ?);`,
			t.Name, t.CreatedAt, t.Due.Encode(), boolToInt(t.Important), boolToInt(t.Completed), boolToInt(t.Overdue))
		if err != nil {
			return task.Task{}, fmt.Errorf("insert task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return task.Task{}, fmt.Errorf("insert task: %w", err)
		}
		t.ID = id
	} else {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO tasks (id, name, created_at, due_date, is_important, is_completed, is_overdue) VALUES (?, ?, ?, ?, ?, ?, ?);`,
			t.ID, t.Name, t.CreatedAt, t.Due.Encode(), boolToInt(t.Important), boolToInt(t.Completed), boolToInt(t.Overdue))
		if err != nil {
			return task.Task{}, fmt.Errorf("upsert task: %w", err)
		}
	}

	s.publish(ctx)
	return t, nil
}

// Update replaces the record with t's ID. Missing IDs are ignored.
func (s *Store) Update(ctx context.Context, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.exec(ctx, "update task",
		`UPDATE tasks SET name = ?, created_at = ?, due_date = ?, is_important = ?, is_completed = ?, is_overdue = ? WHERE id = ?;`,
		t.Name, t.CreatedAt, t.Due.Encode(), boolToInt(t.Important), boolToInt(t.Completed), boolToInt(t.Overdue), t.ID)
}

// Delete removes the record matching t's ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, t task.Task) error {
	return s.DeleteByID(ctx, t.ID)
}

// DeleteByID removes a record by ID without loading it.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	return s.exec(ctx, "delete task", `DELETE FROM tasks WHERE id = ?;`, id)
}

// UpdateDueDate changes only the due date of a record.
func (s *Store) UpdateDueDate(ctx context.Context, id int64, due task.DueDate) error {
	return s.exec(ctx, "update due date", `UPDATE tasks SET due_date = ? WHERE id = ?;`, due.Encode(), id)
}

// UpdateImportance changes only the importance flag of a record.
func (s *Store) UpdateImportance(ctx context.Context, id int64, important bool) error {
	return s.exec(ctx, "update importance", `UPDATE tasks SET is_important = ? WHERE id = ?;`, boolToInt(important), id)
}

// UpdateOverdue changes only the cached overdue flag of a record.
func (s *Store) UpdateOverdue(ctx context.Context, id int64, overdue bool) error {
	return s.exec(ctx, "update overdue", `UPDATE tasks SET is_overdue = ? WHERE id = ?;`, boolToInt(overdue), id)
}

// exec runs a write and notifies subscribers when it changed at least one row.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}
	s.publish(ctx)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var t task.Task
	var due string
	var important, completed, overdue int
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &due, &important, &completed, &overdue); err != nil {
		return task.Task{}, err
	}
	t.Due = task.ParseDueDate(due)
	t.Important = important == 1
	t.Completed = completed == 1
	t.Overdue = overdue == 1
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
