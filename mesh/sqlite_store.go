package mesh

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const plansSchema = `
CREATE TABLE IF NOT EXISTS plans (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    created_at TEXT NOT NULL,
    data       BLOB NOT NULL
)`

// createdAtLayout is fixed width so created_at sorts chronologically as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLitePlanStore persists plans as JSON documents in a SQLite table.
type SQLitePlanStore struct {
	db *sql.DB
}

// OpenSQLitePlanStore opens (creating if needed) the database at path.
func OpenSQLitePlanStore(path string) (*SQLitePlanStore, error) {
	if path == "" {
		path = "plans.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(plansSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating plans table: %w", err)
	}
	return &SQLitePlanStore{db: db}, nil
}

func (s *SQLitePlanStore) Save(ctx context.Context, plan *FloorPlan) error {
	if plan == nil {
		return fmt.Errorf("save plan: %w", ErrMissingInput)
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO plans (id, title, created_at, data)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET title = excluded.title, created_at = excluded.created_at, data = excluded.data
    `, plan.ID, plan.Title, plan.CreatedAt.UTC().Format(createdAtLayout), data)
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}
	return nil
}

func (s *SQLitePlanStore) Get(ctx context.Context, id string) (*FloorPlan, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM plans WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
		}
		return nil, fmt.Errorf("loading plan %s: %w", id, err)
	}
	return DecodeJSON(data)
}

// List returns plans newest first.
func (s *SQLitePlanStore) List(ctx context.Context) ([]*FloorPlan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var plans []*FloorPlan
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		plan, err := DecodeJSON(data)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return plans, nil
}

func (s *SQLitePlanStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return nil
}

func (s *SQLitePlanStore) Close() error {
	return s.db.Close()
}
