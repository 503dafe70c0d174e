package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the single-file fallback backend for local runs.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Serialize writers; appends from concurrent sessions contend on the
	// single file otherwise.
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ratings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			rating INTEGER NOT NULL,
			model TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings(user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, r Rating) (Rating, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (user_id, question, answer, rating, model) VALUES (?, ?, ?, ?, ?)`,
		r.UserID, r.Question, r.Answer, r.Rating, r.Model)
	if err != nil {
		return Rating{}, fmt.Errorf("failed to append rating: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Rating{}, err
	}
	r.ID = id
	row := s.db.QueryRowContext(ctx, `SELECT created_at FROM ratings WHERE id = ?`, id)
	if err := row.Scan(&r.CreatedAt); err != nil {
		return Rating{}, err
	}
	return r, nil
}

func (s *SQLiteStore) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildWhere(f, placeholderQuery)
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Average(ctx context.Context, f Filter) (float64, error) {
	where, args := buildWhere(f, placeholderQuery)
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT AVG(rating) FROM ratings`+where, args...).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average ratings: %w", err)
	}
	return avg.Float64, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Rating, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, question, answer, rating, model, created_at FROM ratings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()
	return scanRatings(rows)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
