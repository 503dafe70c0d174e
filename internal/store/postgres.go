package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS ratings (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		rating INT NOT NULL,
		model TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("failed to create ratings table: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings(user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, r Rating) (Rating, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO ratings (user_id, question, answer, rating, model)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		r.UserID, r.Question, r.Answer, r.Rating, r.Model)
	if err := row.Scan(&r.ID, &r.CreatedAt); err != nil {
		return Rating{}, fmt.Errorf("failed to append rating: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildWhere(f, placeholderDollar)
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Average(ctx context.Context, f Filter) (float64, error) {
	where, args := buildWhere(f, placeholderDollar)
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT AVG(rating) FROM ratings`+where, args...).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average ratings: %w", err)
	}
	// NULL on an empty store; the defined neutral value is 0.
	return avg.Float64, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Rating, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, question, answer, rating, model, created_at FROM ratings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()
	return scanRatings(rows)
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func scanRatings(rows *sql.Rows) ([]Rating, error) {
	var out []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ID, &r.UserID, &r.Question, &r.Answer, &r.Rating, &r.Model, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type placeholderStyle int

const (
	placeholderDollar placeholderStyle = iota // $1, $2 (postgres)
	placeholderQuery                          // ?, ? (sqlite)
)

func buildWhere(f Filter, style placeholderStyle) (string, []any) {
	var conds []string
	var args []any
	next := func() string {
		if style == placeholderDollar {
			return fmt.Sprintf("$%d", len(args))
		}
		return "?"
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, "user_id = "+next())
	}
	if f.Model != "" {
		args = append(args, f.Model)
		conds = append(conds, "model = "+next())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
