package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn and creates the schema when missing.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS projection_history (
		round INTEGER NOT NULL,
		athlete_id INTEGER NOT NULL,
		nickname VARCHAR(200) NOT NULL,
		projected DOUBLE PRECISION NOT NULL,
		real_points DOUBLE PRECISION,
		recorded_at TIMESTAMP NOT NULL DEFAULT NOW(),
		reconciled_at TIMESTAMP,
		PRIMARY KEY (round, athlete_id)
	);

	CREATE INDEX IF NOT EXISTS idx_projection_history_reconciled ON projection_history(round DESC) WHERE real_points IS NOT NULL;
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// RecordProjections implements Store.
func (s *PostgresStore) RecordProjections(ctx context.Context, round int, projections []Projection) error {
	if round <= 0 {
		return ErrInvalidRound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO projection_history (round, athlete_id, nickname, projected)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round, athlete_id)
		DO UPDATE SET nickname = EXCLUDED.nickname, projected = EXCLUDED.projected, recorded_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range projections {
		if _, err := stmt.ExecContext(ctx, round, p.AthleteID, p.Nickname, p.Projected); err != nil {
			return fmt.Errorf("upsert projection %d: %w", p.AthleteID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecordResults implements Store.
func (s *PostgresStore) RecordResults(ctx context.Context, round int, points map[int]float64) error {
	if round <= 0 {
		return ErrInvalidRound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE projection_history SET real_points = $3, reconciled_at = NOW()
		WHERE round = $1 AND athlete_id = $2`)
	if err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for id, pts := range points {
		if _, err := stmt.ExecContext(ctx, round, id, pts); err != nil {
			return fmt.Errorf("update result %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Accuracy implements Store.
func (s *PostgresStore) Accuracy(ctx context.Context, round int) ([]Row, error) {
	if round <= 0 {
		var latest sql.NullInt64
		err := s.db.QueryRowContext(ctx,
			`SELECT MAX(round) FROM projection_history WHERE real_points IS NOT NULL`).Scan(&latest)
		if err != nil {
			return nil, fmt.Errorf("latest round: %w", err)
		}
		if !latest.Valid {
			return nil, nil
		}
		round = int(latest.Int64)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT athlete_id, nickname, projected, real_points
		FROM projection_history
		WHERE round = $1 AND real_points IS NOT NULL`, round)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var (
			p      = Projection{Round: round}
			scored float64
		)
		if err := rows.Scan(&p.AthleteID, &p.Nickname, &p.Projected, &scored); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, newRow(p, scored))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	SortRows(out)
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
