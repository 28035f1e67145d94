package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/auctiondesk/pkg/database"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// PostgresOperatorStore implements OperatorStore on PostgreSQL.
type PostgresOperatorStore struct {
	db *database.Database
}

// NewPostgresOperatorStore returns an OperatorStore over db.
func NewPostgresOperatorStore(db *database.Database) *PostgresOperatorStore {
	return &PostgresOperatorStore{db: db}
}

func (s *PostgresOperatorStore) CreateOperator(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO operators (email, password_hash, created_at)
		VALUES ($1, $2, now())`,
		email, passwordHash,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create operator: %w", err)
	}
	return nil
}

func (s *PostgresOperatorStore) FindPasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT password_hash FROM operators WHERE email = $1`, email,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("find operator: %w", err)
	}
	return hash, nil
}

// IsApproved checks the approval list. A deployment that never provisioned
// the approved_operators table gets an open gate rather than a lockout, so
// first-time setups can register their initial operator.
func (s *PostgresOperatorStore) IsApproved(ctx context.Context, email string) (bool, error) {
	var approved bool
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM approved_operators WHERE email = $1)`, email,
	).Scan(&approved)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check approved_operators: %w", err)
	}
	return approved, nil
}
