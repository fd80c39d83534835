package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/common"
	"github.com/dmitrijs2005/mediagate/internal/dbx"
	"github.com/dmitrijs2005/mediagate/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresLedger stores consumed tokens in the consumed_tokens table over
// dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresLedger struct {
	db dbx.DBTX
}

func NewPostgresLedger(db dbx.DBTX) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Consume inserts the token; a conflicting row means it was already used.
func (l *PostgresLedger) Consume(ctx context.Context, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO consumed_tokens (token, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`
	res, err := l.db.ExecContext(ctx, query, token, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrTokenReused
	}
	return nil
}

func (l *PostgresLedger) Prune(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM consumed_tokens
		WHERE expires_at < $1
	`
	res, err := l.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// sqlOpen is a seam for testing.
var sqlOpen = sql.Open

// OpenPostgres connects to dsn with the pgx driver, pings it and migrates
// the schema. The caller owns the returned *sql.DB.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresLedger, *sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return NewPostgresLedger(db), db, nil
}
