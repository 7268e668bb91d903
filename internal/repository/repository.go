package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateMemberID = errors.New("member id already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.QueryTimeout())
}

func (r *Repository) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.TransactionTimeout())
}

// translateError 把不同驱动的唯一约束冲突统一成仓储层的错误
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "accounts_username_key":
			return ErrDuplicateUsername
		case "accounts_member_id_key":
			return ErrDuplicateMemberID
		case "accounts_email_key":
			return ErrDuplicateEmail
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		// SQLite 的错误信息形如 "UNIQUE constraint failed: accounts.email"
		msg := liteErr.Error()
		switch {
		case strings.Contains(msg, "accounts.username"):
			return ErrDuplicateUsername
		case strings.Contains(msg, "accounts.member_id"):
			return ErrDuplicateMemberID
		case strings.Contains(msg, "accounts.email"):
			return ErrDuplicateEmail
		}
	}

	return err
}
