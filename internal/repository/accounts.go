package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

const accountColumns = `id, username, password_hash, role, full_name, member_id, email, created_at`

func scanAccount(row interface{ Scan(dest ...any) error }) (*domain.Account, error) {
	account := &domain.Account{}
	dst := []any{
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Role,
		&account.FullName,
		&account.MemberID,
		&account.Email,
		&account.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanAccount(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanAccount(r.dbpool.QueryRowContext(ctx, query, username))
}

func (r *Repository) GetAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`
	return r.listAccounts(ctx, query)
}

// GetMembers 返回所有非管理员账户，班表只展示这些账户
func (r *Repository) GetMembers(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role <> $1 ORDER BY id`
	return r.listAccounts(ctx, query, domain.RoleAdmin)
}

func (r *Repository) listAccounts(ctx context.Context, query string, args ...any) ([]*domain.Account, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (username, password_hash, role, full_name, member_id, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if account.Role == "" {
		account.Role = domain.RoleMember
	}
	account.CreatedAt = time.Now().UTC().Truncate(time.Second)

	args := []any{account.Username, account.PasswordHash, account.Role, account.FullName, account.MemberID, account.Email, account.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&account.ID); err != nil {
		return translateError(err)
	}

	return nil
}

// UpdateAccount 覆盖除 id 和创建时间以外的所有字段，账户不存在时返回 sql.ErrNoRows
func (r *Repository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET
			username = $1,
			password_hash = $2,
			role = $3,
			full_name = $4,
			member_id = $5,
			email = $6
		WHERE id = $7
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{account.Username, account.PasswordHash, account.Role, account.FullName, account.MemberID, account.Email, account.ID}
	result, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// DeleteAccount 在同一个事务中先删除该账户的所有班次再删除账户本身
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shifts WHERE account_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

func (r *Repository) CheckUsernameIfExists(ctx context.Context, username string, exceptID int64) (bool, error) {
	return r.existsExcept(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 AND id <> $2)`, username, exceptID)
}

func (r *Repository) CheckMemberIDIfExists(ctx context.Context, memberID string, exceptID int64) (bool, error) {
	return r.existsExcept(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE member_id = $1 AND id <> $2)`, memberID, exceptID)
}

func (r *Repository) CheckEmailIfExists(ctx context.Context, email string, exceptID int64) (bool, error) {
	return r.existsExcept(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1 AND id <> $2)`, email, exceptID)
}

func (r *Repository) existsExcept(ctx context.Context, query string, value any, exceptID int64) (bool, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	isExists := false
	if err := r.dbpool.QueryRowContext(ctx, query, value, exceptID).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}
