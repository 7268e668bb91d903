package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// UpsertShift 同一账户同一天只保留一条记录，已存在时覆盖班次类型
func (r *Repository) UpsertShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (account_id, shift_date, shift_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, shift_date) DO UPDATE SET shift_type = excluded.shift_type
		RETURNING id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift.Date = domain.DateOf(shift.Date)

	args := []any{shift.AccountID, shift.Date.Format(time.DateOnly), shift.Type}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.ID); err != nil {
		return err
	}

	return nil
}

// GetShiftsBetween 返回日期落在 [from, to] 闭区间内的所有班次
func (r *Repository) GetShiftsBetween(ctx context.Context, from, to time.Time) ([]*domain.Shift, error) {
	query := `
		SELECT id, account_id, shift_date, shift_type
		FROM shifts
		WHERE shift_date >= $1 AND shift_date <= $2
		ORDER BY shift_date, account_id
	`
	return r.listShifts(ctx, query, from.Format(time.DateOnly), to.Format(time.DateOnly))
}

func (r *Repository) GetShiftsByAccountID(ctx context.Context, accountID int64) ([]*domain.Shift, error) {
	query := `
		SELECT id, account_id, shift_date, shift_type
		FROM shifts
		WHERE account_id = $1
		ORDER BY shift_date
	`
	return r.listShifts(ctx, query, accountID)
}

func (r *Repository) listShifts(ctx context.Context, query string, args ...any) ([]*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift := &domain.Shift{}
		dst := []any{&shift.ID, &shift.AccountID, &shift.Date, &shift.Type}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shift.Date = domain.DateOf(shift.Date)
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}
