package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpsertShift_OverwritesSameDay(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	alice := createAccount(t, repo, "alice", domain.RoleMember)

	first := &domain.Shift{AccountID: alice.ID, Date: date(2024, 2, 5), Type: domain.ShiftMorning}
	require.NoError(t, repo.UpsertShift(ctx, first))

	second := &domain.Shift{AccountID: alice.ID, Date: date(2024, 2, 5), Type: domain.ShiftNight}
	require.NoError(t, repo.UpsertShift(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shifts WHERE account_id = $1`, alice.ID).Scan(&count))
	assert.Equal(t, 1, count)

	shifts, err := repo.GetShiftsByAccountID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, domain.ShiftNight, shifts[0].Type)
	assert.True(t, shifts[0].Date.Equal(date(2024, 2, 5)))
}

func TestUpsertShift_NormalizesTimeOfDay(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	alice := createAccount(t, repo, "alice", domain.RoleMember)

	local := time.Date(2024, 3, 1, 18, 30, 0, 0, time.FixedZone("UTC+8", 8*3600))
	require.NoError(t, repo.UpsertShift(ctx, &domain.Shift{AccountID: alice.ID, Date: local, Type: domain.ShiftOff}))

	shifts, err := repo.GetShiftsBetween(ctx, date(2024, 3, 1), date(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, date(2024, 3, 1), shifts[0].Date)
}

func TestUpsertShift_UnknownAccount(t *testing.T) {
	repo, _ := newTestRepository(t)

	err := repo.UpsertShift(context.Background(), &domain.Shift{AccountID: 999, Date: date(2024, 2, 5), Type: domain.ShiftMorning})
	assert.Error(t, err)
}

func TestGetShiftsBetween_InclusiveRange(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	alice := createAccount(t, repo, "alice", domain.RoleMember)

	for _, d := range []time.Time{date(2024, 1, 31), date(2024, 2, 1), date(2024, 2, 15), date(2024, 2, 29), date(2024, 3, 1)} {
		require.NoError(t, repo.UpsertShift(ctx, &domain.Shift{AccountID: alice.ID, Date: d, Type: domain.ShiftAfternoon}))
	}

	shifts, err := repo.GetShiftsBetween(ctx, date(2024, 2, 1), date(2024, 2, 29))
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, date(2024, 2, 1), shifts[0].Date)
	assert.Equal(t, date(2024, 2, 29), shifts[2].Date)
}

func TestDeleteAccount_RemovesShifts(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	alice := createAccount(t, repo, "alice", domain.RoleMember)
	bob := createAccount(t, repo, "bob", domain.RoleMember)

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.UpsertShift(ctx, &domain.Shift{AccountID: alice.ID, Date: date(2024, 2, i), Type: domain.ShiftMorning}))
	}
	require.NoError(t, repo.UpsertShift(ctx, &domain.Shift{AccountID: bob.ID, Date: date(2024, 2, 1), Type: domain.ShiftNight}))

	require.NoError(t, repo.DeleteAccount(ctx, alice.ID))

	var orphans int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shifts WHERE account_id = $1`, alice.ID).Scan(&orphans))
	assert.Zero(t, orphans)

	remaining, err := repo.GetShiftsByAccountID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
