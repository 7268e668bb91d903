package roster

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

type View string

const (
	ViewWeekly  View = "weekly"
	ViewMonthly View = "monthly"
)

// Params 描述一次班表查询，Explicit 表示请求中是否显式给出了 month 或 year
type Params struct {
	Month    time.Month
	Year     int
	View     View
	Explicit bool
}

// DefaultParams 在请求没有给出 month/year/view 时使用当天所在的年月和周视图
func DefaultParams(today time.Time) Params {
	return Params{
		Month: today.Month(),
		Year:  today.Year(),
		View:  ViewWeekly,
	}
}

// Grid 是 账户 ID -> 日期 -> 班次类型 的稠密映射，没有排班的格子为 domain.ShiftUnassigned
type Grid map[int64]map[time.Time]domain.ShiftType

func (g Grid) Cell(accountID int64, date time.Time) domain.ShiftType {
	return g[accountID][domain.DateOf(date)]
}

type Roster struct {
	Params   Params
	Dates    []time.Time
	Accounts []*domain.Account
	Grid     Grid
}

// DateRange 计算视图覆盖的日期：月视图为整月，周视图为锚点所在的周一开始的七天
func DateRange(p Params, today time.Time) []time.Time {
	if p.View == ViewMonthly {
		first := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
		days := first.AddDate(0, 1, -1).Day()
		return consecutive(first, days)
	}

	anchor := domain.DateOf(today)
	if p.Explicit {
		anchor = time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	}
	// time.Weekday 中周日为 0，这里换算成以周一为起点的偏移
	offset := (int(anchor.Weekday()) + 6) % 7
	return consecutive(anchor.AddDate(0, 0, -offset), 7)
}

func consecutive(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
	}
	return dates
}

// Assemble 先把每个格子初始化为未排班，再用实际的班次覆盖
func Assemble(p Params, dates []time.Time, accounts []*domain.Account, shifts []*domain.Shift) *Roster {
	grid := make(Grid, len(accounts))
	for _, account := range accounts {
		row := make(map[time.Time]domain.ShiftType, len(dates))
		for _, d := range dates {
			row[d] = domain.ShiftUnassigned
		}
		grid[account.ID] = row
	}

	for _, shift := range shifts {
		row, ok := grid[shift.AccountID]
		if !ok {
			continue
		}
		date := domain.DateOf(shift.Date)
		if _, inRange := row[date]; inRange {
			row[date] = shift.Type
		}
	}

	return &Roster{
		Params:   p,
		Dates:    dates,
		Accounts: accounts,
		Grid:     grid,
	}
}

type Store interface {
	GetMembers(ctx context.Context) ([]*domain.Account, error)
	GetShiftsBetween(ctx context.Context, from, to time.Time) ([]*domain.Shift, error)
}

type Builder struct {
	store Store
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

func (b *Builder) Build(ctx context.Context, p Params, today time.Time) (*Roster, error) {
	dates := DateRange(p, today)

	accounts, err := b.store.GetMembers(ctx)
	if err != nil {
		return nil, err
	}

	shifts, err := b.store.GetShiftsBetween(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, err
	}

	return Assemble(p, dates, accounts, shifts), nil
}
