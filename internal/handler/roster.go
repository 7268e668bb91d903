package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/roster"
)

type rosterRow struct {
	Account *domain.Account    `json:"account"`
	Shifts  []domain.ShiftType `json:"shifts"`
}

func (h *Handler) parseRosterParams(r *http.Request, today time.Time) (roster.Params, error) {
	q := r.URL.Query()
	p := roster.DefaultParams(today)

	if q.Has("view") {
		switch view := roster.View(q.Get("view")); view {
		case roster.ViewWeekly, roster.ViewMonthly:
			p.View = view
		default:
			return p, errors.New("view must be one of [weekly monthly]")
		}
	}

	if q.Has("month") {
		month, err := strconv.Atoi(q.Get("month"))
		if err != nil || month < 1 || month > 12 {
			return p, errors.New("month must be an integer between 1 and 12")
		}
		p.Month = time.Month(month)
		p.Explicit = true
	}

	if q.Has("year") {
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil || year < 1 || year > 9999 {
			return p, errors.New("year must be an integer between 1 and 9999")
		}
		p.Year = year
		p.Explicit = true
	}

	return p, nil
}

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	today := h.now().In(h.location)

	p, err := h.parseRosterParams(r, today)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.roster.Build(r.Context(), p, today)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	dates := make([]string, len(result.Dates))
	for i, d := range result.Dates {
		dates[i] = d.Format(time.DateOnly)
	}

	rows := make([]rosterRow, 0, len(result.Accounts))
	for _, account := range result.Accounts {
		row := rosterRow{Account: account, Shifts: make([]domain.ShiftType, len(result.Dates))}
		for i, d := range result.Dates {
			row.Shifts[i] = result.Grid.Cell(account.ID, d)
		}
		rows = append(rows, row)
	}

	h.view(w, r, "Roster", map[string]any{
		"currentUser": currentAccount(r),
		"view":        p.View,
		"month":       int(p.Month),
		"year":        p.Year,
		"dates":       dates,
		"rows":        rows,
		"shiftTypes":  domain.ShiftTypes,
	})
}
