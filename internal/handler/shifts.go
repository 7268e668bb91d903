package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    int64  `schema:"user_id" validate:"required,gt=0"`
		Date      string `schema:"date" validate:"required"`
		ShiftType string `schema:"shift_type" validate:"required"`
	}

	if err := h.readForm(r, &req); err != nil {
		h.redirect(w, r, "/roster", "Invalid member")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.redirect(w, r, "/roster", h.translateError(err))
		return
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		h.redirect(w, r, "/roster", "Invalid date, expected YYYY-MM-DD")
		return
	}

	shiftType := domain.ShiftType(req.ShiftType)
	if !shiftType.Valid() {
		h.redirect(w, r, "/roster", "Unknown shift type")
		return
	}

	account, err := h.repository.GetAccountByID(r.Context(), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.redirect(w, r, "/roster", "Member not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	shift := &domain.Shift{
		AccountID: account.ID,
		Date:      date,
		Type:      shiftType,
	}
	if err := h.repository.UpsertShift(r.Context(), shift); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if email, ok := account.Email.Get(); ok {
		h.notify(r.Context(), domain.MailMessage{
			Type: domain.MailTypeShiftAssigned,
			To:   email,
			Data: domain.ShiftAssignedMailData{
				FullName:  account.DisplayName(),
				Date:      shift.Date.Format(time.DateOnly),
				ShiftType: shift.Type,
			},
		})
	}

	h.redirect(w, r, "/roster")
}

// notify 发送失败只记录日志，数据已经写入，不能因为通知失败而让请求失败
func (h *Handler) notify(ctx context.Context, msg domain.MailMessage) {
	if err := h.notifier.Notify(ctx, msg); err != nil {
		slog.Warn("无法发送通知", "type", msg.Type, "to", msg.To, "error", err)
	}
}
