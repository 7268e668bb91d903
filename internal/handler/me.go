package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := currentAccount(r)

	shifts, err := h.repository.GetShiftsByAccountID(r.Context(), myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.view(w, r, "Profile", map[string]any{
		"currentUser": myInfo,
		"shifts":      shifts,
	})
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := *currentAccount(r)

	var req struct {
		OldPassword string `schema:"old_password" validate:"required"`
		NewPassword string `schema:"new_password" validate:"required,min=6,max=72"`
	}

	if err := h.readForm(r, &req); err != nil {
		h.redirect(w, r, "/me", h.translateError(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.redirect(w, r, "/me", h.translateError(err))
		return
	}

	if !auth.CheckPassword(myInfo.PasswordHash, req.OldPassword) {
		h.redirect(w, r, "/me", "Current password is incorrect")
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword, h.config.Auth.BcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			h.redirect(w, r, "/me", passwordTooLongNotice)
			return
		}
		h.internalServerError(w, r, err)
		return
	}
	myInfo.PasswordHash = passwordHash

	if err := h.repository.UpdateAccount(r.Context(), &myInfo); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.redirect(w, r, "/login")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.redirect(w, r, "/me", "Password updated successfully")
}
