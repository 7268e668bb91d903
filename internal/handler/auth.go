package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
)

const invalidCredentialsNotice = "Invalid username or password"

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, "Login", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `schema:"username" validate:"required"`
		Password string `schema:"password" validate:"required"`
	}

	// 任何失败都只给出同一个提示，不暴露用户名是否存在
	if err := h.readForm(r, &req); err != nil {
		h.errorResponse(w, r, invalidCredentialsNotice)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorResponse(w, r, invalidCredentialsNotice)
		return
	}

	account, err := h.authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			slog.Warn("登录失败", "username", req.Username, "ip", r.RemoteAddr)
			h.errorResponse(w, r, invalidCredentialsNotice)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	token, expiration, err := h.sessions.Issue(account)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.setSessionCookie(w, token, expiration)
	h.redirect(w, r, "/roster", "Welcome, "+account.DisplayName())
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), currentClaims(r)); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.clearSessionCookie(w)
	h.redirect(w, r, "/login", "You have been logged out")
}
