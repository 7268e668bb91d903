package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		// 路由模板要在处理完请求之后才能拿到
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		h.metrics.Observe(r.Method, route, rw.StatusCode, duration)

		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration, "request_id", middleware.GetReqID(r.Context()))
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiration time.Time) {
	cookie := &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    token,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	if h.config.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
	})
}

// auth 校验会话并把当前账户放到 context 中，任何问题都重定向到登录页
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.config.Session.CookieName)
		if err != nil {
			h.redirect(w, r, "/login")
			return
		}

		claims, err := h.sessions.Parse(r.Context(), cookie.Value)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidSession):
				h.clearSessionCookie(w)
				h.redirect(w, r, "/login")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		accountID, _ := claims.AccountID() // Parse 已经校验过
		account, err := h.authenticator.Resolve(r.Context(), accountID)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidSession):
				// 账户已被删除
				h.clearSessionCookie(w)
				h.redirect(w, r, "/login")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, AccountCtxKey, account)
		ctx = context.WithValue(ctx, ClaimsCtxKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin 不返回错误状态码，而是带着提示重定向回班表
func (h *Handler) requireAdmin(notice string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := currentAccount(r)
			if !account.IsAdmin() {
				slog.Warn("非管理员尝试执行管理操作", "username", account.Username, "method", r.Method, "path", r.URL.Path)
				h.redirect(w, r, "/roster", notice)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// member 加载路径参数 id 对应的账户
func (h *Handler) member(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idParam := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			h.notFound(w, r, "Member not found")
			return
		}

		account, err := h.repository.GetAccountByID(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "Member not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), MemberCtxKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
