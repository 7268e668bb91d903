package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
}

// readForm 解析 application/x-www-form-urlencoded 请求体，未知字段（例如 csrf token）会被忽略
func (h *Handler) readForm(r *http.Request, v any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return h.decoder.Decode(v, r.PostForm)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Notices []string `json:"notices,omitempty"`
	Data    any      `json:"data"`
}

// view 用于所有 GET 页面，会带上上一次重定向留下的提示以及 csrf token
func (h *Handler) view(w http.ResponseWriter, r *http.Request, msg string, data map[string]any) {
	notices := h.popFlash(w, r)
	if data == nil {
		data = map[string]any{}
	}
	data["csrfToken"] = csrf.Token(r)

	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Notices: notices,
		Data:    data,
	})
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusNotFound, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.writeJSON(w, r, http.StatusBadRequest, Response{
		Success: false,
		Message: h.translateError(err),
		Data:    nil,
	})
}

// translateError 只取第一个校验错误，使提示更简洁
func (h *Handler) translateError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return validationErrors[0].Translate(h.translator)
	}
	return err.Error()
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "Internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
