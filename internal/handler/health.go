package handler

import "net/http"

// Health 不检查任何依赖，只要进程能处理请求就返回成功
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}
