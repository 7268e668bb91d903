package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const (
	flashCookieName = "__shift_roster_flash"
	// 只保留最近的几条提示，避免 cookie 超过浏览器的大小限制
	maxFlashNotices = 5
)

// redirect 使用 303，使浏览器在表单提交之后用 GET 访问目标页面，notices 会在目标页面中显示
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string, notices ...string) {
	if len(notices) > 0 {
		h.addFlash(w, r, notices...)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// addFlash 保留请求中还没有显示过的提示
func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, notices ...string) {
	pending := append(readFlash(r), notices...)
	if len(pending) > maxFlashNotices {
		pending = pending[len(pending)-maxFlashNotices:]
	}

	data, err := json.Marshal(pending)
	if err != nil {
		h.logInternalServerError(r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) []string {
	notices := readFlash(r)
	if len(notices) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
	return notices
}

func readFlash(r *http.Request) []string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var notices []string
	if err := json.Unmarshal(data, &notices); err != nil {
		return nil
	}
	return notices
}
