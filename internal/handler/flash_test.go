package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func TestFlash_KeepsLatestNotices(t *testing.T) {
	env := newTestEnv(t)
	h := env.handler

	var cookie *http.Cookie
	for i := 1; i <= 8; i++ {
		r := httptest.NewRequest(http.MethodPost, "/assign_shift", nil)
		if cookie != nil {
			r.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		h.addFlash(w, r, fmt.Sprintf("notice %d", i))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie = cookies[0]
	}

	r := httptest.NewRequest(http.MethodGet, "/roster", nil)
	r.AddCookie(cookie)
	assert.Equal(t, []string{"notice 4", "notice 5", "notice 6", "notice 7", "notice 8"}, h.popFlash(httptest.NewRecorder(), r))
}

func TestFlash_PoppedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount("alice", "alice-password", domain.RoleMember)
	c := env.login("alice", "alice-password")

	for i := 0; i < 8; i++ {
		requireRedirect(t, env.postForm(c, "/assign_shift", nil), "/roster")
	}

	assert.Len(t, env.notices(c, "/roster"), maxFlashNotices)
	assert.Empty(t, env.notices(c, "/roster"))
}
