package handler

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func TestGetMyInfo(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount("alice", "alice-password", domain.RoleMember)
	env.assignShift(alice.ID, "2024-02-29", domain.ShiftNight)
	c := env.login("alice", "alice-password")

	resp := env.get(c, "/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeResponse(t, resp)

	me := body.Data.(map[string]any)["currentUser"].(map[string]any)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "Member", me["role"])
	assert.Nil(t, me["email"])

	shifts := body.Data.(map[string]any)["shifts"].([]any)
	require.Len(t, shifts, 1)
	assert.Equal(t, "Night", shifts[0].(map[string]any)["shiftType"])
}

func TestUpdateMyPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount("alice", "alice-password", domain.RoleMember)
	c := env.login("alice", "alice-password")

	t.Run("wrong current password", func(t *testing.T) {
		requireRedirect(t, env.postForm(c, "/me/password", url.Values{
			"old_password": {"wrong"},
			"new_password": {"new-password"},
		}), "/me")
		assert.Equal(t, []string{"Current password is incorrect"}, env.notices(c, "/me"))
	})

	t.Run("too short", func(t *testing.T) {
		requireRedirect(t, env.postForm(c, "/me/password", url.Values{
			"old_password": {"alice-password"},
			"new_password": {"abc"},
		}), "/me")
		notices := env.notices(c, "/me")
		require.Len(t, notices, 1)
		assert.Contains(t, notices[0], "NewPassword")
	})

	t.Run("too long", func(t *testing.T) {
		for _, tc := range []struct {
			password string
			notice   string
		}{
			{password: strings.Repeat("x", 73), notice: "NewPassword must be a maximum of 72 characters in length"},
			{password: strings.Repeat("密", 30), notice: "Password must be at most 72 bytes"},
		} {
			requireRedirect(t, env.postForm(c, "/me/password", url.Values{
				"old_password": {"alice-password"},
				"new_password": {tc.password},
			}), "/me")
			assert.Equal(t, []string{tc.notice}, env.notices(c, "/me"))
		}
	})

	t.Run("changed", func(t *testing.T) {
		requireRedirect(t, env.postForm(c, "/me/password", url.Values{
			"old_password": {"alice-password"},
			"new_password": {"new-password"},
		}), "/me")
		assert.Equal(t, []string{"Password updated successfully"}, env.notices(c, "/me"))

		env.login("alice", "new-password")
	})
}
