package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func TestAssignShift_Upsert(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount("alice", "alice-password", domain.RoleMember, func(a *domain.Account) {
		a.Email = domain.Some("alice@example.com")
	})
	c := env.loginAdmin()

	for _, shiftType := range []string{"Morning", "Night"} {
		resp := env.postForm(c, "/assign_shift", url.Values{
			"user_id":    {strconv.FormatInt(alice.ID, 10)},
			"date":       {"2024-02-29"},
			"shift_type": {shiftType},
		})
		requireRedirect(t, resp, "/roster")
	}

	shifts := env.shiftsOf(alice.ID)
	require.Len(t, shifts, 1)
	assert.Equal(t, domain.ShiftNight, shifts[0].Type)
	assert.Equal(t, "2024-02-29", shifts[0].Date.Format("2006-01-02"))

	assert.Equal(t, []string{domain.MailTypeShiftAssigned, domain.MailTypeShiftAssigned}, env.notifier.Types())
	assert.Equal(t, "alice@example.com", env.notifier.Messages[1].To)
}

func TestAssignShift_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount("alice", "alice-password", domain.RoleMember)
	c := env.loginAdmin()
	aliceID := strconv.FormatInt(alice.ID, 10)

	testCases := []struct {
		name   string
		form   url.Values
		notice string
	}{
		{
			name:   "malformed date",
			form:   url.Values{"user_id": {aliceID}, "date": {"29/02/2024"}, "shift_type": {"Morning"}},
			notice: "Invalid date, expected YYYY-MM-DD",
		},
		{
			name:   "impossible date",
			form:   url.Values{"user_id": {aliceID}, "date": {"2023-02-29"}, "shift_type": {"Morning"}},
			notice: "Invalid date, expected YYYY-MM-DD",
		},
		{
			name:   "unknown shift type",
			form:   url.Values{"user_id": {aliceID}, "date": {"2024-02-29"}, "shift_type": {"Evening"}},
			notice: "Unknown shift type",
		},
		{
			name:   "unknown account",
			form:   url.Values{"user_id": {"9999"}, "date": {"2024-02-29"}, "shift_type": {"Morning"}},
			notice: "Member not found",
		},
		{
			name:   "non numeric account",
			form:   url.Values{"user_id": {"abc"}, "date": {"2024-02-29"}, "shift_type": {"Morning"}},
			notice: "Invalid member",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			requireRedirect(t, env.postForm(c, "/assign_shift", tc.form), "/roster")
			assert.Equal(t, []string{tc.notice}, env.notices(c, "/roster"))
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		requireRedirect(t, env.postForm(c, "/assign_shift", url.Values{"user_id": {aliceID}}), "/roster")
		notices := env.notices(c, "/roster")
		require.Len(t, notices, 1)
		assert.Contains(t, notices[0], "required")
	})

	assert.Empty(t, env.shiftsOf(alice.ID))
	assert.Empty(t, env.notifier.Types())
}

func TestAdminEndpoints_DeniedForMembers(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount("alice", "alice-password", domain.RoleMember)
	bob := env.createAccount("bob", "bob-password", domain.RoleMember)
	env.assignShift(bob.ID, "2024-02-01", domain.ShiftMorning)
	bobID := strconv.FormatInt(bob.ID, 10)

	c := env.login("alice", "alice-password")
	accountsBefore := env.accounts()

	testCases := []struct {
		name   string
		method string
		path   string
		form   url.Values
		notice string
	}{
		{
			name:   "assign shift",
			method: http.MethodPost,
			path:   "/assign_shift",
			form:   url.Values{"user_id": {bobID}, "date": {"2024-02-01"}, "shift_type": {"Night"}},
			notice: "Only admins can assign shifts",
		},
		{
			name:   "team",
			method: http.MethodGet,
			path:   "/team",
			notice: "Only admins can manage team",
		},
		{
			name:   "add member",
			method: http.MethodPost,
			path:   "/add_member",
			form:   url.Values{"username": {"mallory"}, "password": {"x"}, "role": {"Admin"}},
			notice: "Only admins can add members",
		},
		{
			name:   "edit member",
			method: http.MethodPost,
			path:   "/edit_member/" + bobID,
			form:   url.Values{"username": {"bobby"}, "role": {"Admin"}, "password": {"hijacked"}},
			notice: "Only admins can edit members",
		},
		{
			name:   "edit unknown member",
			method: http.MethodPost,
			path:   "/edit_member/9999",
			form:   url.Values{"username": {"x"}, "role": {"Member"}},
			notice: "Only admins can edit members",
		},
		{
			name:   "delete member",
			method: http.MethodPost,
			path:   "/delete_member/" + bobID,
			notice: "Only admins can delete members",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var resp *http.Response
			if tc.method == http.MethodGet {
				resp = env.get(c, tc.path)
			} else {
				resp = env.postForm(c, tc.path, tc.form)
			}
			requireRedirect(t, resp, "/roster")
			assert.Equal(t, []string{tc.notice}, env.notices(c, "/roster"))
		})
	}

	assert.Equal(t, accountsBefore, env.accounts())
	shifts := env.shiftsOf(bob.ID)
	require.Len(t, shifts, 1)
	assert.Equal(t, domain.ShiftMorning, shifts[0].Type)
	assert.Empty(t, env.notifier.Types())
}
