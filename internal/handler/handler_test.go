package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/notify"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/testutil"
)

const (
	adminUsername = "admin"
	adminPassword = "admin111"
)

type testEnv struct {
	t        *testing.T
	cfg      *config.Config
	repo     *repository.Repository
	handler  *Handler
	notifier *notify.Recorder
	server   *httptest.Server
}

// newTestEnv 启动一个使用内存数据库的完整服务，configure 在路由注册之前执行
func newTestEnv(t *testing.T, configure ...func(cfg *config.Config, h *Handler)) *testEnv {
	t.Helper()

	cfg := testutil.NewConfig()
	repo := repository.NewRepository(cfg, testutil.OpenInMemoryDB(t))
	require.NoError(t, seed.EnsureInitialAdmin(context.Background(), cfg, repo))

	sessions := auth.NewSessions(cfg.Session.Secret, cfg.SessionTTL(), auth.NewMemoryRevocationStore())
	recorder := &notify.Recorder{}

	h, err := NewHandler(cfg, repo, auth.NewPasswordAuthenticator(repo), sessions, recorder, metrics.New("test"))
	require.NoError(t, err)
	for _, fn := range configure {
		fn(cfg, h)
	}
	h.RegisterRoutes()

	server := httptest.NewServer(h.Mux)
	t.Cleanup(server.Close)

	return &testEnv{
		t:        t,
		cfg:      cfg,
		repo:     repo,
		handler:  h,
		notifier: recorder,
		server:   server,
	}
}

// newClient 不会自动跟随重定向，以便检查 303 和 Location
func (e *testEnv) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) serverURL() *url.URL {
	u, err := url.Parse(e.server.URL)
	require.NoError(e.t, err)
	return u
}

func (e *testEnv) get(c *http.Client, path string) *http.Response {
	e.t.Helper()

	resp, err := c.Get(e.server.URL + path)
	require.NoError(e.t, err)
	return resp
}

func (e *testEnv) postForm(c *http.Client, path string, values url.Values) *http.Response {
	e.t.Helper()

	resp, err := c.PostForm(e.server.URL+path, values)
	require.NoError(e.t, err)
	return resp
}

func (e *testEnv) login(username, password string) *http.Client {
	e.t.Helper()

	c := e.newClient()
	resp := e.postForm(c, "/login", url.Values{"username": {username}, "password": {password}})
	drain(resp)
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(e.t, "/roster", resp.Header.Get("Location"))

	// 跟随重定向，读掉欢迎提示，避免混进后续断言
	notices := e.notices(c, "/roster")
	require.Len(e.t, notices, 1)
	require.Contains(e.t, notices[0], "Welcome, ")

	return c
}

func (e *testEnv) loginAdmin() *http.Client {
	return e.login(adminUsername, adminPassword)
}

// notices 访问一个页面并返回页面中显示的提示
func (e *testEnv) notices(c *http.Client, path string) []string {
	e.t.Helper()

	resp := e.get(c, path)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	return decodeResponse(e.t, resp).Notices
}

func (e *testEnv) createAccount(username, password string, role domain.Role, configure ...func(a *domain.Account)) *domain.Account {
	e.t.Helper()

	hash, err := auth.HashPassword(password, e.cfg.Auth.BcryptCost)
	require.NoError(e.t, err)

	account := &domain.Account{Username: username, PasswordHash: hash, Role: role}
	for _, fn := range configure {
		fn(account)
	}
	require.NoError(e.t, e.repo.CreateAccount(context.Background(), account))

	return account
}

func (e *testEnv) assignShift(accountID int64, date string, shiftType domain.ShiftType) {
	e.t.Helper()

	d, err := domain.ParseDate(date)
	require.NoError(e.t, err)
	require.NoError(e.t, e.repo.UpsertShift(context.Background(), &domain.Shift{AccountID: accountID, Date: d, Type: shiftType}))
}

func (e *testEnv) accounts() []*domain.Account {
	e.t.Helper()

	accounts, err := e.repo.GetAllAccounts(context.Background())
	require.NoError(e.t, err)
	return accounts
}

func (e *testEnv) shiftsOf(accountID int64) []*domain.Shift {
	e.t.Helper()

	shifts, err := e.repo.GetShiftsByAccountID(context.Background(), accountID)
	require.NoError(e.t, err)
	return shifts
}

func decodeResponse(t *testing.T, resp *http.Response) Response {
	t.Helper()
	defer resp.Body.Close()

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	drain(resp)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name && strings.TrimSpace(c.Value) != "" {
			return true
		}
	}
	return false
}
