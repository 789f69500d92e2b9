package web

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zephyrtronium/arith/internal/auth"
	"github.com/zephyrtronium/arith/internal/calc"
	"github.com/zephyrtronium/arith/internal/logging"
	"github.com/zephyrtronium/arith/internal/store"
)

type testEnv struct {
	ts     *httptest.Server
	client *http.Client
	store  *store.Store
	auth   *auth.Authenticator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	a, err := auth.New(st, bcrypt.MinCost)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	svc, err := calc.New(st, calc.Config{CacheSize: 16, MaxExprLen: 100}, reg, logging.Discard())
	require.NoError(t, err)
	srv, err := NewServer(Config{
		Calc:       svc,
		Auth:       a,
		Sessions:   auth.NewSessions(nil, nil),
		Users:      st,
		Metrics:    reg,
		MaxExprLen: 100,
		Log:        logging.Discard(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{ts: ts, client: &http.Client{Jar: jar}, store: st, auth: a}
}

// read returns the final URL path and the unescaped body of a response.
func read(t *testing.T, resp *http.Response, err error) (string, string) {
	t.Helper()
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.Request.URL.Path, html.UnescapeString(string(b))
}

func (e *testEnv) get(t *testing.T, path string) (string, string) {
	t.Helper()
	resp, err := e.client.Get(e.ts.URL + path)
	return read(t, resp, err)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (string, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.ts.URL+path, form)
	return read(t, resp, err)
}

func (e *testEnv) user(t *testing.T, email, password string) store.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), email, password)
	require.NoError(t, err)
	return u
}

func (e *testEnv) login(t *testing.T, email, password string) (string, string) {
	t.Helper()
	return e.post(t, "/login", url.Values{"email": {email}, "password": {password}})
}

func TestIndexRedirectsToLogin(t *testing.T) {
	e := newTestEnv(t)
	path, body := e.get(t, "/")
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "Login")
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.user(t, "test@example.com", "test")
	path, body := e.login(t, "test@example.com", "test")
	assert.Equal(t, "/dashboard", path)
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "test@example.com")
}

func TestLoginBadPassword(t *testing.T) {
	e := newTestEnv(t)
	e.user(t, "test@example.com", "test")
	path, body := e.login(t, "test@example.com", "nope")
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "Invalid email or password")

	// The flash is shown once.
	_, body = e.get(t, "/login")
	assert.NotContains(t, body, "Invalid email or password")
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	e.user(t, "logout@example.com", "test")
	e.login(t, "logout@example.com", "test")

	path, body := e.get(t, "/logout")
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "Login")

	path, _ = e.get(t, "/dashboard")
	assert.Equal(t, "/login", path)
}

func TestRequireLogin(t *testing.T) {
	e := newTestEnv(t)
	path, _ := e.get(t, "/dashboard")
	assert.Equal(t, "/login", path)
	path, _ = e.post(t, "/submit_expression", url.Values{"expression": {"2+2"}})
	assert.Equal(t, "/login", path)
	path, _ = e.get(t, "/logout")
	assert.Equal(t, "/login", path)
}

func TestExpressionEvaluation(t *testing.T) {
	e := newTestEnv(t)
	e.user(t, "test_user@example.com", "test")
	e.login(t, "test_user@example.com", "test")

	path, body := e.post(t, "/submit_expression", url.Values{"expression": {"2+2"}})
	assert.Equal(t, "/dashboard", path)
	assert.Contains(t, body, "2+2 = 4")

	_, body = e.post(t, "/submit_expression", url.Values{"expression": {"7/2"}})
	assert.Contains(t, body, "2+2 = 4")
	assert.Contains(t, body, "7/2 = 3.5")
	assert.Less(t, strings.Index(body, "2+2 = 4"), strings.Index(body, "7/2 = 3.5"))
}

func TestExpressionErrors(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "errors@example.com", "test")
	e.login(t, "errors@example.com", "test")

	cases := map[string]string{
		"5/0":                    "division by zero",
		"(1+2":                   "expected character ')'",
		"2+x":                    "invalid character 'x'",
		"":                       "unexpected end of input",
		strings.Repeat("1", 101): "Expression too long",
	}
	for src, msg := range cases {
		path, body := e.post(t, "/submit_expression", url.Values{"expression": {src}})
		assert.Equal(t, "/dashboard", path, src)
		assert.Contains(t, body, msg, src)
		assert.Contains(t, body, "No expressions yet.", src)
	}
	h, err := e.store.History(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestUserHistory(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "history_user@example.com", "test")
	other := e.user(t, "other@example.com", "test")
	_, err := e.store.AddExpression(context.Background(), u.ID, "3+3", "6")
	require.NoError(t, err)
	_, err = e.store.AddExpression(context.Background(), other.ID, "9*9", "81")
	require.NoError(t, err)

	e.login(t, "history_user@example.com", "test")
	_, body := e.get(t, "/dashboard")
	assert.Contains(t, body, "3+3 = 6")
	assert.NotContains(t, body, "9*9 = 81")
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)
	form := url.Values{"email": {"new@example.com"}, "password": {"secret"}}
	path, body := e.post(t, "/register", form)
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "Registration successful")

	path, body = e.post(t, "/register", form)
	assert.Equal(t, "/register", path)
	assert.Contains(t, body, "already registered")

	path, body = e.post(t, "/register", url.Values{"email": {"bad"}, "password": {"x"}})
	assert.Equal(t, "/register", path)
	assert.Contains(t, body, "Invalid email address")

	path, _ = e.login(t, "new@example.com", "secret")
	assert.Equal(t, "/dashboard", path)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp, err := e.client.Get(e.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var v map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "ok", v["status"])

	require.NoError(t, e.store.Close())
	resp, err = e.client.Get(e.ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	e := newTestEnv(t)
	e.user(t, "m@example.com", "test")
	e.login(t, "m@example.com", "test")
	e.post(t, "/submit_expression", url.Values{"expression": {"2+2"}})
	e.post(t, "/submit_expression", url.Values{"expression": {"2+2"}})
	e.post(t, "/submit_expression", url.Values{"expression": {"1/0"}})

	_, body := e.get(t, "/metrics")
	assert.Contains(t, body, `arith_evaluations_total{outcome="ok"} 2`)
	assert.Contains(t, body, `arith_evaluations_total{outcome="division_by_zero"} 1`)
	assert.Contains(t, body, `arith_cache_hits_total 1`)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Invalid email", capitalize("invalid email"))
	assert.Equal(t, "5: division by zero", capitalize("5: division by zero"))
	assert.Equal(t, "", capitalize(""))
}
