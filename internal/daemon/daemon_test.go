package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/grdesk/internal/api"
	"git.home.luguber.info/inful/grdesk/internal/config"
	"git.home.luguber.info/inful/grdesk/internal/modules/common"
	"git.home.luguber.info/inful/grdesk/internal/modules/stuff"
	"git.home.luguber.info/inful/grdesk/internal/receipts"
)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Journal.Path = filepath.Join(dir, "journal.db")
	cfg.Prefs.Path = filepath.Join(dir, "prefs.json")
	cfg.Locale = "en"
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// run starts d and returns a function that stops it.
func run(t *testing.T, d *Daemon) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	require.Eventually(t, func() bool { return d.GetStatus() == StatusRunning }, 5*time.Second, 10*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		require.NoError(t, d.Stop(stopCtx))
		assert.Equal(t, StatusStopped, d.GetStatus())
	}
}

func call(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, rd))
	return w
}

func TestDaemonServesAndRestoresFromJournal(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	d, err := New(cfg, Options{Logger: discard()})
	require.NoError(t, err)
	stop := run(t, d)

	h := d.Handler()
	w := call(t, h, http.MethodPost, "/actions", map[string]any{
		"type":    stuff.ActionSetEmployees,
		"payload": []stuff.Employee{{ID: 7, Name: "Ivanova"}},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	w = call(t, h, http.MethodPost, "/actions", map[string]any{"type": common.ActionSetCurrentEmployee, "payload": 7})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	created := time.Now().Add(-time.Hour)
	w = call(t, h, http.MethodPost, "/goods-receipts/operations", api.SubmitRequest{Values: receipts.FormValues{
		MixedAgreement: &receipts.MixedAgreement{ContractorID: 10, AgreementID: 3},
		CreateDate:     &created,
		Worker:         &stuff.Employee{ID: 7},
		Creator:        &stuff.Employee{ID: 7},
		SupNumber:      "SHIP-1",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "grdesk_dispatch_results_total")

	stop()

	// A second daemon over the same journal rebuilds the same slices.
	d2, err := New(testConfig(t, dir), Options{Logger: discard()})
	require.NoError(t, err)
	stop2 := run(t, d2)
	defer stop2()

	state := d2.Store().GetState()
	assert.Equal(t, int64(7), common.SelectCurrentEmployeeID(state))
	ops := receipts.Slice.Select(state)
	assert.Equal(t, 1, ops.Total)
	assert.False(t, ops.Creating)
	require.Len(t, ops.ByIDs, 1)

	// Restoring activated the feature, which scheduled the status rules job.
	assert.Eventually(t, func() bool {
		_, ok := receipts.SelectFinalRule(d2.Store().GetState())
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDaemonWithoutJournal(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Journal.Path = ""
	cfg.Prefs.Path = ""
	cfg.Metrics.Enabled = false

	d, err := New(cfg, Options{Logger: discard()})
	require.NoError(t, err)
	stop := run(t, d)
	defer stop()

	h := d.Handler()
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/goods-receipts/preferences/create-new", nil).Code)
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/goods-receipts/draft", nil).Code)
}

func TestStartTwiceFails(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	d, err := New(cfg, Options{Logger: discard()})
	require.NoError(t, err)
	stop := run(t, d)
	defer stop()

	require.Error(t, d.Start(context.Background()))
}

func TestReloadConfigAdjustsLevel(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	var level slog.LevelVar
	d, err := New(cfg, Options{Logger: discard(), Level: &level})
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Stop(context.Background())) }()

	next := *cfg
	next.Logging.Level = config.LogLevelDebug
	d.ReloadConfig(&next)

	assert.Equal(t, slog.LevelDebug, level.Level())
	assert.Same(t, &next, d.GetConfig())
}

func TestReloadConfigPinnedLevel(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	var level slog.LevelVar
	level.Set(slog.LevelDebug)
	d, err := New(cfg, Options{Logger: discard(), Level: &level, PinLevel: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Stop(context.Background())) }()

	next := *cfg
	next.Logging.Level = config.LogLevelError
	d.ReloadConfig(&next)
	assert.Equal(t, slog.LevelDebug, level.Level())
}

func TestRestartRequired(t *testing.T) {
	old := config.Default()
	next := *old
	assert.Empty(t, restartRequired(old, &next))

	next.Server.Addr = ":1"
	next.Locale = "en"
	next.Logging.Level = config.LogLevelDebug
	assert.Equal(t, []string{"server", "locale"}, restartRequired(old, &next))
}
