package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/grdesk/internal/events"
	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/grapi"
	"git.home.luguber.info/inful/grdesk/internal/modules/common"
	"git.home.luguber.info/inful/grdesk/internal/modules/stuff"
	"git.home.luguber.info/inful/grdesk/internal/prefs"
	"git.home.luguber.info/inful/grdesk/internal/receipts"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv     *Server
	store   *store.Store
	feature *receipts.Feature
	bus     *events.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := store.New([]store.Module{common.Slice.Module(), stuff.Slice.Module()}, store.WithLogger(logger))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, stuff.SetEmployees([]stuff.Employee{{ID: 7, Name: "Ivanova"}})))
	require.NoError(t, s.Dispatch(ctx, common.SetCurrentEmployee(7)))

	backend := grapi.NewMemory()
	actions := receipts.NewActions(backend, logger)
	feature := receipts.NewFeature(s, logger)
	p, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	now := func() time.Time { return fixedNow }
	form := receipts.NewForm(receipts.FormConfig{
		Backend:    backend,
		Actions:    actions,
		Dispatcher: s,
		Prefs:      p,
		Notices:    receipts.NewNotices("en"),
		Logger:     logger,
		Now:        now,
	})

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	srv := NewServer(Config{
		Addr:      ":0",
		Container: s,
		Bus:       bus,
		Receipts:  &ReceiptsSurface{Feature: feature, Form: form, Actions: actions, Prefs: p, Now: now},
		Metrics:   http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("metrics")) }),
		Logger:    logger,
	})
	return &testEnv{srv: srv, store: s, feature: feature, bus: bus}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.True(t, env.Success, w.Body.String())
	return env.Data
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestStateEndpoints(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[map[string]json.RawMessage](t, w)
	assert.Contains(t, state, "common")
	assert.Contains(t, state, "stuff")

	w = e.do(t, http.MethodGet, "/state/common", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), decode[common.State](t, w).CurrentEmployeeID)

	w = e.do(t, http.MethodGet, "/state/operationsGR", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModulesEndpoint(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/modules", nil)
	require.Equal(t, http.StatusOK, w.Code)

	mods := decode[[]store.ModuleInfo](t, w)
	require.Len(t, mods, 2)
	assert.Equal(t, store.ModuleKey("common"), mods[0].Key)
	assert.True(t, mods[0].Builtin)
}

func TestDispatchEndpoint(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/actions", map[string]any{
		"type":    common.ActionSetCurrentEmployee,
		"payload": 42,
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	resp := decode[DispatchResponse](t, w)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, int64(42), common.SelectCurrentEmployeeID(e.store.GetState()))

	w = e.do(t, http.MethodPost, "/actions", map[string]any{"payload": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiptsRoutesActivateFeature(t *testing.T) {
	e := newTestEnv(t)
	require.False(t, e.feature.Active())

	w := e.do(t, http.MethodGet, "/goods-receipts/draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	draft := decode[receipts.FormValues](t, w)
	require.NotNil(t, draft.Worker)
	assert.Equal(t, int64(7), draft.Worker.ID)
	assert.True(t, fixedNow.Equal(*draft.CreateDate))

	assert.True(t, e.feature.Active())
	rebuilds := e.store.Rebuilds()
	e.do(t, http.MethodGet, "/goods-receipts/draft", nil)
	assert.Equal(t, rebuilds, e.store.Rebuilds())
}

func TestSubmitOperationFlow(t *testing.T) {
	e := newTestEnv(t)
	created := fixedNow.Add(-time.Hour)
	values := receipts.FormValues{
		MixedAgreement: &receipts.MixedAgreement{ContractorID: 10, AgreementID: 3},
		CreateDate:     &created,
		Worker:         &stuff.Employee{ID: 7},
		Creator:        &stuff.Employee{ID: 7},
		SupNumber:      "SHIP-1",
	}

	w := e.do(t, http.MethodPost, "/goods-receipts/operations", SubmitRequest{Values: values})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[receipts.SubmitResult](t, w)
	require.NotNil(t, res.Operation)
	assert.Equal(t, "/goods-receipts/1", res.Redirect)
	assert.Equal(t, "Operation created successfully", res.Notice)

	w = e.do(t, http.MethodGet, "/goods-receipts/operations/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[OperationView](t, w)
	assert.Equal(t, int64(1), view.Operation.ID)
	assert.False(t, view.ReadOnly)

	// Same shipment number again needs confirmation.
	w = e.do(t, http.MethodPost, "/goods-receipts/operations", SubmitRequest{Values: values})
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[receipts.SubmitResult](t, w)
	assert.True(t, res.NeedsConfirmation)
	assert.Equal(t, "SHIP-1", res.ExistingSupNumber)
	assert.Nil(t, res.Operation)

	w = e.do(t, http.MethodPost, "/goods-receipts/operations", SubmitRequest{Values: values, Confirm: true})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, 2, receipts.Slice.Select(e.store.GetState()).Total)
}

func TestCreateNewPreferenceChangesRedirect(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/goods-receipts/preferences/create-new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, receipts.CreateNewOperation, decode[CreateNewPreference](t, w).Type)

	w = e.do(t, http.MethodPut, "/goods-receipts/preferences/create-new", CreateNewPreference{Type: "position"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPut, "/goods-receipts/preferences/create-new", CreateNewPreference{Type: "table"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	created := fixedNow.Add(-time.Hour)
	w = e.do(t, http.MethodPost, "/goods-receipts/operations", SubmitRequest{Values: receipts.FormValues{
		MixedAgreement: &receipts.MixedAgreement{ContractorID: 10},
		CreateDate:     &created,
		Worker:         &stuff.Employee{ID: 7},
		Creator:        &stuff.Employee{ID: 7},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/goods-receipts/1/positions/new", decode[receipts.SubmitResult](t, w).Redirect)
}

func TestSubmitInvalidForm(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/goods-receipts/operations", SubmitRequest{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation", body.Code)
	assert.Contains(t, body.Details, "fields")
}

func TestOperationRouteErrors(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/goods-receipts/operations/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/goods-receipts/operations/99", nil).Code)
}

func TestStatusRulesRefresh(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/goods-receipts/status-rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]receipts.StatusRule](t, w))

	w = e.do(t, http.MethodPost, "/goods-receipts/status-rules/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]receipts.StatusRule](t, w), 3)

	final, ok := receipts.SelectFinalRule(e.store.GetState())
	require.True(t, ok)
	assert.Equal(t, int64(3), final.ID)
}

func TestMetricsMounted(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "metrics", w.Body.String())
}

func TestEventStream(t *testing.T) {
	e := newTestEnv(t)
	ts := httptest.NewServer(e.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	require.Eventually(t, func() bool {
		return events.SubscriberCount[events.Event](e.bus) == 1
	}, time.Second, 10*time.Millisecond)
	_, err = e.bus.TryPublish(events.ModuleRegistered{Key: "operationsGR", At: fixedNow})
	require.NoError(t, err)

	var got []string
	for len(got) < 2 {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			got = append(got, line)
		}
	}
	assert.Equal(t, "event: module_registered", got[0])
	assert.True(t, strings.HasPrefix(got[1], "data: "))
	assert.Contains(t, got[1], `"key":"operationsGR"`)
}

func TestRecovererRendersClassifiedError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := recoverer(logger, ferrors.NewHTTPErrorAdapter(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/state", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"internal"`)
}
