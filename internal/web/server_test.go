package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spendlens/spendlens/internal/convo"
	"github.com/spendlens/spendlens/internal/history"
	"github.com/spendlens/spendlens/internal/orchestrator"
	"github.com/spendlens/spendlens/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	resp    orchestrator.Response
	err     error
	message string
	hist    []convo.Turn
}

func (s *stubRunner) Run(_ context.Context, message string, hist []convo.Turn, _ string) (orchestrator.Response, error) {
	s.message = message
	s.hist = hist
	return s.resp, s.err
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := NewServer(&stubRunner{}, nil, "purchases")
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestChatOK(t *testing.T) {
	runner := &stubRunner{resp: orchestrator.Response{
		Status:             orchestrator.StatusOK,
		Answer:             "Total spend was $4.2M.",
		SuggestedQuestions: []string{"a", "b", "c"},
		Pipeline: []*plan.Node{
			plan.Map(plan.E("$match", plan.Map(plan.E("calendar_year", plan.Scalar(int64(2023)))))),
		},
		Data:    []map[string]any{{"total": 4200000.0}},
		Columns: []plan.Column{{Name: "total", Type: plan.FieldMoney}},
	}}
	srv := NewServer(runner, nil, "purchases")

	rec := postChat(t, srv.Routes(), `{
		"message": "total spend in 2023?",
		"history": [{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "total spend in 2023?", runner.message)
	require.Len(t, runner.hist, 2)
	assert.Equal(t, convo.RoleUser, runner.hist[0].Role)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "Total spend was $4.2M.", got["answer"])
	assert.Len(t, got["suggestedQuestions"], 3)

	pipeline, ok := got["pipeline"].([]any)
	require.True(t, ok)
	require.Len(t, pipeline, 1)
}

func TestChatClarificationMirrorsAnswer(t *testing.T) {
	runner := &stubRunner{resp: orchestrator.Response{
		Status:             orchestrator.StatusNeedsClarification,
		ClarifyingQuestion: "Which fiscal year?",
		SuggestedQuestions: []string{"a", "b", "c"},
	}}
	srv := NewServer(runner, nil, "purchases")

	rec := postChat(t, srv.Routes(), `{"message": "spend?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "needs_clarification", got["status"])
	assert.Equal(t, "Which fiscal year?", got["clarifyingQuestion"])
	assert.Equal(t, "Which fiscal year?", got["answer"])
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv := NewServer(&stubRunner{}, nil, "purchases")
	rec := postChat(t, srv.Routes(), `{"message": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRejectsBadHistoryRole(t *testing.T) {
	srv := NewServer(&stubRunner{}, nil, "purchases")
	rec := postChat(t, srv.Routes(), `{
		"message": "q",
		"history": [{"role": "system", "content": "x"}]
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user or assistant")
}

func TestChatTrimsLongHistory(t *testing.T) {
	runner := &stubRunner{resp: orchestrator.Response{
		Status:             orchestrator.StatusOK,
		SuggestedQuestions: []string{"a", "b", "c"},
	}}
	srv := NewServer(runner, nil, "purchases")

	turns := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		turns = append(turns, `{"role": "user", "content": "t"}`)
	}
	rec := postChat(t, srv.Routes(), `{"message": "q", "history": [`+strings.Join(turns, ",")+`]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, runner.hist, maxHistoryTurns)
}

func TestChatRunnerErrorIs500(t *testing.T) {
	srv := NewServer(&stubRunner{err: errors.New("boom")}, nil, "purchases")
	rec := postChat(t, srv.Routes(), `{"message": "q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom", "internal details must not leak")
}

func TestChatMethodAndCORS(t *testing.T) {
	srv := NewServer(&stubRunner{}, nil, "purchases")
	handler := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatPersistsExchange(t *testing.T) {
	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()
	store := history.NewStore(db)

	runner := &stubRunner{resp: orchestrator.Response{
		Status:             orchestrator.StatusOK,
		Answer:             "answer",
		SuggestedQuestions: []string{"a", "b", "c"},
	}}
	srv := NewServer(runner, store, "purchases")

	rec := postChat(t, srv.Routes(), `{"message": "q"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q", got[0].Question)
	assert.Equal(t, "ok", got[0].Status)
	assert.Equal(t, "answer", got[0].Answer)
	assert.NotEmpty(t, got[0].RequestID)
}
