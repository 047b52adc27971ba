// Package web exposes the conversational analytics API over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spendlens/spendlens/internal/convo"
	"github.com/spendlens/spendlens/internal/history"
	"github.com/spendlens/spendlens/internal/orchestrator"
)

// maxHistoryTurns bounds how much caller-supplied history one request may
// carry. The collaborator stages window further on their own.
const maxHistoryTurns = 20

// maxMessageBytes bounds the request body size.
const maxMessageBytes = 64 << 10

// Runner answers one user message. Implemented by orchestrator.Controller.
type Runner interface {
	Run(ctx context.Context, message string, hist []convo.Turn, collection string) (orchestrator.Response, error)
}

// Server provides the API handlers and state. The history store is optional;
// when nil, exchanges are not persisted.
type Server struct {
	runner     Runner
	store      *history.Store
	collection string
}

// NewServer creates a new API server.
func NewServer(runner Runner, store *history.Store, collection string) *Server {
	return &Server{runner: runner, store: store, collection: collection}
}

// Routes returns the router for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return cors(mux)
}

// cors allows browser frontends on other origins to call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string     `json:"message"`
	History []chatTurn `json:"history"`
}

type chatResponse struct {
	Status             orchestrator.Status `json:"status"`
	Answer             string              `json:"answer"`
	ClarifyingQuestion string              `json:"clarifyingQuestion,omitempty"`
	SuggestedQuestions []string            `json:"suggestedQuestions"`
	Pipeline           json.RawMessage     `json:"pipeline,omitempty"`
	Data               []map[string]any    `json:"data,omitempty"`
	Columns            any                 `json:"columns,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := log.With().Str("request_id", requestID).Logger()

	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	hist, err := parseHistory(req.History)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info().Int("history_turns", len(hist)).Msg("chat request received")

	resp, err := s.runner.Run(r.Context(), req.Message, hist, s.collection)
	if err != nil {
		logger.Error().Err(err).Msg("chat request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := chatResponse{
		Status:             resp.Status,
		Answer:             resp.Answer,
		ClarifyingQuestion: resp.ClarifyingQuestion,
		SuggestedQuestions: resp.SuggestedQuestions,
		Data:               resp.Data,
		Columns:            resp.Columns,
	}
	// Clients render the answer field, so a clarification doubles as one.
	if resp.Status == orchestrator.StatusNeedsClarification && out.Answer == "" {
		out.Answer = resp.ClarifyingQuestion
	}
	if len(resp.Pipeline) > 0 {
		if raw, err := json.Marshal(resp.Pipeline); err == nil {
			out.Pipeline = raw
		}
	}

	s.recordExchange(r.Context(), logger, requestID, req.Message, resp, out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) recordExchange(ctx context.Context, logger zerolog.Logger, requestID, question string, resp orchestrator.Response, out chatResponse) {
	if s.store == nil {
		return
	}
	ex := history.Exchange{
		RequestID:    requestID,
		Question:     question,
		Status:       string(resp.Status),
		Answer:       out.Answer,
		PipelineJSON: string(out.Pipeline),
	}
	if err := s.store.Record(ctx, ex); err != nil {
		logger.Warn().Err(err).Msg("record exchange failed")
	}
}

func parseHistory(turns []chatTurn) ([]convo.Turn, error) {
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	out := make([]convo.Turn, 0, len(turns))
	for _, t := range turns {
		turn := convo.Turn{Role: convo.Role(t.Role), Content: t.Content}
		if !turn.Role.Valid() {
			return nil, errors.New("history roles must be user or assistant")
		}
		out = append(out, turn)
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
