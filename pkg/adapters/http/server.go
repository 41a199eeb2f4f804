// Package http exposes an Arbor engine over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Engine is the subset of arbor.Engine the transport needs.
type Engine interface {
	Execute(caller domain.Caller, label string, args []string) bool
	Run(ctx context.Context, caller domain.Caller, line string) error
	CompleteLine(caller domain.Caller, line string) []string
	Disconnect(callerID string)
	Describe() []command.Description
}

var _ Engine = (*arbor.Engine)(nil)

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Caller console.Identity `json:"caller"`
	Line   string           `json:"line"`
	// WaitMS, when positive, holds the response until the handler returns
	// or the wait expires.
	WaitMS int `json:"wait_ms,omitempty"`
}

// ExecuteResponse reports the dispatch outcome and the messages delivered so far.
type ExecuteResponse struct {
	CallerID string   `json:"caller_id"`
	Handled  bool     `json:"handled"`
	Messages []string `json:"messages"`
}

// CompleteRequest is the body of POST /complete.
type CompleteRequest struct {
	Caller console.Identity `json:"caller"`
	Line   string           `json:"line"`
}

// CompleteResponse lists completion candidates.
type CompleteResponse struct {
	Candidates []string `json:"candidates"`
}

// MessagesResponse is returned by GET /callers/{id}/messages.
type MessagesResponse struct {
	CallerID string   `json:"caller_id"`
	Messages []string `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to the engine.
type Server struct {
	Engine  Engine
	Callers *console.Directory
	Streams *StreamManager

	limiter *Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit limits each caller to rps commands per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = NewLimiter(rps, burst, 0)
	}
}

// WithDirectory shares a caller directory with other transports.
func WithDirectory(d *console.Directory) Option {
	return func(s *Server) {
		s.Callers = d
	}
}

// NewServer creates a Server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	if s.Callers == nil {
		s.Callers = console.NewDirectory(
			console.WithLogger(s.logger),
			console.WithListener(s.Streams.Broadcast),
		)
	}
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/tree", s.GetTree)
	r.Post("/execute", s.Execute)
	r.Post("/complete", s.Complete)
	r.Route("/callers/{id}", func(r chi.Router) {
		r.Get("/messages", s.GetMessages)
		r.Get("/events", s.SubscribeEvents)
		r.Post("/disconnect", s.Disconnect)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Execute handles POST /execute.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	var body ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("execute: invalid request body", "err", err)
		return
	}
	fields := strings.Fields(body.Line)
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "line is empty")
		return
	}

	caller, remote := s.Callers.Resolve(body.Caller)
	if !s.limiter.Allow(limitKey(body.Caller, r), s.now()) {
		writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited.Error())
		s.logger.Debug("execute: rate limited", "caller_id", remote.ID())
		return
	}

	if body.WaitMS > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(body.WaitMS)*time.Millisecond)
		defer cancel()
		err := s.Engine.Run(ctx, caller, body.Line)
		switch {
		case errors.Is(err, domain.ErrUnknownCommand):
			writeError(w, http.StatusNotFound, err.Error())
			return
		case err != nil:
			s.logger.Debug("execute: stopped waiting", "caller_id", remote.ID(), "err", err)
		}
	} else if !s.Engine.Execute(caller, fields[0], fields[1:]) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%v: %s", domain.ErrUnknownCommand, fields[0]))
		return
	}

	writeJSON(w, http.StatusOK, ExecuteResponse{
		CallerID: remote.ID(),
		Handled:  true,
		Messages: remote.Drain(),
	})
}

// limitKey buckets named callers by id. Anonymous callers get a fresh id per
// request, so they share one bucket per client address.
func limitKey(id console.Identity, r *http.Request) string {
	if key := strings.TrimSpace(id.ID); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "anonymous:" + host
}

// Complete handles POST /complete.
func (s *Server) Complete(w http.ResponseWriter, r *http.Request) {
	var body CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("complete: invalid request body", "err", err)
		return
	}
	caller, _ := s.Callers.Ephemeral(body.Caller)
	writeJSON(w, http.StatusOK, CompleteResponse{Candidates: s.Engine.CompleteLine(caller, body.Line)})
}

// GetMessages handles GET /callers/{id}/messages.
func (s *Server) GetMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	remote, ok := s.Callers.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownCaller.Error())
		return
	}
	writeJSON(w, http.StatusOK, MessagesResponse{CallerID: id, Messages: remote.Drain()})
}

// Disconnect handles POST /callers/{id}/disconnect. It cancels the caller's
// tracked job and forgets its buffered messages.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.Engine.Disconnect(id)
	s.Callers.Forget(id)
	s.logger.Debug("caller disconnected", "caller_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetTree handles GET /tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Describe())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// SubscribeEvents handles GET /callers/{id}/events (SSE). Every message
// delivered to the caller after subscribing is streamed as one event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.logger.Debug("sse: subscribed", "caller_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse: client disconnected", "caller_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
