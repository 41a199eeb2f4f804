// Package mcp exposes an Arbor engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// TreeURI is the resource exposing the command tree.
const TreeURI = "arbor://tree"

// DefaultWait bounds how long execute_command waits for a handler.
const DefaultWait = 5 * time.Second

// Engine defines the interface required by the MCP server.
type Engine interface {
	Run(ctx context.Context, caller domain.Caller, line string) error
	CompleteLine(caller domain.Caller, line string) []string
	Describe() []command.Description
}

var _ Engine = (*arbor.Engine)(nil)

// ExecuteArgs are the arguments of execute_command.
type ExecuteArgs struct {
	Line        string `mapstructure:"line"`
	CallerID    string `mapstructure:"caller_id"`
	CallerName  string `mapstructure:"caller_name"`
	Permissions string `mapstructure:"permissions"`
	Player      bool   `mapstructure:"player"`
}

// ExecuteResult is the structured output of execute_command.
type ExecuteResult struct {
	CallerID string   `json:"caller_id" jsonschema_description:"Identity the command ran as"`
	Messages []string `json:"messages" jsonschema_description:"Messages delivered to the caller"`
	TimedOut bool     `json:"timed_out,omitempty" jsonschema_description:"The handler was still running when the response was sent"`
}

// CompleteResult is the structured output of complete_command.
type CompleteResult struct {
	Candidates []string `json:"candidates" jsonschema_description:"Completion candidates for the last word"`
}

// Server wraps the Arbor Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	callers   *console.Directory
	mcpServer *server.MCPServer
	wait      time.Duration
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithWait bounds how long execute_command waits for its handler.
func WithWait(d time.Duration) Option {
	return func(s *Server) {
		s.wait = d
	}
}

// WithDirectory shares a caller directory with other transports.
func WithDirectory(d *console.Directory) Option {
	return func(s *Server) {
		s.callers = d
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
		wait:      DefaultWait,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.callers == nil {
		s.callers = console.NewDirectory(console.WithLogger(s.logger))
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	executeTool := mcp.NewTool("execute_command",
		mcp.WithDescription("Run a command line, e.g. \"guild invite Bob\", and return the messages it produced."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Command line: label followed by arguments")),
		mcp.WithString("caller_id", mcp.Description("Stable caller identity (optional; a one-off caller is used when omitted)")),
		mcp.WithString("caller_name", mcp.Description("Display name of the caller")),
		mcp.WithString("permissions", mcp.Description("Comma-separated permissions granted to the caller")),
		mcp.WithBoolean("player", mcp.Description("Run as an in-game player")),
		mcp.WithOutputSchema[ExecuteResult](),
	)
	s.mcpServer.AddTool(executeTool, mcp.NewStructuredToolHandler(s.handleExecute))

	completeTool := mcp.NewTool("complete_command",
		mcp.WithDescription("List completions for a partial command line. A trailing space completes a new word."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Partial command line")),
		mcp.WithString("permissions", mcp.Description("Comma-separated permissions granted to the caller")),
		mcp.WithOutputSchema[CompleteResult](),
	)
	s.mcpServer.AddTool(completeTool, mcp.NewStructuredToolHandler(s.handleComplete))

	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Get the full command tree for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Describe())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("describe failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExecuteResult, error) {
	var in ExecuteArgs
	if err := mapstructure.WeakDecode(args, &in); err != nil {
		return ExecuteResult{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Line) == "" {
		return ExecuteResult{}, errors.New("line is required")
	}

	caller, remote := s.callers.Resolve(console.Identity{
		ID:          in.CallerID,
		Name:        in.CallerName,
		Player:      in.Player,
		Permissions: splitList(in.Permissions),
	})

	waitCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	res := ExecuteResult{CallerID: remote.ID()}
	err := s.engine.Run(waitCtx, caller, in.Line)
	switch {
	case errors.Is(err, domain.ErrUnknownCommand):
		return ExecuteResult{}, err
	case err != nil:
		s.logger.Debug("mcp execute: stopped waiting", "caller_id", remote.ID(), "err", err)
		res.TimedOut = true
	}
	res.Messages = remote.Drain()
	return res, nil
}

func (s *Server) handleComplete(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompleteResult, error) {
	var in struct {
		Line        string `mapstructure:"line"`
		Permissions string `mapstructure:"permissions"`
	}
	if err := mapstructure.WeakDecode(args, &in); err != nil {
		return CompleteResult{}, fmt.Errorf("invalid arguments: %w", err)
	}
	caller, _ := s.callers.Ephemeral(console.Identity{Permissions: splitList(in.Permissions)})
	return CompleteResult{Candidates: s.engine.CompleteLine(caller, in.Line)}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TreeURI, "Command Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Describe())
		if err != nil {
			return nil, fmt.Errorf("failed to describe tree: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TreeURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
