// Package mcp exposes tour visibility as Model Context Protocol tools, so an
// assistant embedded in the host product can check and update a visitor's tours.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/aretw0/tourguide/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ConfigURI is the resource holding the current tour configuration.
const ConfigURI = "tourguide://config"

// ConfigProvider returns the configuration currently in effect.
type ConfigProvider interface {
	Current() *domain.TourConfig
}

// PageArgs selects one page of one visitor.
type PageArgs struct {
	Visitor string `json:"visitor"`
	Page    string `json:"page"`
}

// ResolveArgs selects a navigation path.
type ResolveArgs struct {
	Path string `json:"path"`
}

// Resolution is the tour mapped to a path.
type Resolution struct {
	Path               string        `json:"path"`
	Page               domain.PageID `json:"page"`
	Steps              int           `json:"steps"`
	ForceStartSelector string        `json:"force_start_selector"`
}

// Server wraps the visibility policy and exposes it as an MCP Server.
type Server struct {
	config    ConfigProvider
	visitors  *policy.Visitors
	now       func() time.Time
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server over kv.
func NewServer(kv ports.KVStore, locker ports.DistributedLocker, config ConfigProvider, version string, opts ...Option) *Server {
	s := &Server{
		config: config,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.visitors = policy.NewVisitors(kv, locker, s.logger)
	s.mcpServer = server.NewMCPServer("tourguide-mcp", version)
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func pageTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("visitor", mcp.Description("Visitor whose records are used (empty for the default visitor)")),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page identity, as listed in the configuration")),
		mcp.WithOutputSchema[policy.Status](),
	)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("resolve_page",
		mcp.WithDescription("Find the tour mapped to a navigation path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Navigation path, e.g. /projects")),
		mcp.WithOutputSchema[Resolution](),
	), mcp.NewStructuredToolHandler(s.handleResolve))

	s.mcpServer.AddTool(pageTool("get_status",
		"Report whether the tour of a page would start now and why."),
		mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(pageTool("record_dismissal",
		"Record that the visitor closed the tour. Ignored while the tour is cooling down."),
		mcp.NewStructuredToolHandler(s.handleDismissal))

	s.mcpServer.AddTool(pageTool("record_completion",
		"Record that the visitor finished the tour. It will not start on its own again."),
		mcp.NewStructuredToolHandler(s.handleCompletion))
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest, args ResolveArgs) (Resolution, error) {
	cfg := s.config.Current()
	page, err := cfg.ResolvePage(args.Path)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Path:               args.Path,
		Page:               page,
		Steps:              len(cfg.Steps(page)),
		ForceStartSelector: cfg.ForceStartSelector(args.Path),
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args PageArgs) (policy.Status, error) {
	if args.Page == "" {
		return policy.Status{}, fmt.Errorf("page is required")
	}
	return s.visitors.For(args.Visitor).Status(ctx, domain.PageID(args.Page), s.now()), nil
}

func (s *Server) handleDismissal(ctx context.Context, request mcp.CallToolRequest, args PageArgs) (policy.Status, error) {
	if args.Page == "" {
		return policy.Status{}, fmt.Errorf("page is required")
	}
	pol, page, now := s.visitors.For(args.Visitor), domain.PageID(args.Page), s.now()
	if pol.ShouldStart(ctx, page, now) {
		if err := pol.RecordDismissal(ctx, page, now); err != nil {
			s.logger.Error("MCP dismissal failed", "visitor", args.Visitor, "page", page, "error", err)
			return policy.Status{}, err
		}
	}
	return pol.Status(ctx, page, now), nil
}

func (s *Server) handleCompletion(ctx context.Context, request mcp.CallToolRequest, args PageArgs) (policy.Status, error) {
	if args.Page == "" {
		return policy.Status{}, fmt.Errorf("page is required")
	}
	pol, page := s.visitors.For(args.Visitor), domain.PageID(args.Page)
	if err := pol.RecordCompletion(ctx, page); err != nil {
		s.logger.Error("MCP completion failed", "visitor", args.Visitor, "page", page, "error", err)
		return policy.Status{}, err
	}
	return pol.Status(ctx, page, s.now()), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ConfigURI, "Current Tour Configuration",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.config.Current())
		if err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ConfigURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
