package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/playbook"
	"github.com/louisbranch/tinykingdom/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Tiny Kingdom MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves streamable HTTP sessions.
	TransportHTTP TransportKind = "http"
)

// defaultHTTPAddr binds localhost-only unless configured otherwise.
const defaultHTTPAddr = "localhost:8080"

// Config configures the MCP server transport.
type Config struct {
	Transport TransportKind
	HTTPAddr  string // HTTP server address. Defaults to localhost:8080 for HTTP transport.
}

// Deps carries the collaborators the tool handlers are bound to.
type Deps struct {
	Lifecycle domain.Lifecycle
	Weather   domain.WeatherClient
	News      domain.NewsClient
	Media     domain.MediaFinder
	Logger    *zap.Logger
}

// Server hosts the MCP server for one kingdom.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// New creates a configured MCP server with every kingdom tool and resource
// registered against the provided collaborators.
func New(deps Deps) (*Server, error) {
	if deps.Lifecycle == nil {
		return nil, fmt.Errorf("lifecycle service is required")
	}
	if deps.Weather == nil {
		return nil, fmt.Errorf("weather client is required")
	}
	if deps.News == nil {
		return nil, fmt.Errorf("news client is required")
	}
	if deps.Media == nil {
		return nil, fmt.Errorf("media finder is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pb, err := playbook.Load()
	if err != nil {
		return nil, fmt.Errorf("load playbook: %w", err)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	server := &Server{mcpServer: mcpServer, logger: logger}
	notify := server.resourceNotifier()

	registerLifecycleTools(mcpServer, deps.Lifecycle, pb, deps.Media, notify)
	registerContextTools(mcpServer, deps.Lifecycle, deps.Weather, deps.News, notify)
	registerReferenceTools(mcpServer, deps.Lifecycle, pb, deps.Media)
	registerResources(mcpServer, deps.Lifecycle, pb)

	return server, nil
}

// resourceNotifier forwards committed-state updates to subscribed clients.
// Notification failures are logged and swallowed so a slow client cannot
// fail a committed cycle.
func (s *Server) resourceNotifier() domain.ResourceUpdateNotifier {
	return func(ctx context.Context, uri string) {
		if err := s.mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			s.logger.Warn("notify resource update", zap.String("uri", uri), zap.Error(err))
		}
	}
}

// completionHandler handles completion/complete requests with empty results.
// Kingdom tools take free-form prose, so there is nothing useful to complete.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// Run serves MCP traffic over the configured transport and blocks until the
// context ends.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return s.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return s.runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
// Context cancellation is an orderly stop, not an error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
