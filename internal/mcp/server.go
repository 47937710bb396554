package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolObserver records tool call outcomes.
type ToolObserver interface {
	ObserveToolCall(tool string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveToolCall(string, error) {}

// Config contains server configuration.
type Config struct {
	Handler       *Handler
	Resolver      UserResolver
	AuthEnabled   bool
	DefaultUser   string
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
	Metrics       ToolObserver
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopObserver{}
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "local"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "overlap",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a single local user; HTTP authenticates unless disabled.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled || cfg.Resolver == nil {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultUser))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Handler, cfg.Metrics, cfg.Logger)

	return server
}

func registerTools(server *sdkmcp.Server, h *Handler, metrics ToolObserver, logger *slog.Logger) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			userID := getUserID(ctx)
			if userID == "" {
				return errorResult(&APIError{Code: CodeUnauthorized, Message: "no authenticated user"}), nil
			}
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}

			result, err := h.Handle(ctx, userID, name, args)
			metrics.ObserveToolCall(name, err)
			if err != nil {
				apiErr := MapError(err)
				if apiErr == nil {
					logger.Error("tool call failed", "tool", name, "user_id", userID, "error", err)
					apiErr = &APIError{Code: CodeInternal, Message: "internal error"}
				}
				return errorResult(apiErr), nil
			}
			return jsonResult(result)
		})
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
