package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	mcplocal "github.com/felixgeelhaar/slotwise/adapter/mcp"
	"github.com/felixgeelhaar/slotwise/pkg/config"
)

// Serve runs the MCP endpoint on cfg.MCPAddr until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	srv, err := NewServer(cfg, cliApp, logger)
	if err != nil {
		return err
	}
	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "auth", cfg.MCPAuthToken != "")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil,
		mcpgo.WithMiddleware(Middleware(cfg, logger)...))
}

// NewServer registers the scheduling tools plus the read-only resources and
// prompts. Tools are required; resources and prompts degrade to a warning.
func NewServer(cfg *config.Config, cliApp *cli.App, logger *slog.Logger) (*mcpgo.Server, error) {
	if cliApp == nil {
		return nil, errors.New("CLI app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	info := mcpgo.ServerInfo{
		Name:         "slotwise-mcp",
		Version:      "dev",
		Capabilities: mcpgo.Capabilities{Tools: true, Resources: true, Prompts: true},
	}
	if cfg != nil && cfg.Version != "" {
		info.Version = cfg.Version
	}
	srv := mcpgo.NewServer(info)

	deps := mcplocal.ToolDependencies{App: cliApp}
	if err := mcplocal.RegisterCLITools(srv, deps); err != nil {
		return nil, err
	}
	optional := map[string]func(*mcpgo.Server, mcplocal.ToolDependencies) error{
		"resources": mcplocal.RegisterResources,
		"prompts":   mcplocal.RegisterPrompts,
	}
	for name, register := range optional {
		if err := register(srv, deps); err != nil {
			logger.Warn("MCP registration skipped", "kind", name, "error", err)
		}
	}
	return srv, nil
}

// Middleware is mcp-go's default stack. A configured MCPAuthToken puts a
// static bearer check in front of it.
func Middleware(cfg *config.Config, logger *slog.Logger) []middleware.Middleware {
	log := mcpLogger{logger: logger}
	stack := middleware.DefaultStack(log)
	if cfg.MCPAuthToken == "" {
		logger.Warn("MCP_AUTH_TOKEN not set, MCP requests are unauthenticated")
		return stack
	}

	identity := &middleware.Identity{ID: "mcp", Name: "mcp"}
	if cfg.MCPActorID != "" {
		identity.ID = cfg.MCPActorID
	}
	auth := middleware.Auth(
		middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{cfg.MCPAuthToken: identity})),
		middleware.WithAuthLogger(log),
	)
	return append([]middleware.Middleware{auth}, stack...)
}

// mcpLogger routes mcp-go middleware logs into slog.
type mcpLogger struct {
	logger *slog.Logger
}

func (l mcpLogger) log(level slog.Level, msg string, fields []middleware.Field) {
	l.logger.Log(context.Background(), level, msg, fieldsToArgs(fields)...)
}

func (l mcpLogger) Debug(msg string, fields ...middleware.Field) { l.log(slog.LevelDebug, msg, fields) }
func (l mcpLogger) Info(msg string, fields ...middleware.Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l mcpLogger) Warn(msg string, fields ...middleware.Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l mcpLogger) Error(msg string, fields ...middleware.Field) { l.log(slog.LevelError, msg, fields) }

func fieldsToArgs(fields []middleware.Field) []any {
	args := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		args = append(args, slog.Any(f.Key, f.Value))
	}
	return args
}
