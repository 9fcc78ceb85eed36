// Package server exposes the source PID cache over the Model Context
// Protocol and provides the matching client.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/output"
	"github.com/mj1618/icepid/internal/platform"
	"github.com/mj1618/icepid/internal/sourcepid"
	"github.com/mj1618/icepid/internal/version"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"

	ToolSourcePID  = "source_pid"
	ToolListItems  = "list_items"
	ToolInvalidate = "invalidate"
	ToolStats      = "stats"
)

// Server answers source PID queries from a Cache.
type Server struct {
	cache   *sourcepid.Cache
	windows platform.WindowLister
	logger  *slog.Logger
	now     func() time.Time
	mcp     *mcpserver.MCPServer
}

// New creates a Server and registers its tools.
func New(cache *sourcepid.Cache, windows platform.WindowLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cache:   cache,
		windows: windows,
		logger:  logger.With(slog.String("component", "server")),
		now:     time.Now,
	}
	s.mcp = mcpserver.NewMCPServer("icepid", version.Version)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Serve runs the server on the given transport until ctx is done.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case TransportStdio:
		stdio := mcpserver.NewStdioServer(s.mcp)
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case TransportHTTP:
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		s.logger.Info("listening", "transport", transport, "addr", addr)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool(ToolSourcePID,
			mcp.WithDescription("Resolve the process that created a menu bar item window. Bounds are fetched from the window server when omitted."),
			mcp.WithNumber("window-id", mcp.Required(), mcp.Description("Window server ID of the menu bar item")),
			mcp.WithNumber("x", mcp.Description("Window frame origin X")),
			mcp.WithNumber("y", mcp.Description("Window frame origin Y")),
			mcp.WithNumber("width", mcp.Description("Window frame width")),
			mcp.WithNumber("height", mcp.Description("Window frame height")),
			mcp.WithNumber("owner-pid", mcp.Description("PID of the process that owns the window")),
			mcp.WithString("title", mcp.Description("Window title")),
			mcp.WithBoolean("on-screen", mcp.Description("Whether the window is on screen")),
		),
		s.handleSourcePID,
	)

	s.mcp.AddTool(
		mcp.NewTool(ToolListItems,
			mcp.WithDescription("List menu bar item windows left to right with their resolved source processes"),
		),
		s.handleListItems,
	)

	s.mcp.AddTool(
		mcp.NewTool(ToolInvalidate,
			mcp.WithDescription("Forget the cached source PID of one window"),
			mcp.WithNumber("window-id", mcp.Required(), mcp.Description("Window server ID")),
		),
		s.handleInvalidate,
	)

	s.mcp.AddTool(
		mcp.NewTool(ToolStats,
			mcp.WithDescription("Report cache counters and the current match tolerance"),
		),
		s.handleStats,
	)
}

func toolYAML(v interface{}) (*mcp.CallToolResult, error) {
	text, err := output.YAMLString(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// windowRefFromParams builds the queried window. A request that carries no
// frame is completed from the live window list.
func (s *Server) windowRefFromParams(params map[string]interface{}) (model.WindowRef, error) {
	id, err := windowIDParam(params)
	if err != nil {
		return model.WindowRef{}, err
	}
	ref := model.WindowRef{
		ID: id,
		Bounds: model.Rect{
			X:      floatParam(params, "x", 0),
			Y:      floatParam(params, "y", 0),
			Width:  floatParam(params, "width", 0),
			Height: floatParam(params, "height", 0),
		},
		OwnerPID: intParam(params, "owner-pid", 0),
		Title:    stringParam(params, "title", ""),
		OnScreen: boolParam(params, "on-screen", true),
	}
	if !ref.Bounds.IsEmpty() {
		return ref, nil
	}
	live, err := platform.FindWindow(s.windows, ref.ID)
	if err != nil {
		return model.WindowRef{}, fmt.Errorf("window %d: %w", ref.ID, err)
	}
	return live, nil
}

func (s *Server) handleSourcePID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.windowRefFromParams(request.GetArguments())
	if err != nil {
		if errors.Is(err, platform.ErrWindowNotFound) {
			id, _ := windowIDParam(request.GetArguments())
			return toolYAML(output.LookupResult{WindowID: id, TS: s.now().Unix()})
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := output.LookupResult{WindowID: ref.ID, TS: s.now().Unix()}
	if pid, ok := s.cache.Lookup(ctx, ref); ok {
		result.Resolved = true
		result.PID = pid
		if app, ok := s.cache.App(pid); ok {
			result.App = app.DisplayName()
			result.BundleID = app.BundleID
		}
	}
	return toolYAML(result)
}

func (s *Server) handleListItems(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := ListItems(ctx, s.cache, s.windows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolYAML(output.ListResult{TS: s.now().Unix(), Items: items})
}

func (s *Server) handleInvalidate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := windowIDParam(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.Invalidate(id)
	return toolYAML(map[string]interface{}{"ok": true, "window_id": id})
}

type statsResult struct {
	Tolerance float64         `yaml:"tolerance" json:"tolerance"`
	Cache     sourcepid.Stats `yaml:"cache"     json:"cache"`
}

func (s *Server) handleStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolYAML(statsResult{Tolerance: s.cache.Tolerance(), Cache: s.cache.Stats()})
}

// ListItems lists the current menu bar item windows and resolves each one
// through the cache. Unresolved items carry a zero SourcePID.
func ListItems(ctx context.Context, cache *sourcepid.Cache, windows platform.WindowLister) ([]model.MenuBarItem, error) {
	refs, err := windows.MenuBarItemWindows()
	if err != nil {
		return nil, fmt.Errorf("list menu bar items: %w", err)
	}
	items := make([]model.MenuBarItem, 0, len(refs))
	for _, ref := range refs {
		item := model.MenuBarItem{Window: ref}
		if pid, ok := cache.Lookup(ctx, ref); ok {
			item.SourcePID = pid
			if app, ok := cache.App(pid); ok {
				item.Source = app.DisplayName()
			}
		}
		items = append(items, item)
	}
	return items, nil
}
