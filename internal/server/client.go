package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/output"
	"github.com/mj1618/icepid/internal/version"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds every query made through a Client.
const DefaultTimeout = 5 * time.Second

// Client queries a Server for source PIDs. Every failure on the way,
// including a timeout, is reported as "no source PID" rather than an error.
type Client struct {
	mcp     *mcpclient.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Dial connects to a Server listening on the streamable HTTP transport,
// for example "http://127.0.0.1:8229/mcp".
func Dial(ctx context.Context, url string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	c, err := mcpclient.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("create client for %s: %w", url, err)
	}
	return connect(ctx, c, timeout, logger)
}

// NewInProcess connects to a Server in the same process.
func NewInProcess(ctx context.Context, srv *mcpserver.MCPServer, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	c, err := mcpclient.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("create in-process client: %w", err)
	}
	return connect(ctx, c, timeout, logger)
}

func connect(ctx context.Context, c *mcpclient.Client, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "icepid", Version: version.Version}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}

	return &Client{
		mcp:     c,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "client")),
	}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// SourcePID asks the server which process created the window ref.
func (c *Client) SourcePID(ctx context.Context, ref model.WindowRef) (int, bool) {
	res, err := c.Lookup(ctx, ref)
	if err != nil {
		c.logger.Warn("source pid query failed", "window", ref.ID, "error", err)
		return 0, false
	}
	if !res.Resolved || res.PID <= 0 {
		return 0, false
	}
	return res.PID, true
}

// Lookup is SourcePID with the full response and any transport error.
func (c *Client) Lookup(ctx context.Context, ref model.WindowRef) (output.LookupResult, error) {
	args := map[string]interface{}{
		"window-id": ref.ID,
		"owner-pid": ref.OwnerPID,
		"on-screen": ref.OnScreen,
	}
	if !ref.Bounds.IsEmpty() {
		args["x"] = ref.Bounds.X
		args["y"] = ref.Bounds.Y
		args["width"] = ref.Bounds.Width
		args["height"] = ref.Bounds.Height
	}
	if ref.Title != "" {
		args["title"] = ref.Title
	}

	var res output.LookupResult
	if err := c.call(ctx, ToolSourcePID, args, &res); err != nil {
		return output.LookupResult{}, err
	}
	return res, nil
}

// Items fetches the server's view of the menu bar.
func (c *Client) Items(ctx context.Context) (output.ListResult, error) {
	var res output.ListResult
	err := c.call(ctx, ToolListItems, nil, &res)
	return res, err
}

func (c *Client) call(ctx context.Context, tool string, args map[string]interface{}, into interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	res, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s: %w", tool, err)
	}
	text := resultText(res)
	if res.IsError {
		return fmt.Errorf("%s: %s", tool, strings.TrimSpace(text))
	}
	if err := yaml.Unmarshal([]byte(text), into); err != nil {
		return fmt.Errorf("decode %s response: %w", tool, err)
	}
	return nil
}

func resultText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range res.Content {
		switch tc := content.(type) {
		case mcp.TextContent:
			b.WriteString(tc.Text)
		case *mcp.TextContent:
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
