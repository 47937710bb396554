package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// stdioSession wraps an MCP client session for stdio transport testing
type stdioSession struct {
	session *sdkmcp.ClientSession
	cancel  context.CancelFunc
}

func newStdioSession(t *testing.T) *stdioSession {
	t.Helper()
	return newStdioSessionWithEnv(t, nil)
}

func newStdioSessionWithEnv(t *testing.T, extraEnv []string) *stdioSession {
	t.Helper()

	binaryPath := "./bin/overlap"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/overlap"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Run 'make build' first.")
		}
	}
	binaryPath, err := filepath.Abs(binaryPath)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"OVERLAP_TRANSPORT_MODE=stdio",
		"OVERLAP_DB_PATH=:memory:",
		"OVERLAP_AUTH_DEFAULT_USER=alice",
		"OVERLAP_METRICS_ENABLED=false",
		"OVERLAP_EVENTS_ENABLED=false",
	)
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Env, extraEnv...)
	}

	transport := &sdkmcp.CommandTransport{Command: cmd}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})

	return &stdioSession{session: session, cancel: cancel}
}

func (s *stdioSession) callTool(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)

	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			require.False(t, result.IsError, "Tool %s returned error: %s", name, textContent.Text)
			return json.RawMessage(textContent.Text)
		}
	}
	t.Fatalf("Tool %s returned no text content", name)
	return nil
}

func TestStdioFunctional_AvailabilityWorkflow(t *testing.T) {
	s := newStdioSession(t)

	var g struct {
		ID      string   `json:"id"`
		OwnerID string   `json:"owner_id"`
		Members []string `json:"members"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "create_group", map[string]any{"name": "Stdio Trip"}), &g))
	require.Equal(t, "alice", g.OwnerID)
	require.Equal(t, []string{"alice"}, g.Members)

	s.callTool(t, "add_availability", map[string]any{"group_id": g.ID, "start_date": "2025-07-01", "end_date": "2025-07-10"})

	var after struct {
		Intervals []struct {
			StartDate string `json:"start_date"`
			EndDate   string `json:"end_date"`
		} `json:"intervals"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "remove_availability", map[string]any{
		"group_id": g.ID, "start_date": "2025-07-05", "end_date": "2025-07-05",
	}), &after))
	require.Len(t, after.Intervals, 2)
	require.Equal(t, "2025-07-04", after.Intervals[0].EndDate)
	require.Equal(t, "2025-07-06", after.Intervals[1].StartDate)

	results := s.callTool(t, "get_results", map[string]any{"group_id": g.ID, "limit": 3})
	require.Contains(t, string(results), `"2025-07-01"`)
}

func TestStdioFunctional_MCPProtocolCompliance(t *testing.T) {
	s := newStdioSession(t)

	initResult := s.session.InitializeResult()
	require.NotNil(t, initResult)
	require.NotNil(t, initResult.ServerInfo)
	require.Equal(t, "overlap", initResult.ServerInfo.Name)
	require.NotEmpty(t, initResult.Instructions)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := s.session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 19)

	toolMap := make(map[string]*sdkmcp.Tool)
	for _, tool := range tools.Tools {
		toolMap[tool.Name] = tool
	}

	for _, name := range []string{"add_availability", "remove_availability", "get_results", "get_calendar", "create_group"} {
		require.Contains(t, toolMap, name)
		require.NotEmpty(t, toolMap[name].Description)
		require.NotNil(t, toolMap[name].InputSchema)
	}
}

func TestStdioFunctional_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "overlap.log")
	s := newStdioSessionWithEnv(t, []string{
		"OVERLAP_LOG_PATH=" + logPath,
		"OVERLAP_LOG_LEVEL=debug",
	})

	_ = s.callTool(t, "preview_holidays", map[string]any{"year": 2025})

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return false
		}
		text := string(data)
		return strings.Contains(text, `msg="mcp traffic"`) &&
			strings.Contains(text, "stage=request") &&
			strings.Contains(text, "stage=response")
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStdioFunctional_DocumentationResources(t *testing.T) {
	s := newStdioSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resources, err := s.session.ListResources(ctx, nil)
	require.NoError(t, err)

	uris := make(map[string]*sdkmcp.Resource, len(resources.Resources))
	for _, r := range resources.Resources {
		uris[r.URI] = r
	}

	for _, uri := range []string{"overlap://docs/index", "overlap://docs/concepts"} {
		r, ok := uris[uri]
		require.True(t, ok, "missing expected doc resource: %s", uri)
		require.NotEmpty(t, r.Name)
		require.Equal(t, "text/markdown", r.MIMEType)
		require.Greater(t, r.Size, int64(0))
	}

	read, err := s.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "overlap://docs/index"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	require.Equal(t, "overlap://docs/index", read.Contents[0].URI)
	require.Contains(t, read.Contents[0].Text, "Agent Docs Index")
}
