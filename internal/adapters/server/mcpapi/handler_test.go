package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/evanschultz/taskboard/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
)

// stubBoardService provides deterministic board responses for MCP tool tests.
type stubBoardService struct {
	board     common.BoardView
	result    common.EventResult
	items     []common.ActivityItem
	err       error
	lastEvent common.EventRequest
	lastLimit int
}

func (s *stubBoardService) Board(context.Context) (common.BoardView, error) {
	if s.err != nil {
		return common.BoardView{}, s.err
	}
	return s.board, nil
}

func (s *stubBoardService) Dispatch(_ context.Context, req common.EventRequest) (common.EventResult, error) {
	s.lastEvent = req
	if s.err != nil {
		return common.EventResult{}, s.err
	}
	return s.result, nil
}

func (s *stubBoardService) ListActivity(_ context.Context, limit int) ([]common.ActivityItem, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.ActivityItem(nil), s.items...), nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "taskboard-test",
				"version": "1.0.0",
			},
		},
	}
}

// newTestServer starts one MCP server over board and runs the initialize handshake.
func newTestServer(t *testing.T, board common.BoardService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, board)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestNewHandlerRequiresBoardService verifies construction fails closed without a service.
func TestNewHandlerRequiresBoardService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("NewHandler(nil) error = nil, want error")
	}
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersBoardTools verifies tool discovery lists every board tool.
func TestHandlerRegistersBoardTools(t *testing.T) {
	server := newTestServer(t, &stubBoardService{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{
		"taskboard.get_board",
		"taskboard.dispatch_event",
		"taskboard.list_activity",
	} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %q: %#v", required, toolNames)
		}
	}
}

// TestHandlerGetBoardToolCall verifies get_board returns the structured board.
func TestHandlerGetBoardToolCall(t *testing.T) {
	board := &stubBoardService{
		board: common.BoardView{
			Columns:  []common.BoardColumn{{ID: "todo", Title: "To Do", TaskIDs: []string{"t1"}}},
			Tasks:    map[string]common.BoardTask{"t1": {ID: "t1", Title: "One"}},
			Revision: 4,
		},
	}
	server := newTestServer(t, board)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "taskboard.get_board", map[string]any{}))
	structured := toolResultStructured(t, callResp.Result)
	columns, ok := structured["columns"].([]any)
	if !ok || len(columns) != 1 {
		t.Fatalf("columns = %#v, want one column", structured["columns"])
	}
	if got, _ := structured["revision"].(float64); got != 4 {
		t.Fatalf("revision = %v, want 4", structured["revision"])
	}
	if structured["activeTaskId"] != nil {
		t.Fatalf("activeTaskId = %#v, want null", structured["activeTaskId"])
	}
}

// TestHandlerDispatchEventToolCall verifies event arguments reach the service intact.
func TestHandlerDispatchEventToolCall(t *testing.T) {
	board := &stubBoardService{
		result: common.EventResult{Type: "dragOver", Changed: true},
	}
	server := newTestServer(t, board)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "taskboard.dispatch_event", map[string]any{
		"type":     "dragOver",
		"activeId": "t1",
		"overId":   "t3",
	}))
	structured := toolResultStructured(t, callResp.Result)
	if structured["changed"] != true {
		t.Fatalf("changed = %#v, want true", structured["changed"])
	}
	got := board.lastEvent
	if got.Type != "dragOver" || got.ActiveID != "t1" || got.OverID == nil || *got.OverID != "t3" {
		t.Fatalf("unexpected dispatched event %#v", got)
	}
	if got.Title != nil {
		t.Fatalf("title = %q, want unset", *got.Title)
	}
}

// TestHandlerDispatchEventMapsErrors verifies service failures surface as prefixed tool errors.
func TestHandlerDispatchEventMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		prefix string
	}{
		{name: "invalid", err: common.ErrInvalidEventRequest, prefix: "invalid_request:"},
		{name: "unavailable", err: common.ErrServiceUnavailable, prefix: "service_unavailable:"},
		{name: "internal", err: errors.New("disk full"), prefix: "internal_error:"},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, &stubBoardService{err: tc.err})
			_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(10+i, "taskboard.dispatch_event", map[string]any{
				"type": "deleteTask",
			}))
			if callResp.Result["isError"] != true {
				t.Fatalf("isError = %#v, want true", callResp.Result["isError"])
			}
			if text := toolResultText(t, callResp.Result); !strings.HasPrefix(text, tc.prefix) {
				t.Fatalf("text = %q, want prefix %q", text, tc.prefix)
			}
		})
	}
}

// TestHandlerListActivityToolCall verifies limits are clamped and rows returned.
func TestHandlerListActivityToolCall(t *testing.T) {
	board := &stubBoardService{
		items: []common.ActivityItem{{ID: 7, ItemType: "task", ItemID: "t1", Operation: "move"}},
	}
	server := newTestServer(t, board)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "taskboard.list_activity", map[string]any{
		"limit": 10000,
	}))
	structured := toolResultStructured(t, callResp.Result)
	items, ok := structured["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %#v, want one row", structured["items"])
	}
	if board.lastLimit != maxActivityLimit {
		t.Fatalf("limit = %d, want %d", board.lastLimit, maxActivityLimit)
	}
}

// TestNormalizeConfig verifies endpoint and identity defaults.
func TestNormalizeConfig(t *testing.T) {
	got := normalizeConfig(Config{EndpointPath: "agents/"})
	if got.EndpointPath != "/agents" || got.ServerName != "taskboard" || got.ServerVersion != "dev" {
		t.Fatalf("unexpected config %#v", got)
	}
}
