package mcpapi

import (
	"context"
	"fmt"

	"github.com/evanschultz/taskboard/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// maxActivityLimit caps list_activity page sizes.
const maxActivityLimit = 500

// registerBoardTools registers get_board, dispatch_event and list_activity.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"taskboard.get_board",
			mcp.WithDescription("Return every column in order, the task registry, the dragged task id and the board revision."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := board.Board(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode get_board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskboard.dispatch_event",
			mcp.WithDescription("Apply one board event. Events naming unknown tasks or columns leave the board unchanged."),
			mcp.WithString("type", mcp.Required(), mcp.Description("Event type"), mcp.Enum(common.SupportedEventTypes()...)),
			mcp.WithString("activeId", mcp.Description("Dragged task id for dragStart, dragOver and dragEnd")),
			mcp.WithString("overId", mcp.Description("Hovered task or column id; omit on dragEnd for a drop outside every target")),
			mcp.WithString("columnId", mcp.Description("Column id for column events and addTask")),
			mcp.WithString("taskId", mcp.Description("Task id for task events; generated by addTask when omitted")),
			mcp.WithString("title", mcp.Description("Title for add and update events")),
			mcp.WithString("description", mcp.Description("Task description for addTask and updateTask")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.EventRequest
			if err := req.BindArguments(&args); err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			if _, err := req.RequireString("type"); err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			out, err := board.Dispatch(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(out)
			if err != nil {
				return nil, fmt.Errorf("encode dispatch_event result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskboard.list_activity",
			mcp.WithDescription("List recent board changes newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to return")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			limit := req.GetInt("limit", 0)
			if limit < 0 {
				return mcp.NewToolResultError("invalid_request: limit must be >= 0"), nil
			}
			items, err := board.ListActivity(ctx, min(limit, maxActivityLimit))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"items": items,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_activity result: %w", err)
			}
			return result, nil
		},
	)
}
