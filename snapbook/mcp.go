package snapbook

import (
	"context"
	"encoding/json"

	"github.com/hazyhaar/fiskal/kit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers all snapbook tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerCreateSnapshot(srv)
	svc.registerListSnapshots(srv)
	svc.registerGetSnapshot(srv)
	svc.registerDeleteSnapshot(srv)
	svc.registerCompareSnapshot(srv)
	svc.registerCloneSnapshot(srv)
	svc.registerRollbackSnapshot(srv)
	svc.registerGetSchedule(srv)
	svc.registerUpdateSchedule(srv)
	svc.registerRunDueSchedules(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func decodeInto[T any](r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var p T
	if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &p}, nil
}

func (svc *Service) registerCreateSnapshot(srv *mcp.Server) {
	type req struct {
		BookID      string   `json:"book_id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_create_snapshot",
		Description: "Capture a point-in-time snapshot of a fiscal book",
		InputSchema: inputSchema(map[string]any{
			"book_id":     map[string]any{"type": "string", "description": "Fiscal book ID"},
			"name":        map[string]any{"type": "string", "description": "Snapshot name"},
			"description": map[string]any{"type": "string", "description": "Snapshot description"},
			"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, []string{"book_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.Capture(ctx, p.BookID, CaptureRequest{
			Name:        p.Name,
			Description: p.Description,
			Tags:        p.Tags,
		})
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerListSnapshots(srv *mcp.Server) {
	type req struct {
		BookID string   `json:"book_id"`
		Tags   []string `json:"tags"`
		Limit  int      `json:"limit"`
		Skip   int      `json:"skip"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_list_snapshots",
		Description: "List a fiscal book's snapshots, newest first, optionally filtered by tags (AND-match)",
		InputSchema: inputSchema(map[string]any{
			"book_id": map[string]any{"type": "string", "description": "Fiscal book ID"},
			"tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"limit":   map[string]any{"type": "integer"},
			"skip":    map[string]any{"type": "integer"},
		}, []string{"book_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.ListSnapshots(ctx, p.BookID, p.Tags, p.Limit, p.Skip)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerGetSnapshot(srv *mcp.Server) {
	type req struct {
		SnapshotID string `json:"snapshot_id"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_get_snapshot",
		Description: "Get a snapshot header by ID",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.GetSnapshot(ctx, p.SnapshotID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerDeleteSnapshot(srv *mcp.Server) {
	type req struct {
		SnapshotID string `json:"snapshot_id"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_delete_snapshot",
		Description: "Delete a snapshot (fails while protection is set)",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if err := svc.DeleteSnapshot(ctx, p.SnapshotID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": p.SnapshotID}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerCompareSnapshot(srv *mcp.Server) {
	type req struct {
		SnapshotID string `json:"snapshot_id"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_compare_snapshot",
		Description: "Diff a snapshot against the book's live state (added/removed/modified/unchanged)",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.Compare(ctx, p.SnapshotID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerCloneSnapshot(srv *mcp.Server) {
	type req struct {
		SnapshotID  string `json:"snapshot_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Period      string `json:"period"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_clone_snapshot",
		Description: "Create a new independent fiscal book seeded from a snapshot",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID"},
			"name":        map[string]any{"type": "string", "description": "Override book name"},
			"description": map[string]any{"type": "string", "description": "Override book description"},
			"period":      map[string]any{"type": "string", "description": "Override book period"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.Clone(ctx, p.SnapshotID, CloneOverrides{
			Name:        p.Name,
			Description: p.Description,
			Period:      p.Period,
		})
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerRollbackSnapshot(srv *mcp.Server) {
	type req struct {
		SnapshotID              string `json:"snapshot_id"`
		SkipPreRollbackSnapshot bool   `json:"skip_pre_rollback_snapshot"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_rollback_snapshot",
		Description: "Destructively restore the original book to the state a snapshot recorded",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id":                map[string]any{"type": "string", "description": "Snapshot ID"},
			"skip_pre_rollback_snapshot": map[string]any{"type": "boolean", "description": "Skip the safety snapshot"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.Rollback(ctx, p.SnapshotID, !p.SkipPreRollbackSnapshot)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerGetSchedule(srv *mcp.Server) {
	type req struct {
		BookID string `json:"book_id"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_get_schedule",
		Description: "Get a fiscal book's automatic snapshot schedule",
		InputSchema: inputSchema(map[string]any{
			"book_id": map[string]any{"type": "string", "description": "Fiscal book ID"},
		}, []string{"book_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.GetSchedule(ctx, p.BookID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerUpdateSchedule(srv *mcp.Server) {
	type req struct {
		BookID         string   `json:"book_id"`
		Enabled        bool     `json:"enabled"`
		Frequency      string   `json:"frequency"`
		DayOfWeek      int      `json:"day_of_week"`
		DayOfMonth     int      `json:"day_of_month"`
		RetentionCount int      `json:"retention_count"`
		AutoTags       []string `json:"auto_tags"`
	}

	tool := &mcp.Tool{
		Name:        "fiskal_update_schedule",
		Description: "Create or replace a fiscal book's snapshot schedule (one per book)",
		InputSchema: inputSchema(map[string]any{
			"book_id":         map[string]any{"type": "string", "description": "Fiscal book ID"},
			"enabled":         map[string]any{"type": "boolean"},
			"frequency":       map[string]any{"type": "string", "description": "weekly, monthly, or before-status-change"},
			"day_of_week":     map[string]any{"type": "integer", "description": "0-6, weekly only"},
			"day_of_month":    map[string]any{"type": "integer", "description": "1-31, monthly only"},
			"retention_count": map[string]any{"type": "integer", "description": "Scheduled snapshots to keep (default 12)"},
			"auto_tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, []string{"book_id", "frequency"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.UpsertSchedule(ctx, p.BookID, ScheduleRequest{
			Enabled:        p.Enabled,
			Frequency:      p.Frequency,
			DayOfWeek:      p.DayOfWeek,
			DayOfMonth:     p.DayOfMonth,
			RetentionCount: p.RetentionCount,
			AutoTags:       p.AutoTags,
		})
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}

func (svc *Service) registerRunDueSchedules(srv *mcp.Server) {
	type req struct{}

	tool := &mcp.Tool{
		Name:        "fiskal_run_due_schedules",
		Description: "Execute every schedule whose next run time has passed",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.ExecuteDue(ctx, svc.now())
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req])
}
