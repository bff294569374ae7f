package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stillmind-app/stillmind/internal/api"
	"github.com/stillmind-app/stillmind/internal/catalog"
	"github.com/stillmind-app/stillmind/internal/models"
	"github.com/stillmind-app/stillmind/internal/stats"
	"github.com/stillmind-app/stillmind/internal/store"
)

// Server wraps the stillmind data layer and exposes it as MCP tools.
type Server struct {
	store   store.Store
	backend *api.Client
	catalog *catalog.Catalog
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(s store.Store, backend *api.Client, cat *catalog.Catalog) *Server {
	return &Server{store: s, backend: backend, catalog: cat}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("stillmind", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.getStatsTool())
	srv.AddTool(s.listMeditationsTool())
	srv.AddTool(s.logSessionTool())
	srv.AddTool(s.listSessionsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// stillmind_get_stats
func (s *Server) getStatsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stillmind_get_stats",
		mcp.WithDescription("Get meditation statistics: total minutes, total sessions, streaks, the trailing 7-day chart, and the last session. Requires a logged-in credential."),
	)
	return tool, s.handleGetStats
}

func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := s.store.AuthToken(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read credential: %v", err)), nil
	}
	if token == "" {
		return mcp.NewToolResultError("not logged in; run 'stillmind login' first"), nil
	}

	remote, err := s.backend.FetchStats(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch stats: %v", err)), nil
	}
	view := stats.BuildView(remote, time.Now())

	out := struct {
		models.StatsView
		BestDay      models.DailyBucket `json:"bestDay"`
		WeeklyStreak int                `json:"weeklyStreak"`
	}{
		StatsView:    view,
		BestDay:      stats.BestDay(view.WeeklyChart),
		WeeklyStreak: stats.WeeklyStreak(view.WeeklyChart),
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stillmind_list_meditations
func (s *Server) listMeditationsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stillmind_list_meditations",
		mcp.WithDescription("List the guided meditation catalog. Returns a JSON array with id, title, and description."),
	)
	return tool, s.handleListMeditations
}

func (s *Server) handleListMeditations(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(s.catalog.List())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal catalog: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stillmind_log_session
func (s *Server) logSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stillmind_log_session",
		mcp.WithDescription("Record a completed meditation session in the local journal and, when logged in, the remote history."),
		mcp.WithNumber("minutes", mcp.Required(), mcp.Description("Session length in whole minutes, at least 1")),
		mcp.WithString("meditation_id", mcp.Required(), mcp.Description("Catalog id of the meditation")),
	)
	return tool, s.handleLogSession
}

func (s *Server) handleLogSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minutes := request.GetInt("minutes", 0)
	if minutes < 1 {
		return mcp.NewToolResultError("minutes must be at least 1"), nil
	}
	medID, err := request.RequireString("meditation_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: meditation_id"), nil
	}
	entry, ok := s.catalog.Get(medID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown meditation id %q", medID)), nil
	}

	rec := models.SessionRecord{
		Minutes:      minutes,
		MeditationID: entry.ID,
		Title:        entry.Title,
		Date:         time.Now().UTC(),
	}

	synced := false
	if token, err := s.store.AuthToken(ctx); err == nil && token != "" {
		synced = s.backend.AddSession(ctx, token, rec) == nil
	}
	if err := s.store.AppendSession(ctx, &rec, synced); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("append session: %v", err)), nil
	}

	data, _ := json.Marshal(map[string]any{"id": rec.ID, "synced": synced})
	return mcp.NewToolResultText(string(data)), nil
}

// stillmind_list_sessions
func (s *Server) listSessionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stillmind_list_sessions",
		mcp.WithDescription("List recent sessions from the local journal, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return (default 20)")),
	)
	return tool, s.handleListSessions
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)
	sessions, err := s.store.ListSessions(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list sessions: %v", err)), nil
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal sessions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
