package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/diagnostic"
	"github.com/hupe1980/devicemesh/dispatch"
	"github.com/hupe1980/devicemesh/logging"
)

const (
	serverName    = "devicemesh"
	serverVersion = "1.0.0"
)

// Options holds dependency overrides passed to NewServer().
type Options struct {
	// Logger receives operational logs.
	Logger logging.Logger
}

// Server is the MCP tool server bound to one target and reporter.
type Server struct {
	mcpServer *server.MCPServer
	target    core.Target
	reporter  core.Reporter
	logger    logging.Logger

	mu      sync.Mutex
	handles map[string]core.TerminationHandle
}

// NewServer creates the MCP server and registers the action tools.
func NewServer(target core.Target, rep core.Reporter, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		target:   target,
		reporter: rep,
		logger:   opts.Logger,
		handles:  make(map[string]core.TerminationHandle),
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// WithLogger sets the operational logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("install_app",
			mcp.WithDescription("Install an application bundle on the target"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .app bundle")),
			mcp.WithBoolean("codesign", mcp.Description("Re-sign the bundle with the ad-hoc identity before installing")),
		),
		s.handleInstallApp,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("uninstall_app",
			mcp.WithDescription("Uninstall an application from the target"),
			mcp.WithString("bundle_id", mcp.Required(), mcp.Description("Bundle identifier of the application")),
		),
		s.handleUninstallApp,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("launch_app",
			mcp.WithDescription("Launch an installed application on the target"),
			mcp.WithString("bundle_id", mcp.Required(), mcp.Description("Bundle identifier of the application")),
		),
		s.handleLaunchApp,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("terminate_app",
			mcp.WithDescription("Terminate a running application on the target"),
			mcp.WithString("bundle_id", mcp.Required(), mcp.Description("Bundle identifier of the application")),
		),
		s.handleTerminateApp,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_apps",
			mcp.WithDescription("List applications installed on the target"),
		),
		s.handleListApps,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("record_video_start",
			mcp.WithDescription("Start video recording on the target; returns a handle id to stop it"),
			mcp.WithString("output_path", mcp.Description("Output file path (uses a temp file if not specified)")),
		),
		s.handleRecordVideoStart,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("record_video_stop",
			mcp.WithDescription("Stop the active video recording on the target"),
		),
		s.handleRecordVideoStop,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run_xctest",
			mcp.WithDescription("Run a test bundle against the target"),
			mcp.WithString("bundle_path", mcp.Required(), mcp.Description("Path to the .xctestrun file or project")),
			mcp.WithNumber("timeout_seconds", mcp.Description("Seconds to wait for completion; 0 starts the run and returns immediately")),
		),
		s.handleRunXCTest,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("diagnose",
			mcp.WithDescription("Query target diagnostics"),
			mcp.WithString("name", mcp.Description("Restrict to diagnostics with this short name")),
			mcp.WithString("format", mcp.Description("Output transform: current, content or path")),
		),
		s.handleDiagnose,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("stop_handle",
			mcp.WithDescription("Terminate an open handle returned by a previous tool call"),
			mcp.WithString("handle_id", mcp.Required(), mcp.Description("Handle id to terminate")),
		),
		s.handleStopHandle,
	)
}

// run dispatches one action and renders the result as a tool response,
// registering any handles the run left open.
func (s *Server) run(ctx context.Context, action core.Action) (*mcp.CallToolResult, error) {
	result := dispatch.RunAction(ctx, action, s.target, s.reporter)
	s.logger.Info("tool action completed", "kind", string(action.Kind()), "success", result.Success)

	if !result.Success {
		return mcp.NewToolResultError(result.Error), nil
	}

	doc := map[string]any{"success": true}
	if result.Subject != nil {
		if data, err := result.Subject.MarshalJSON(); err == nil {
			doc["subject"] = json.RawMessage(data)
		}
	}
	if len(result.Handles) > 0 {
		ids := make([]string, 0, len(result.Handles))
		for _, h := range result.Handles {
			id := core.NewID()
			s.mu.Lock()
			s.handles[id] = h
			s.mu.Unlock()
			ids = append(ids, id)
		}
		doc["handle_ids"] = ids
	}

	output, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format output: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleInstallApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.InstallAction{
		Path:     req.GetString("path", ""),
		CodeSign: req.GetBool("codesign", false),
	})
}

func (s *Server) handleUninstallApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.UninstallAction{BundleID: req.GetString("bundle_id", "")})
}

func (s *Server) handleLaunchApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.LaunchAppAction{
		Config: core.AppLaunchConfig{BundleID: req.GetString("bundle_id", "")},
	})
}

func (s *Server) handleTerminateApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.TerminateAction{BundleID: req.GetString("bundle_id", "")})
}

func (s *Server) handleListApps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.ListAppsAction{})
}

func (s *Server) handleRecordVideoStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.RecordStartAction{Path: req.GetString("output_path", "")})
}

func (s *Server) handleRecordVideoStop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.RecordStopAction{})
}

func (s *Server) handleRunXCTest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, core.LaunchXCTestAction{
		Config: core.TestLaunchConfig{
			BundlePath: req.GetString("bundle_path", ""),
			Timeout:    time.Duration(req.GetInt("timeout_seconds", 0)) * time.Second,
		},
	})
}

func (s *Server) handleDiagnose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var query diagnostic.Query
	if name := req.GetString("name", ""); name != "" {
		query.Names = []string{name}
	}
	return s.run(ctx, core.DiagnoseAction{
		Query:  query,
		Format: diagnostic.Format(req.GetString("format", "current")),
	})
}

func (s *Server) handleStopHandle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("handle_id", "")

	s.mu.Lock()
	handle, ok := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if !ok {
		return mcp.NewToolResultError("unknown handle " + id), nil
	}
	if err := handle.Terminate(); err != nil {
		return mcp.NewToolResultError(core.FailureMessage(err)), nil
	}
	return mcp.NewToolResultText("Handle " + id + " terminated"), nil
}
