// Command devicemesh dispatches actions against a simulator target and
// reports their lifecycle as a JSON event stream on stdout.
//
// Usage:
//
//	devicemesh -udid <UDID> run install /path/to/App.app
//	devicemesh -udid <UDID> run record start out.mov   # Ctrl-C stops the recording
//	devicemesh -udid <UDID> relay                      # serve the HTTP relay
//	devicemesh -udid <UDID> mcp                        # serve MCP over stdio
//
// Configuration is layered: built-in defaults, ~/.devicemesh/config.yaml (or
// -config), then DEVICEMESH_ environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/devicemesh/config"
	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/diagnostic"
	"github.com/hupe1980/devicemesh/dispatch"
	"github.com/hupe1980/devicemesh/logging"
	"github.com/hupe1980/devicemesh/mcp"
	"github.com/hupe1980/devicemesh/relay"
	"github.com/hupe1980/devicemesh/reporter"
	"github.com/hupe1980/devicemesh/simulator"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	udid := flag.String("udid", "", "Target device UDID (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *udid != "" {
		cfg.Target.UDID = *udid
	}
	if cfg.Target.UDID == "" {
		// Fall back to the booted simulator when no device is configured.
		device, err := simulator.FindBootedDevice(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: no target UDID configured and no booted simulator found (use -udid or DEVICEMESH_TARGET_UDID)")
			os.Exit(1)
		}
		cfg.Target.UDID = device.UDID
		if cfg.Target.Name == "" {
			cfg.Target.Name = device.Name
		}
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, false)

	var targetOpts []func(o *simulator.Options)
	targetOpts = append(targetOpts, simulator.WithLogger(logger))
	if cfg.Target.Name != "" {
		targetOpts = append(targetOpts, simulator.WithName(cfg.Target.Name))
	}
	if cfg.Target.LogDir != "" {
		targetOpts = append(targetOpts, simulator.WithLogDir(cfg.Target.LogDir))
	}
	target := simulator.NewTarget(cfg.Target.UDID, targetOpts...)

	var rep core.Reporter
	if cfg.Events.Format == "log" {
		rep = reporter.NewLogging(logger)
	} else {
		rep = reporter.NewWriter(os.Stdout)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: devicemesh [flags] run|relay|mcp ...")
		os.Exit(2)
	}

	switch args[0] {
	case "run":
		runOnce(cfg, target, rep, args[1:])
	case "relay":
		serveRelay(cfg, target, rep, logger)
	case "mcp":
		serveMCP(target, rep, logger)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", args[0])
		os.Exit(2)
	}
}

func runOnce(cfg *config.Config, target core.Target, rep core.Reporter, args []string) {
	action, err := parseAction(cfg, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	result := dispatch.RunAction(ctx, action, target, rep)

	if !result.Success {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
		os.Exit(1)
	}

	// Handle-producing actions stay alive until interrupted; the handle is
	// ours to stop.
	if len(result.Handles) > 0 {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if err := result.TerminateAll(); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping handles: %v\n", err)
			os.Exit(1)
		}
	}
}

// parseAction maps CLI arguments onto an action value. Unrecognized verbs
// become custom actions so the unimplemented fallback stays observable from
// the command line.
func parseAction(cfg *config.Config, args []string) (core.Action, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing action")
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "install":
		if len(rest) < 1 {
			return nil, fmt.Errorf("install requires an application path")
		}
		codesign := len(rest) > 1 && rest[1] == "codesign"
		return core.InstallAction{Path: rest[0], CodeSign: codesign}, nil
	case "uninstall":
		if len(rest) < 1 {
			return nil, fmt.Errorf("uninstall requires a bundle id")
		}
		return core.UninstallAction{BundleID: rest[0]}, nil
	case "launch":
		if len(rest) < 1 {
			return nil, fmt.Errorf("launch requires a bundle id")
		}
		return core.LaunchAppAction{Config: core.AppLaunchConfig{BundleID: rest[0], Arguments: rest[1:]}}, nil
	case "terminate":
		if len(rest) < 1 {
			return nil, fmt.Errorf("terminate requires a bundle id")
		}
		return core.TerminateAction{BundleID: rest[0]}, nil
	case "list_apps":
		return core.ListAppsAction{}, nil
	case "record":
		if len(rest) < 1 {
			return nil, fmt.Errorf("record requires start or stop")
		}
		switch rest[0] {
		case "start":
			path := ""
			if len(rest) > 1 {
				path = rest[1]
			} else if cfg.Record.OutputDir != "" {
				path = cfg.Record.OutputDir + "/devicemesh_" + time.Now().Format("20060102_150405") + ".mov"
			}
			return core.RecordStartAction{Path: path}, nil
		case "stop":
			return core.RecordStopAction{}, nil
		}
		return nil, fmt.Errorf("record requires start or stop")
	case "xctest":
		if len(rest) < 1 {
			return nil, fmt.Errorf("xctest requires a bundle path")
		}
		timeout := time.Duration(cfg.Test.TimeoutSeconds) * time.Second
		if len(rest) > 1 {
			seconds, err := strconv.Atoi(rest[1])
			if err != nil {
				return nil, fmt.Errorf("invalid timeout %q", rest[1])
			}
			timeout = time.Duration(seconds) * time.Second
		}
		return core.LaunchXCTestAction{Config: core.TestLaunchConfig{BundlePath: rest[0], Timeout: timeout}}, nil
	case "diagnose":
		var query diagnostic.Query
		format := diagnostic.FormatCurrent
		if len(rest) > 0 && rest[0] != "" {
			query.Names = []string{rest[0]}
		}
		if len(rest) > 1 {
			format = diagnostic.Format(rest[1])
		}
		return core.DiagnoseAction{Query: query, Format: format}, nil
	}
	return core.CustomAction{Name: verb}, nil
}

func serveRelay(cfg *config.Config, target core.Target, rep core.Reporter, logger logging.Logger) {
	srv := relay.New(target, rep, relay.WithLogger(logger))
	defer func() {
		if err := srv.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing relay: %v\n", err)
		}
	}()

	httpServer := &http.Server{Addr: cfg.Relay.Listen, Handler: srv.Router()}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}()

	logger.Info("relay listening", "addr", cfg.Relay.Listen, "target", target.Description())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "Relay error: %v\n", err)
		os.Exit(1)
	}
}

func serveMCP(target core.Target, rep core.Reporter, logger logging.Logger) {
	s := mcp.NewServer(target, rep, mcp.WithLogger(logger))
	if err := mcpserver.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
