package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/tsdocgraph/loader/pkg/host"
	"github.com/tsdocgraph/loader/pkg/mcplog"
	"github.com/tsdocgraph/loader/pkg/mcpserver"
	"github.com/tsdocgraph/loader/pkg/orchestrator"
	"github.com/tsdocgraph/loader/pkg/tsparse"
	"github.com/tsdocgraph/loader/pkg/watch"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "load":
		runLoad(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("tsdocgraph %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runLoad loads one file's documentation nodes and prints them as JSON:
// tsdocgraph load <file.ts> [symbol ...]
func runLoad(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: tsdocgraph load <file.ts> [symbol ...]")
		os.Exit(1)
	}
	filePath := args[0]
	var symbols []string
	if len(args) > 1 {
		symbols = args[1:]
	}

	parser, err := tsparse.NewManager(tsparse.DefaultConfig(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create parser: %v\n", err)
		os.Exit(1)
	}
	defer parser.Close()

	h := host.NewDefault(nil)
	defer h.Close()

	loader := orchestrator.New(parser, h, nil)

	asset, err := loader.Load(filePath, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(asset); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}
}

// runServe starts the MCP server on stdio, optionally watching a root
// directory for changes: tsdocgraph serve [--watch dir] [--log path]
func runServe(args []string) {
	var watchRoot, logPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--watch":
			if i+1 < len(args) {
				i++
				watchRoot = args[i]
			}
		case "--log":
			if i+1 < len(args) {
				i++
				logPath = args[i]
			}
		}
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config: %v\n", err)
		os.Exit(1)
	}
	if logPath == "" && cfg != nil {
		logPath = cfg.LogFile
	}
	debounceMs := 0
	if cfg != nil {
		debounceMs = cfg.DebounceMs
	}

	parser, err := tsparse.NewManager(tsparse.DefaultConfig(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create parser: %v\n", err)
		os.Exit(1)
	}
	defer parser.Close()

	h := host.NewDefault(nil)
	defer h.Close()

	loader := orchestrator.New(parser, h, slog.Default())

	if watchRoot != "" {
		opts := watch.DefaultOptions()
		if debounceMs > 0 {
			opts.DebounceMs = debounceMs
		}
		w, err := watch.New(loader, opts, slog.Default())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create watcher: %v\n", err)
			os.Exit(1)
		}
		if err := w.Start(watchRoot); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start watcher: %v\n", err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	logger, err := mcplog.NewLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}

	srv := mcpserver.NewServer(loader, logger)
	defer srv.Close()

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tsdocgraph <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  load <file> [symbol ...]   Load documentation nodes and print as JSON")
	fmt.Println("  serve [--watch dir] [--log path]   Start the MCP server on stdio")
	fmt.Println("  version                     Print version")
	fmt.Println("  help                        Show this help message")
}
