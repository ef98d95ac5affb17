package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// loadModuleTool defines the single tool this server exposes: loading a
// TypeScript module's documentation nodes (spec §6's loader API, surfaced
// over MCP instead of an in-process bundler call).
func loadModuleTool() mcp.Tool {
	return mcp.NewTool("load_ts_module",
		mcp.WithDescription("Load documentation nodes for named exports of a TypeScript/TSX file, following re-exports and resolving types"),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Absolute path to the TypeScript/TSX file to load"),
		),
		mcp.WithArray("symbols",
			mcp.Description("Exported names to load; omit to load every known export"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}
