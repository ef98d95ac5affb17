package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleLoadModule dispatches a load_ts_module call to the orchestrator and
// serializes the resulting Asset as the tool's text content.
func (s *Server) handleLoadModule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	symbols, err := stringSliceArg(req, "symbols")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	asset, err := s.loader.Load(file, symbols)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := json.Marshal(asset)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal asset: %v", err)), nil
	}

	return mcp.NewToolResultText(string(body)), nil
}

// stringSliceArg reads an optional string-array argument, returning nil
// (meaning "all exports") when the argument is absent.
func stringSliceArg(req mcp.CallToolRequest, key string) ([]string, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
