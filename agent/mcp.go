package agent

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inkwellhq/inkwell/interpret"
	"github.com/inkwellhq/inkwell/kit"
)

// RegisterMCP registers the agent's tools on an MCP server.
func (a *Agent) RegisterMCP(srv *mcp.Server) {
	a.registerInterpretTool(srv)
	a.registerChatTool(srv)
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

// --- interpret ---

type interpretReq struct {
	Input string `json:"input"`
}

type interpretResp struct {
	Descriptors []interpret.Descriptor `json:"descriptors"`
	Destructive bool                   `json:"destructive"`
}

func (a *Agent) registerInterpretTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "inkwell_interpret",
		Description: "Parse a natural-language request into structured action descriptors without executing anything.",
		InputSchema: inputSchema(map[string]any{
			"input": map[string]any{"type": "string", "description": "The natural-language request to parse"},
		}, []string{"input"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*interpretReq)
		ds, err := a.chain.Parse(ctx, r.Input)
		if err != nil {
			return nil, err
		}
		return interpretResp{
			Descriptors: ds,
			Destructive: interpret.IsDestructive(r.Input),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r interpretReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- chat ---

type chatReq struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
	Confirm   bool   `json:"confirm,omitempty"`
}

func (a *Agent) registerChatTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "inkwell_chat",
		Description: "Process one conversational turn: interpret the request, apply the confirmation gate, and execute against the document store.",
		InputSchema: inputSchema(map[string]any{
			"input":      map[string]any{"type": "string", "description": "The natural-language request"},
			"session_id": map[string]any{"type": "string", "description": "Session to continue; omit to start a new one"},
			"confirm":    map[string]any{"type": "boolean", "description": "Confirm a pending destructive action"},
		}, []string{"input"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*chatReq)
		return a.Chat(ctx, r.SessionID, r.Input, r.Confirm)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r chatReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		enrich := func(ctx context.Context) context.Context {
			ctx = kit.WithTransport(ctx, "mcp")
			if r.SessionID != "" {
				ctx = kit.WithSessionID(ctx, r.SessionID)
			}
			return ctx
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: enrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
