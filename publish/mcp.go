package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the publisher tools on an MCP server.
func (p *Publisher) RegisterMCP(srv *mcp.Server) {
	p.registerCompileTool(srv)
	p.registerPublishTool(srv)
	registerFormatsTool(srv)
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

// addTool adapts an endpoint returning (any, error) onto the MCP handler
// shape: tool errors become error results, successes are JSON text content.
func addTool(srv *mcp.Server, tool *mcp.Tool, endpoint func(context.Context, json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := endpoint(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- compile ---

type compileReq struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	DestID string `json:"dest_id"`
}

func (p *Publisher) registerCompileTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "depeche_compile",
		Description: "Compile a report (markdown, json or html) into a publication plan without publishing. Returns the step list and advisory notes.",
		InputSchema: inputSchema(map[string]any{
			"source":  map[string]any{"type": "string", "description": "Report content"},
			"name":    map[string]any{"type": "string", "description": "File name hint for format detection"},
			"dest_id": map[string]any{"type": "string", "description": "Destination container ID"},
		}, []string{"source", "dest_id"}),
	}
	addTool(srv, tool, func(_ context.Context, args json.RawMessage) (any, error) {
		var r compileReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		pl, stats, err := p.Compile([]byte(r.Source), r.Name, r.DestID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"requests": len(pl.Requests),
			"blocks":   stats.Blocks,
			"steps":    pl.Steps,
			"notes":    pl.Notes,
		}, nil
	})
}

// --- publish ---

type publishReq struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	DestID string `json:"dest_id"`
}

func (p *Publisher) registerPublishTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "depeche_publish",
		Description: "Compile a report and publish it to the document platform. Returns the run ID, outcome and root document URL.",
		InputSchema: inputSchema(map[string]any{
			"source":  map[string]any{"type": "string", "description": "Report content"},
			"name":    map[string]any{"type": "string", "description": "File name hint for format detection"},
			"dest_id": map[string]any{"type": "string", "description": "Destination container ID"},
		}, []string{"source", "dest_id"}),
	}
	addTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r publishReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		runID, res, err := p.Publish(ctx, []byte(r.Source), r.Name, r.DestID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"run_id":   runID,
			"outcome":  res.Report.Summary.Outcome,
			"root_url": res.RootURL,
			"warnings": res.Report.Warnings,
		}, nil
	})
}

// --- formats ---

func registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "depeche_formats",
		Description: "List the report formats the publisher accepts.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]any{"formats": Formats()}, nil
	})
}
