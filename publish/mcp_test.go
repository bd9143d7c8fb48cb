package publish

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "depeche-test", Version: "0.1.0"}

func mcpSession(t *testing.T) (*mcp.ClientSession, *fakePlatform) {
	t.Helper()
	f := &fakePlatform{}
	srvHTTP := httptest.NewServer(f.router())
	t.Cleanup(srvHTTP.Close)
	pub, err := New(testConfig(t, srvHTTP.URL), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pub.Close() })

	srv := mcp.NewServer(testMCPImpl, nil)
	pub.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session, f
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_Formats(t *testing.T) {
	session, _ := mcpSession(t)

	text := mcpCallTool(t, session, "depeche_formats", map[string]any{})

	var resp struct {
		Formats []string `json:"formats"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	expected := map[string]bool{"markdown": true, "json": true, "html": true}
	for _, f := range resp.Formats {
		if !expected[f] {
			t.Errorf("unexpected format: %q", f)
		}
		delete(expected, f)
	}
	for f := range expected {
		t.Errorf("missing format: %q", f)
	}
}

func TestMCP_Compile(t *testing.T) {
	session, f := mcpSession(t)

	text := mcpCallTool(t, session, "depeche_compile", map[string]any{
		"source":  testReport,
		"name":    "report.md",
		"dest_id": "dest-1",
	})

	var resp struct {
		Requests int      `json:"requests"`
		Blocks   int      `json:"blocks"`
		Steps    []string `json:"steps"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Requests == 0 || len(resp.Steps) != resp.Requests {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Steps[0], "Create root document") {
		t.Errorf("steps[0] = %q", resp.Steps[0])
	}
	if f.pageCreates() != 0 {
		t.Error("compile must not touch the network")
	}
}

func TestMCP_Publish(t *testing.T) {
	session, f := mcpSession(t)

	text := mcpCallTool(t, session, "depeche_publish", map[string]any{
		"source":  testReport,
		"name":    "report.md",
		"dest_id": "dest-1",
	})

	var resp struct {
		RunID   string `json:"run_id"`
		Outcome string `json:"outcome"`
		RootURL string `json:"root_url"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Outcome != "success" || resp.RunID == "" {
		t.Errorf("resp = %+v", resp)
	}
	if f.pageCreates() == 0 {
		t.Error("publish never reached the platform")
	}
}
