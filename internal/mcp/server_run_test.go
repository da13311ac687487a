package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
	`"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type toolsListResult struct {
	Tools []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		InputSchema struct {
			Required []string `json:"required"`
		} `json:"inputSchema"`
	} `json:"tools"`
}

type callResult struct {
	IsError bool `json:"isError"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func TestServer_ServeStdio(t *testing.T) {
	server := newTestServer(t)

	in := strings.NewReader(strings.Join([]string{
		initializeRequest,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n") + "\n")
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ServeStdio(ctx, in, &out); err != nil {
		t.Fatalf("ServeStdio() error = %v", err)
	}

	var responses []rpcResponse
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var resp rpcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d:\n%s", len(responses), out.String())
	}

	if !strings.Contains(string(responses[0].Result), `"name":"test-server"`) {
		t.Errorf("initialize result missing server name: %s", responses[0].Result)
	}

	var list toolsListResult
	if err := json.Unmarshal(responses[1].Result, &list); err != nil {
		t.Fatalf("invalid tools/list result: %v", err)
	}
	if len(list.Tools) != 5 {
		t.Fatalf("expected 5 tools, got %d", len(list.Tools))
	}
	for _, tool := range list.Tools {
		if tool.Description == "" || tool.Description == "Tool description not available" {
			t.Errorf("tool %s has no description", tool.Name)
		}
		switch tool.Name {
		case "document_generate", "document_preview_html", "document_totals":
			if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "document" {
				t.Errorf("tool %s should require document, got %v", tool.Name, tool.InputSchema.Required)
			}
		}
	}
}

func TestServer_ServeStdio_Canceled(t *testing.T) {
	server := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := server.ServeStdio(ctx, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Errorf("ServeStdio() on a canceled context should return cleanly, got %v", err)
	}
}

func postJSON(t *testing.T, client *http.Client, url, sessionID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestServer_Handler(t *testing.T) {
	server := newTestServer(t)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()
	url := srv.URL + EndpointPath

	resp := postJSON(t, srv.Client(), url, "", initializeRequest)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initialize status = %d", resp.StatusCode)
	}
	sessionID := resp.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize should return a session id")
	}

	call, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "document_totals",
			"arguments": map[string]any{"document": invoiceJSON},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal call: %v", err)
	}

	resp = postJSON(t, srv.Client(), url, sessionID, string(call))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tools/call status = %d", resp.StatusCode)
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		t.Fatalf("invalid tools/call response: %v", err)
	}
	if rpc.Error != nil {
		t.Fatalf("tools/call failed: %s", rpc.Error.Message)
	}
	var result callResult
	if err := json.Unmarshal(rpc.Result, &result); err != nil {
		t.Fatalf("invalid tool result: %v", err)
	}
	if result.IsError || len(result.Content) == 0 || !strings.Contains(result.Content[0].Text, "Grand Total: $154.00") {
		t.Errorf("unexpected tool result: %+v", result)
	}

	resp2 := postJSON(t, srv.Client(), url, "not-a-session", string(call))
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown session status = %d, want %d", resp2.StatusCode, http.StatusBadRequest)
	}
}
