package streaminghttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"timeweathermcp/internal/dispatch"
	"timeweathermcp/internal/jsonrpc"
	"timeweathermcp/mcp"
	"timeweathermcp/registry"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()

	echo := registry.TypedTool(mcp.Tool{
		Name: "echo",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]mcp.SchemaProperty{"message": {Type: "string"}},
			Required:   []string{"message"},
		},
	}, func(ctx context.Context, a struct {
		Message string `json:"message"`
	}) (*mcp.CallToolResult, error) {
		return registry.TextResult(a.Message), nil
	})
	reg, err := registry.New([]registry.Definition{echo})
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	d := dispatch.New(mcp.ImplementationInfo{Name: "test", Version: "0"}, reg)

	srv := httptest.NewServer(New(d, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func postJSONRPC(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

func TestPostDispatchesOnBothRoutes(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/mcp"} {
		t.Run(path, func(t *testing.T) {
			resp, body := postJSONRPC(t, srv.URL+path, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if !strings.HasSuffix(body, "\n") {
				t.Fatal("response must be one newline-terminated line")
			}
			if strings.Count(body, "\n") != 1 {
				t.Fatalf("expected exactly one NDJSON line, got %q", body)
			}

			var rpc jsonrpc.Response
			if err := json.Unmarshal([]byte(body), &rpc); err != nil {
				t.Fatalf("invalid response body %q: %v", body, err)
			}
			if rpc.Error != nil || rpc.ID.String() != "1" {
				t.Fatalf("rpc = %+v", rpc)
			}
		})
	}
}

func TestPostParseErrorIsStatus200(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSONRPC(t, srv.URL+"/mcp", `not valid json`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("protocol errors ride inside the envelope; status = %d", resp.StatusCode)
	}
	var rpc jsonrpc.Response
	if err := json.Unmarshal([]byte(body), &rpc); err != nil {
		t.Fatalf("invalid response body %q: %v", body, err)
	}
	if rpc.Error == nil || rpc.Error.Code != jsonrpc.ErrorCodeParseError {
		t.Fatalf("rpc = %+v", rpc)
	}
	if !rpc.ID.IsNil() {
		t.Fatalf("id = %q, want null", rpc.ID.String())
	}
}

func TestPostContentTypeNegotiation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		accept string
		want   string
	}{
		{accept: "", want: "application/x-ndjson"},
		{accept: "application/x-ndjson", want: "application/x-ndjson"},
		{accept: "application/json", want: "application/json"},
		{accept: "text/html", want: "application/x-ndjson"},
	}
	for _, tc := range cases {
		t.Run("accept="+tc.accept, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
			if err != nil {
				t.Fatal(err)
			}
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer func() { _ = resp.Body.Close() }()
			if got := resp.Header.Get("Content-Type"); got != tc.want {
				t.Fatalf("Content-Type = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHealthAnswersIndependently(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	var status map[string]string
	if err := json.Unmarshal(b, &status); err != nil {
		t.Fatalf("body %q: %v", b, err)
	}
	if status["status"] != "healthy" {
		t.Fatalf("status = %v", status)
	}
}

func TestGetOnRPCRouteIsMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/mcp", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS allow-origin header")
	}
}

func TestWithoutCORSDisablesHeaders(t *testing.T) {
	srv := newTestServer(t, WithoutCORS())

	resp, _ := postJSONRPC(t, srv.URL+"/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if resp.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("CORS headers present despite WithoutCORS")
	}
}

func TestConcurrentCallsCorrelateByID(t *testing.T) {
	srv := newTestServer(t)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"echo","arguments":{"message":"msg-%d"}}}`, i, i)
			resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
			if err != nil {
				errs <- err
				return
			}
			defer func() { _ = resp.Body.Close() }()
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				errs <- err
				return
			}
			var rpc jsonrpc.Response
			if err := json.Unmarshal(b, &rpc); err != nil {
				errs <- fmt.Errorf("invalid body %q: %w", b, err)
				return
			}
			if rpc.ID.String() != fmt.Sprintf("%d", i) {
				errs <- fmt.Errorf("request %d answered with id %s", i, rpc.ID.String())
				return
			}
			var result mcp.CallToolResult
			if err := json.Unmarshal(rpc.Result, &result); err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprintf("msg-%d", i); result.Content[0].Text != want {
				errs <- fmt.Errorf("request %d got %q, want %q: cross-talk", i, result.Content[0].Text, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
