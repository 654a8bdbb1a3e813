package server

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pixelmend/inpaint/internal/config"
)

func TestNew(t *testing.T) {
	s := New(nil)
	if s.cfg == nil {
		t.Fatal("nil config should fall back to defaults")
	}
	if cap(s.sem) != s.cfg.Server.MaxConcurrent {
		t.Errorf("semaphore capacity %d, want %d", cap(s.sem), s.cfg.Server.MaxConcurrent)
	}
}

func TestRequest_Unmarshal(t *testing.T) {
	line := `{"jsonrpc":"2.0","id":7,"method":"inpaint","params":{"path":"a.png"}}`
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Method != "inpaint" {
		t.Errorf("method: got %s", req.Method)
	}
	if req.ID != float64(7) {
		t.Errorf("id: got %v (%T)", req.ID, req.ID)
	}
	if len(req.Params) == 0 {
		t.Error("params should be retained as raw JSON")
	}
}

func TestResponse_Marshal(t *testing.T) {
	resp := &Response{JSONRPC: "2.0", ID: 1, Result: map[string]interface{}{"ok": true}}
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "error") {
		t.Errorf("success response should omit the error field: %s", out)
	}

	resp = &Response{JSONRPC: "2.0", ID: 1, Error: &RPCError{Code: codeClientError, Message: "Rejected input"}}
	out, err = json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"code":-32001`) {
		t.Errorf("error response missing code: %s", out)
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := New(config.Default())
	resp := s.handleRequest(&Request{JSONRPC: "2.0", ID: 1, Method: "ping"})
	if resp.Error != nil {
		t.Fatalf("ping failed: %+v", resp.Error)
	}
	if resp.ID != 1 {
		t.Errorf("response id: got %v", resp.ID)
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := New(config.Default())
	resp := s.handleRequest(&Request{JSONRPC: "2.0", ID: 2, Method: "sharpen"})
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("want method-not-found, got %+v", resp)
	}
}

func TestRun_LineLoop(t *testing.T) {
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
			"\n" + // blank lines are skipped
			`{"jsonrpc":"2.0","id":2,"method":"nope"}` + "\n")
	var out bytes.Buffer

	s := newWithIO(config.Default(), in, &out)
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d responses, want 2: %q", len(lines), out.String())
	}
	// Responses may be reordered; collect by id.
	byID := map[float64]*Response{}
	for _, line := range lines {
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("bad response line %q: %v", line, err)
		}
		byID[resp.ID.(float64)] = &resp
	}
	if byID[1] == nil || byID[1].Error != nil {
		t.Errorf("ping response: %+v", byID[1])
	}
	if byID[2] == nil || byID[2].Error == nil || byID[2].Error.Code != codeMethodNotFound {
		t.Errorf("unknown method response: %+v", byID[2])
	}
}

func TestRun_ParseError(t *testing.T) {
	in := strings.NewReader("{not json\n")
	var out bytes.Buffer

	s := newWithIO(config.Default(), in, &out)
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeParse {
		t.Errorf("want parse error, got %+v", resp)
	}
}
