package server

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixelmend/inpaint/internal/config"
	"github.com/pixelmend/inpaint/internal/engine"
	"github.com/pixelmend/inpaint/internal/raster"
)

// writeTestImage writes a flat 64x64 PNG and returns its path.
func writeTestImage(t *testing.T) string {
	t.Helper()
	img := raster.NewFilled(64, 64, 120, 130, 140)
	data, err := raster.Encode(img, raster.FormatPNG)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "input.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// garbageFile writes a file that is not a decodable image.
func garbageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func call(t *testing.T, s *Server, method string, params interface{}) *Response {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return s.handleRequest(&Request{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
}

func TestHandleInpaint(t *testing.T) {
	s := New(config.Default())
	path := writeTestImage(t)

	resp := call(t, s, "inpaint", map[string]interface{}{
		"path":   path,
		"region": map[string]int{"x": 20, "y": 20, "width": 16, "height": 16},
	})
	if resp.Error != nil {
		t.Fatalf("inpaint failed: %+v", resp.Error)
	}

	result, ok := resp.Result.(inpaintResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.Method != engine.MethodBasic {
		t.Errorf("method: got %s, want %s", result.Method, engine.MethodBasic)
	}
	if result.Output != derivedOutputPath(path, raster.FormatPNG) {
		t.Errorf("output path: got %s", result.Output)
	}

	data, err := os.ReadFile(result.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	img, format, err := raster.Decode(data)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != raster.FormatPNG || img.Width != 64 || img.Height != 64 {
		t.Errorf("output: %s %dx%d, want png 64x64", format, img.Width, img.Height)
	}
}

func TestHandleInpaint_ExplicitOutput(t *testing.T) {
	s := New(config.Default())
	path := writeTestImage(t)
	output := filepath.Join(filepath.Dir(path), "result.png")

	resp := call(t, s, "inpaint", map[string]interface{}{
		"path":   path,
		"region": map[string]int{"x": 10, "y": 10, "width": 20, "height": 20},
		"output": output,
	})
	if resp.Error != nil {
		t.Fatalf("inpaint failed: %+v", resp.Error)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestHandleInpaint_Errors(t *testing.T) {
	s := New(config.Default())
	path := writeTestImage(t)

	tests := []struct {
		name     string
		params   interface{}
		wantCode int
	}{
		{"missing path", map[string]interface{}{"region": map[string]int{"width": 5, "height": 5}}, codeInvalidParams},
		{"nonexistent file", map[string]interface{}{
			"path":   filepath.Join(t.TempDir(), "missing.png"),
			"region": map[string]int{"width": 5, "height": 5},
		}, codeClientError},
		{"region outside image", map[string]interface{}{
			"path":   path,
			"region": map[string]int{"x": 500, "y": 500, "width": 10, "height": 10},
		}, codeClientError},
		{"undecodable file", map[string]interface{}{
			"path":   garbageFile(t),
			"region": map[string]int{"width": 5, "height": 5},
		}, codeClientError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, s, "inpaint", tt.params)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("got %+v, want code %d", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestHandleInpaint_MalformedParams(t *testing.T) {
	s := New(config.Default())
	resp := s.handleRequest(&Request{JSONRPC: "2.0", ID: 1, Method: "inpaint", Params: []byte(`{"path":42}`)})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Errorf("got %+v, want invalid params", resp.Error)
	}
}

func TestHandleAnalyze(t *testing.T) {
	s := New(config.Default())
	path := writeTestImage(t)

	resp := call(t, s, "analyze", map[string]interface{}{
		"path":   path,
		"region": map[string]int{"x": 20, "y": 20, "width": 16, "height": 16},
	})
	if resp.Error != nil {
		t.Fatalf("analyze failed: %+v", resp.Error)
	}
	result, ok := resp.Result.(analyzeResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.Size.Width != 64 || result.Size.Height != 64 {
		t.Errorf("size: got %+v", result.Size)
	}
	if result.RecommendedMethod != engine.MethodBasic {
		t.Errorf("method for flat image: got %s, want %s", result.RecommendedMethod, engine.MethodBasic)
	}
}

func TestHandleAnalyze_Errors(t *testing.T) {
	s := New(config.Default())

	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	resp := call(t, s, "analyze", map[string]interface{}{
		"path":   garbage,
		"region": map[string]int{"width": 5, "height": 5},
	})
	if resp.Error == nil || resp.Error.Code != codeClientError {
		t.Errorf("undecodable file: got %+v, want client error", resp.Error)
	}

	path := writeTestImage(t)
	resp = call(t, s, "analyze", map[string]interface{}{
		"path":   path,
		"region": map[string]int{"x": 100, "y": 100, "width": 10, "height": 10},
	})
	if resp.Error == nil || resp.Error.Code != codeClientError {
		t.Errorf("outside region: got %+v, want client error", resp.Error)
	}
}

func TestEngineError_CodeMapping(t *testing.T) {
	s := New(config.Default())
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid region", engine.ErrInvalidRegion, codeClientError},
		{"undecodable input", engine.ErrUndecodable, codeClientError},
		{"metadata unavailable", engine.ErrMetadataUnavailable, codeServerError},
		{"timeout", engine.ErrTimeout, codeServerError},
		{"stage failure", &engine.StageError{Stage: "feathering", Err: errors.New("boom")}, codeServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.engineError(1, tt.err)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("engineError(%v) = %+v, want code %d", tt.err, resp.Error, tt.wantCode)
			}
		})
	}
}

func TestDerivedOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		format raster.Format
		want   string
	}{
		{"photos/cat.png", raster.FormatPNG, "photos/cat.inpainted.png"},
		{"scan.jpeg", raster.FormatJPEG, "scan.inpainted.jpg"},
		{"frame", raster.FormatPNG, "frame.inpainted.png"},
		{"anim.gif", raster.FormatGIF, "anim.inpainted.gif"},
	}
	for _, tt := range tests {
		if got := derivedOutputPath(tt.input, tt.format); got != tt.want {
			t.Errorf("derivedOutputPath(%q, %s) = %q, want %q", tt.input, tt.format, got, tt.want)
		}
	}
}
