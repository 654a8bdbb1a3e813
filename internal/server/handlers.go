package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixelmend/inpaint/internal/engine"
	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

type inpaintParams struct {
	// Path is the image file to reconstruct.
	Path string `json:"path"`

	// Region is the target rectangle in pixel coordinates.
	Region geometry.Region `json:"region"`

	// Options override the configured engine defaults when present.
	Options *engine.Options `json:"options,omitempty"`

	// Output is where the result is written. Empty derives
	// "<path>.inpainted.<ext>" next to the input.
	Output string `json:"output,omitempty"`
}

// inpaintResult is the JSON payload of a successful inpaint call.
type inpaintResult struct {
	Output string `json:"output"`
	*engine.ProcessingResult
}

// handleInpaint reconstructs a region of the image at params.path and
// writes the result file. The engine runs under the configured per-request
// deadline; rejected inputs map to the client error code, pipeline
// failures to the server error code.
func (s *Server) handleInpaint(req *Request) *Response {
	var p inpaintParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if p.Path == "" {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", "path is required")
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return s.errorResponse(req.ID, codeClientError, "Cannot read image", err.Error())
	}

	opts := p.Options
	if opts == nil {
		engineOpts := s.cfg.Engine
		opts = &engineOpts
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.RequestTimeout.Std())
	defer cancel()

	res, err := engine.Reconstruct(ctx, data, p.Region, opts)
	if err != nil {
		return s.engineError(req.ID, err)
	}

	output := p.Output
	if output == "" {
		output = derivedOutputPath(p.Path, res.Format)
	}
	if err := os.WriteFile(output, res.Data, 0o644); err != nil {
		return s.errorResponse(req.ID, codeServerError, "Cannot write output", err.Error())
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  inpaintResult{Output: output, ProcessingResult: res},
	}
}

type analyzeParams struct {
	Path   string          `json:"path"`
	Region geometry.Region `json:"region"`
}

// analyzeResult pairs the context measures with the image extent, so a
// caller can validate region coordinates without a second request.
type analyzeResult struct {
	Size geometry.Size `json:"size"`
	*engine.ContextAnalysis
}

// handleAnalyze reports the context measures and the recommended method for
// a region without reconstructing anything.
func (s *Server) handleAnalyze(req *Request) *Response {
	var p analyzeParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if p.Path == "" {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", "path is required")
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return s.errorResponse(req.ID, codeClientError, "Cannot read image", err.Error())
	}
	img, _, err := raster.Decode(data)
	if err != nil {
		if errors.Is(err, raster.ErrMetadata) {
			return s.errorResponse(req.ID, codeServerError, "Image metadata unavailable", err.Error())
		}
		return s.errorResponse(req.ID, codeClientError, "Cannot decode image", err.Error())
	}
	region, ok := geometry.ClampToImage(p.Region, img.Size())
	if !ok {
		return s.errorResponse(req.ID, codeClientError, "Invalid region",
			fmt.Sprintf("%+v does not intersect %dx%d image", p.Region, img.Width, img.Height))
	}

	analysis, err := engine.AnalyzeContext(img, region)
	if err != nil {
		return s.engineError(req.ID, err)
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  analyzeResult{Size: img.Size(), ContextAnalysis: analysis},
	}
}

// engineError maps pipeline errors onto protocol codes: malformed input
// (bad region, undecodable bytes) is the caller's fault, while unusable
// metadata and internal stage failures are server faults, logged with the
// failing stage.
func (s *Server) engineError(id interface{}, err error) *Response {
	if errors.Is(err, engine.ErrInvalidRegion) || errors.Is(err, engine.ErrUndecodable) {
		return s.errorResponse(id, codeClientError, "Rejected input", err.Error())
	}
	if errors.Is(err, engine.ErrMetadataUnavailable) {
		return s.errorResponse(id, codeServerError, "Image metadata unavailable", err.Error())
	}
	if errors.Is(err, engine.ErrTimeout) {
		return s.errorResponse(id, codeServerError, "Deadline exceeded", err.Error())
	}
	var stage *engine.StageError
	if errors.As(err, &stage) {
		log.Printf("server: stage %s failed: %v", stage.Stage, stage.Err)
	}
	return s.errorResponse(id, codeServerError, "Reconstruction failed", err.Error())
}

// derivedOutputPath builds "<base>.inpainted.<ext>" next to the input,
// with the extension matching the format actually encoded.
func derivedOutputPath(input string, format raster.Format) string {
	ext := "." + string(format)
	if format == raster.FormatJPEG {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".inpainted" + ext
}
