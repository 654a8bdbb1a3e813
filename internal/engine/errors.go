package engine

import (
	"errors"
	"fmt"

	"github.com/pixelmend/inpaint/internal/raster"
)

// Error taxonomy of the reconstruction pipeline. All internal failures are
// annotated with the originating stage at the orchestrator boundary and
// surface as a single typed failure; nothing is retried, since the
// pipeline is deterministic for fixed inputs.
var (
	// ErrInvalidRegion marks a caller rectangle with non-positive extents
	// or entirely outside the image. Raised before any pixel work.
	ErrInvalidRegion = errors.New("engine: invalid region")

	// ErrUndecodable marks input bytes that do not parse as a supported
	// image. The caller sent malformed data.
	ErrUndecodable = errors.New("engine: undecodable image data")

	// ErrMetadataUnavailable marks input that decodes without usable
	// dimensions. Fatal for the request.
	ErrMetadataUnavailable = errors.New("engine: image metadata unavailable")

	// ErrExtractOutOfBounds marks an internal expanded window used without
	// re-clamping. This is a programming-contract violation, not a caller
	// error; it is kept distinct from ErrInvalidRegion so logs point at
	// margin arithmetic rather than the request rectangle.
	ErrExtractOutOfBounds = errors.New("engine: internal extract window out of bounds")

	// ErrTimeout marks a reconstruction abandoned past its deadline.
	ErrTimeout = errors.New("engine: reconstruction deadline exceeded")
)

// StageError wraps any synthesis/blending failure with the name of the
// pipeline stage it originated in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("engine: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// wrapStage annotates an error with its stage, promoting raster bounds
// violations to ErrExtractOutOfBounds on the way.
func wrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, raster.ErrOutOfBounds) {
		err = fmt.Errorf("%w: %v", ErrExtractOutOfBounds, err)
	}
	return &StageError{Stage: stage, Err: err}
}
