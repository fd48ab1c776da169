package mosaic

import "errors"

// Error kinds of a mosaic run. Both are fatal: the run aborts without writing
// any output. Wrap with fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrConfig marks unusable input configurations: unknown polarization,
	// fewer than two usable rasters, missing area-map counterpart.
	ErrConfig = errors.New("invalid input configuration")

	// ErrGeometry marks inconsistent grid geometry: non-integer or negative
	// placement offsets, zero-sized output grid, shape mismatches. These
	// signal an alignment bug upstream, never a recoverable condition.
	ErrGeometry = errors.New("inconsistent grid geometry")
)
