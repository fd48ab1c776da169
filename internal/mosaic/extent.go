package mosaic

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Corners is the footprint of one aligned raster in the common coordinate
// reference. Bound.Min is the lower-left corner, Bound.Max the upper-right.
type Corners struct {
	ID    string
	Bound orb.Bound
}

// Union reduces corner records to the bounding box of all footprints. The
// reduction is commutative and associative, so record order is irrelevant.
func Union(recs []Corners) (orb.Bound, error) {
	if len(recs) == 0 {
		return orb.Bound{}, fmt.Errorf("%w: no corner records to unify", ErrConfig)
	}

	b := recs[0].Bound
	for _, rec := range recs[1:] {
		b = b.Union(rec.Bound)
	}

	return b, nil
}

// gridSize derives the output raster dimensions from a union extent and the
// common pixel size, truncating to whole pixels.
func gridSize(b orb.Bound, pixelW, pixelH float64) (cols, rows int, err error) {
	cols = wholePixels(math.Abs((b.Min[0] - b.Max[0]) / pixelW))
	rows = wholePixels(math.Abs((b.Min[1] - b.Max[1]) / pixelH))

	if cols <= 0 || rows <= 0 {
		return 0, 0, fmt.Errorf("%w: output grid is %d x %d pixels", ErrGeometry, cols, rows)
	}

	return cols, rows, nil
}

// wholePixels truncates a pixel span, except that spans within the placement
// tolerance of a whole pixel snap to it. Corners come out of the same float
// pipeline as the placement offsets; truncating their noise would shrink the
// grid by one pixel and fail flush-to-edge rasters in Accumulator.Add.
func wholePixels(span float64) int {
	r := math.Round(span)
	if math.Abs(span-r) <= offsetTolerance {
		return int(r)
	}

	return int(span)
}
