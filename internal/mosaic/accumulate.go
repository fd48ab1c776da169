package mosaic

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// zeroAreaSentinel replaces zero-valued area samples before the reciprocal is
// taken. Degenerate pixels then contribute a vanishing weight instead of
// dividing by zero and poisoning the sums with NaN.
const zeroAreaSentinel = 10000000.0

// NoData is the no-data value of the final composite. Pixels never covered by
// any input keep it after finalization.
const NoData = 0.0

// offsetTolerance is the accepted distance of a placement offset from a whole
// pixel. Target-aligned warping makes offsets exact up to float noise;
// anything beyond this is a misaligned input.
const offsetTolerance = 1e-6

// Accumulator collects inverse-area weighted contributions of aligned rasters
// into one output grid. It is the only mutable state of a mosaic run: Add for
// every raster, then Finalize exactly once.
type Accumulator struct {
	cols, rows int
	originX    float64 // upper-left x of the union extent
	originY    float64 // upper-left y of the union extent
	pixelW     float64
	pixelH     float64 // negative, north-up

	values  []float64
	weights []float64
	counts  []int16
}

// NewAccumulator sizes the output grid from the union extent and the common
// pixel size.
func NewAccumulator(union orb.Bound, pixelW, pixelH float64) (*Accumulator, error) {
	cols, rows, err := gridSize(union, pixelW, pixelH)
	if err != nil {
		return nil, err
	}

	return &Accumulator{
		cols:    cols,
		rows:    rows,
		originX: union.Min[0],
		originY: union.Max[1],
		pixelW:  pixelW,
		pixelH:  pixelH,
		values:  make([]float64, cols*rows),
		weights: make([]float64, cols*rows),
		counts:  make([]int16, cols*rows),
	}, nil
}

// Size returns the output grid dimensions.
func (a *Accumulator) Size() (cols, rows int) { return a.cols, a.rows }

// ValueSum returns the running weighted value sums, for diagnostic snapshots.
// The slice aliases the accumulator's state.
func (a *Accumulator) ValueSum() []float64 { return a.values }

// Add accumulates one aligned raster: values and areas are row-major grids of
// w x h samples sharing the footprint rec. Per pixel it adds value/area to the
// value sums, 1/area to the weight sums and 1 to the coverage counts.
func (a *Accumulator) Add(rec Corners, values, areas []float64, w, h int) error {
	if len(values) != w*h || len(areas) != w*h {
		return fmt.Errorf("%w: %s: value/area grids do not match %d x %d samples",
			ErrGeometry, rec.ID, w, h)
	}

	offX, err := a.placement(rec.ID, rec.Bound.Min[0]-a.originX, a.pixelW)
	if err != nil {
		return err
	}
	offY, err := a.placement(rec.ID, rec.Bound.Max[1]-a.originY, a.pixelH)
	if err != nil {
		return err
	}

	if offX+w > a.cols || offY+h > a.rows {
		return fmt.Errorf("%w: %s: placement %d,%d of %d x %d samples exceeds the %d x %d output grid",
			ErrGeometry, rec.ID, offX, offY, w, h, a.cols, a.rows)
	}

	for row := 0; row < h; row++ {
		src := row * w
		dst := (offY+row)*a.cols + offX
		for col := 0; col < w; col++ {
			area := areas[src+col]
			if area == 0 {
				area = zeroAreaSentinel
			}

			a.values[dst+col] += values[src+col] / area
			a.weights[dst+col] += 1.0 / area
			a.counts[dst+col]++
		}
	}

	return nil
}

// placement converts a ground-coordinate distance into a whole-pixel offset.
// A fractional or negative offset means the input was not target-aligned and
// is surfaced as an error instead of being truncated into a misplaced raster.
func (a *Accumulator) placement(id string, distance, pixelSize float64) (int, error) {
	off := distance / pixelSize
	rounded := math.Round(off)

	if math.Abs(off-rounded) > offsetTolerance {
		return 0, fmt.Errorf("%w: %s: placement offset %g is not a whole pixel", ErrGeometry, id, off)
	}
	if rounded < 0 {
		return 0, fmt.Errorf("%w: %s: negative placement offset %g", ErrGeometry, id, off)
	}

	return int(rounded), nil
}

// Finalize normalizes the value sums by the weight sums and returns the final
// composite grid and the coverage counts. Pixels without any coverage get
// NoData.
func (a *Accumulator) Finalize() (composite []float64, counts []int16) {
	for i, w := range a.weights {
		if w == 0 {
			a.values[i] = NoData
			continue
		}
		a.values[i] /= w
	}

	return a.values, a.counts
}
