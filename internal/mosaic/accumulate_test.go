package mosaic

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// footprint builds the corner record of a w x h raster with its upper-left
// corner at (ulx, uly) on a unit pixel grid.
func footprint(id string, ulx, uly float64, w, h int) Corners {
	return Corners{ID: id, Bound: orb.Bound{
		Min: orb.Point{ulx, uly - float64(h)},
		Max: orb.Point{ulx + float64(w), uly},
	}}
}

func fill(n int, v float64) []float64 {
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = v
	}
	return grid
}

func TestAccumulatorWeightedMean(t *testing.T) {
	t.Parallel()

	t.Run("two overlapping samples", func(t *testing.T) {
		t.Parallel()
		// v=[10,20], a=[1,4] -> (10/1 + 20/4) / (1/1 + 1/4) = 12.0
		rec := footprint("r", 0, 1, 1, 1)
		acc, err := NewAccumulator(rec.Bound, 1, -1)
		require.NoError(t, err)

		require.NoError(t, acc.Add(rec, []float64{10}, []float64{1}, 1, 1))
		require.NoError(t, acc.Add(rec, []float64{20}, []float64{4}, 1, 1))

		composite, counts := acc.Finalize()
		assert.Equal(t, []float64{12.0}, composite)
		assert.Equal(t, []int16{2}, counts)
	})

	t.Run("single coverage is the identity", func(t *testing.T) {
		t.Parallel()
		rec := footprint("r", 0, 1, 1, 1)
		acc, err := NewAccumulator(rec.Bound, 1, -1)
		require.NoError(t, err)

		require.NoError(t, acc.Add(rec, []float64{7.5}, []float64{2}, 1, 1))

		composite, counts := acc.Finalize()
		assert.Equal(t, []float64{7.5}, composite)
		assert.Equal(t, []int16{1}, counts)
	})

	t.Run("single coverage with arbitrary area", func(t *testing.T) {
		t.Parallel()
		rec := footprint("r", 0, 1, 1, 1)
		acc, err := NewAccumulator(rec.Bound, 1, -1)
		require.NoError(t, err)

		require.NoError(t, acc.Add(rec, []float64{-13.7}, []float64{3.21}, 1, 1))

		composite, _ := acc.Finalize()
		assert.InDelta(t, -13.7, composite[0], 1e-12)
	})
}

func TestAccumulatorZeroArea(t *testing.T) {
	t.Parallel()

	rec := footprint("r", 0, 1, 2, 1)
	acc, err := NewAccumulator(rec.Bound, 1, -1)
	require.NoError(t, err)

	require.NoError(t, acc.Add(rec, []float64{5, 5}, []float64{0, 1}, 2, 1))

	composite, counts := acc.Finalize()
	for _, v := range composite {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}

	// the degenerate pixel still counts as covered and normalizes back to
	// its value, it just cannot dominate a mixed sum
	assert.InDelta(t, 5, composite[0], 1e-9)
	assert.Equal(t, []int16{1, 1}, counts)
}

func TestAccumulatorUncoveredPixels(t *testing.T) {
	t.Parallel()

	// two 1x1 rasters in opposite corners of a 3x3 union
	a := footprint("a", 0, 3, 1, 1)
	b := footprint("b", 2, 1, 1, 1)
	union, err := Union([]Corners{a, b})
	require.NoError(t, err)

	acc, err := NewAccumulator(union, 1, -1)
	require.NoError(t, err)
	cols, rows := acc.Size()
	require.Equal(t, 3, cols)
	require.Equal(t, 3, rows)

	require.NoError(t, acc.Add(a, []float64{4}, []float64{1}, 1, 1))
	require.NoError(t, acc.Add(b, []float64{6}, []float64{1}, 1, 1))

	composite, counts := acc.Finalize()

	assert.Equal(t, float64(4), composite[0])
	assert.Equal(t, float64(6), composite[8])
	for _, i := range []int{1, 2, 3, 4, 5, 6, 7} {
		assert.Equal(t, int16(0), counts[i], "pixel %d", i)
		assert.Equal(t, NoData, composite[i], "pixel %d", i)
	}
}

func TestAccumulatorPlacementErrors(t *testing.T) {
	t.Parallel()

	union := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 4}}

	t.Run("non-integer offset", func(t *testing.T) {
		t.Parallel()
		acc, err := NewAccumulator(union, 1, -1)
		require.NoError(t, err)

		rec := footprint("r", 0.5, 4, 1, 1)
		err = acc.Add(rec, []float64{1}, []float64{1}, 1, 1)
		assert.ErrorIs(t, err, ErrGeometry)
	})

	t.Run("negative offset", func(t *testing.T) {
		t.Parallel()
		acc, err := NewAccumulator(union, 1, -1)
		require.NoError(t, err)

		rec := footprint("r", -2, 4, 1, 1)
		err = acc.Add(rec, []float64{1}, []float64{1}, 1, 1)
		assert.ErrorIs(t, err, ErrGeometry)
	})

	t.Run("float noise within tolerance is accepted", func(t *testing.T) {
		t.Parallel()
		acc, err := NewAccumulator(union, 1, -1)
		require.NoError(t, err)

		rec := footprint("r", 1+1e-9, 4, 1, 1)
		assert.NoError(t, acc.Add(rec, []float64{1}, []float64{1}, 1, 1))
	})

	t.Run("flush-to-edge raster on a noisy union", func(t *testing.T) {
		t.Parallel()
		// the union span is float noise short of 4 pixels; the grid must
		// still hold a raster reaching the right edge
		noisy := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{3.9999999995, 4}}
		acc, err := NewAccumulator(noisy, 1, -1)
		require.NoError(t, err)
		cols, _ := acc.Size()
		require.Equal(t, 4, cols)

		rec := footprint("r", 3, 4, 1, 1)
		assert.NoError(t, acc.Add(rec, []float64{1}, []float64{1}, 1, 1))
	})

	t.Run("raster exceeding the grid", func(t *testing.T) {
		t.Parallel()
		acc, err := NewAccumulator(union, 1, -1)
		require.NoError(t, err)

		rec := footprint("r", 3, 4, 2, 1)
		err = acc.Add(rec, []float64{1, 1}, []float64{1, 1}, 2, 1)
		assert.ErrorIs(t, err, ErrGeometry)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		t.Parallel()
		acc, err := NewAccumulator(union, 1, -1)
		require.NoError(t, err)

		rec := footprint("r", 0, 4, 2, 2)
		err = acc.Add(rec, []float64{1, 1}, []float64{1, 1, 1, 1}, 2, 2)
		assert.ErrorIs(t, err, ErrGeometry)
	})
}

func TestAccumulatorThreeRasterScenario(t *testing.T) {
	t.Parallel()

	// three 2x2 rasters with unit areas on a 3x3 union grid:
	// r1 covers the upper left, r2 the upper right, r3 the lower left
	r1 := footprint("r1", 0, 2, 2, 2)
	r2 := footprint("r2", 1, 2, 2, 2)
	r3 := footprint("r3", 0, 1, 2, 2)

	union, err := Union([]Corners{r1, r2, r3})
	require.NoError(t, err)

	acc, err := NewAccumulator(union, 1, -1)
	require.NoError(t, err)
	cols, rows := acc.Size()
	require.Equal(t, 3, cols)
	require.Equal(t, 3, rows)

	ones := fill(4, 1)
	require.NoError(t, acc.Add(r1, fill(4, 10), ones, 2, 2))
	require.NoError(t, acc.Add(r2, fill(4, 20), ones, 2, 2))
	require.NoError(t, acc.Add(r3, fill(4, 40), ones, 2, 2))

	composite, counts := acc.Finalize()

	wantCounts := []int16{
		1, 2, 1,
		2, 3, 1,
		1, 1, 0,
	}
	assert.Equal(t, wantCounts, counts)

	wantComposite := []float64{
		10, 15, 20,
		25, (10.0 + 20 + 40) / 3, 20,
		40, 40, NoData,
	}
	for i := range wantComposite {
		assert.InDelta(t, wantComposite[i], composite[i], 1e-12, "pixel %d", i)
	}
}
