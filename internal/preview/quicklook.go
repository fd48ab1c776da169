// Package preview renders grayscale quicklook images of working grids, so a
// run can be eyeballed without GIS tooling.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/nfnt/resize"
)

// Quicklook writes grid (w x h, row-major) as a PNG, stretched linearly
// between its finite minimum and maximum and downscaled so the larger
// dimension is at most maxDim pixels.
func Quicklook(path string, grid []float64, w, h int, maxDim uint) error {
	if len(grid) != w*h {
		return fmt.Errorf("quicklook %s: grid does not match %d x %d samples", path, w, h)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range grid {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo >= hi {
		// flat or empty grid, render black
		lo, hi = 0, 1
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := grid[y*w+x]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = lo
			}
			img.SetGray(x, y, color.Gray{Y: uint8(255 * (v - lo) / (hi - lo))})
		}
	}

	var scaled image.Image = img
	if uint(w) > maxDim || uint(h) > maxDim {
		if w >= h {
			scaled = resize.Resize(maxDim, 0, img, resize.MitchellNetravali)
		} else {
			scaled = resize.Resize(0, maxDim, img, resize.MitchellNetravali)
		}
	}

	return saveImage(path, scaled)
}

func saveImage(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
