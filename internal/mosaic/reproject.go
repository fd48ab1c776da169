package mosaic

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/gruppe-adler/sar-composite/internal/gtiff"
	"github.com/gruppe-adler/sar-composite/internal/utils"
	"github.com/gruppe-adler/sar-composite/internal/utm"
)

// Pair is one aligned primary/area-weight raster pair on the common grid.
type Pair struct {
	Primary string
	AreaMap string
}

// AlignToCommonGrid brings every primary raster and its area map onto one
// common grid: the median UTM zone of the inputs (hemisphere of the first
// input) at the given resolution, or at the maximum pixel size of the inputs
// when resolution is zero. Rasters in a foreign zone are warped, rasters with
// a finer native resolution are resampled, already conformant rasters are
// identity-linked. Warps run on a bounded worker pool; the function returns
// only after every input is aligned.
func AlignToCommonGrid(log logrus.FieldLogger, files []string, pair PairFunc, resolution float64) ([]Pair, error) {
	if len(files) < 2 {
		return nil, fmt.Errorf("%w: a mosaic needs at least two input rasters, got %d", ErrConfig, len(files))
	}

	infos := make([]gtiff.Info, len(files))
	for i, fi := range files {
		afi := pair(fi)
		if afi == fi || !utils.IsFile(afi) {
			return nil, fmt.Errorf("%w: no area map found for %s", ErrConfig, fi)
		}

		info, err := gtiff.ReadInfo(fi)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}

	pixelSize := resolution
	if pixelSize == 0 {
		widths := make([]float64, len(infos))
		for i, info := range infos {
			widths[i] = info.PixelWidth()
		}
		pixelSize = floats.Max(widths)
		log.Infof("Using maximum pixel size %g", pixelSize)
	} else {
		log.Infof("Changing pixel size to %g", pixelSize)
	}

	zones := make([]int, len(files))
	resolved := []int{}
	for i, info := range infos {
		zone, _, ok := utm.Parse(info.Projection)
		if ok {
			zones[i] = zone
			resolved = append(resolved, zone)
		}
	}

	// Inputs without a recognizable zone stay in their own projection and
	// are only resampled, never warped.
	homeZone := 0
	hemi := "N"
	if len(resolved) > 0 {
		homeZone = utm.MedianZone(resolved)
		if _, h, ok := utm.Parse(infos[0].Projection); ok {
			hemi = h
		}
		log.Infof("Home zone is %d, hemisphere is %s", homeZone, hemi)
	}

	log.Info("Checking projections")

	pairs := make([]Pair, len(files))
	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())

	for i, fi := range files {
		g.Go(func() error {
			afi := pair(fi)
			name := alignedName(fi)
			aname := alignedName(afi)

			switch {
			case zones[i] != 0 && zones[i] != homeZone:
				target := utm.EPSG(homeZone, hemi)
				log.Infof("Reprojecting %s to %s (%s)", fi, name, target)
				if err := gtiff.WarpCubic(name, fi, target, pixelSize); err != nil {
					return err
				}
				if err := gtiff.WarpCubic(aname, afi, target, pixelSize); err != nil {
					return err
				}
			case infos[i].PixelWidth() < pixelSize:
				log.Infof("Changing resolution of %s to %g", fi, pixelSize)
				if err := gtiff.WarpCubic(name, fi, "", pixelSize); err != nil {
					return err
				}
				if err := gtiff.WarpCubic(aname, afi, "", pixelSize); err != nil {
					return err
				}
			default:
				log.Infof("Linking %s to %s", fi, name)
				if err := link(fi, name); err != nil {
					return err
				}
				if err := link(afi, aname); err != nil {
					return err
				}
			}

			pairs[i] = Pair{Primary: name, AreaMap: aname}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("All files aligned")
	return pairs, nil
}

// alignedName is the fixed naming transform of aligned rasters.
func alignedName(file string) string {
	return strings.TrimSuffix(file, ".tif") + "_reproj.tif"
}

// link makes name an identity reference to file, replacing a leftover link
// from a previous run.
func link(file, name string) error {
	target, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", name, err)
	}

	if err := os.Symlink(target, name); err != nil {
		return fmt.Errorf("link %s: %w", name, err)
	}
	return nil
}
