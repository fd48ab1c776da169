// Package mosaic merges overlapping RTC backscatter rasters into one seamless
// composite, weighting every sample by the inverse of its illuminated area.
package mosaic

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/gruppe-adler/sar-composite/internal/gtiff"
	"github.com/gruppe-adler/sar-composite/internal/preview"
)

// Config describes one mosaic run.
type Config struct {
	// Outfile is the path of the final composite GeoTIFF.
	Outfile string
	// Pol restricts the run to one polarization (VV, VH, HH or HV).
	Pol string
	// Resolution overrides the output pixel size. Zero means the maximum
	// pixel size of the inputs.
	Resolution float64
	// Infiles are the primary rasters to merge.
	Infiles []string
	// CountsFile is the path of the coverage-count raster.
	CountsFile string
	// Snapshots enables a running value-sum snapshot (GeoTIFF + quicklook
	// PNG) after each input.
	Snapshots bool
	// Pairing maps a primary raster to its area map. Defaults to
	// SuffixPairing(Pol).
	Pairing PairFunc
}

// Make runs the whole mosaic: align the inputs onto a common grid, unify
// their extents, accumulate inverse-area weighted values and persist the
// normalized composite plus the coverage counts. Any error aborts the run
// before the outputs are written.
func Make(log logrus.FieldLogger, cfg Config) error {
	if cfg.Pol == "" {
		cfg.Pol = "VV"
	}
	if cfg.CountsFile == "" {
		cfg.CountsFile = "counts.tif"
	}
	if cfg.Pairing == nil {
		cfg.Pairing = SuffixPairing(cfg.Pol)
	}

	files, err := filterPol(cfg.Infiles, cfg.Pol)
	if err != nil {
		return err
	}
	sort.Strings(files)

	pairs, err := AlignToCommonGrid(log, files, cfg.Pairing, cfg.Resolution)
	if err != nil {
		return err
	}

	first, err := gtiff.ReadInfo(pairs[0].Primary)
	if err != nil {
		return err
	}
	pixelW, pixelH := first.PixelWidth(), first.PixelHeight()
	log.Infof("%s x = %g y = %g", pairs[0].Primary, pixelW, pixelH)

	recs := make([]Corners, len(pairs))
	for i, p := range pairs {
		ulx, lrx, lry, uly, err := gtiff.Corners(p.Primary)
		if err != nil {
			return err
		}
		recs[i] = Corners{ID: p.Primary, Bound: orb.Bound{
			Min: orb.Point{ulx, lry},
			Max: orb.Point{lrx, uly},
		}}
	}

	union, err := Union(recs)
	if err != nil {
		return err
	}
	log.Infof("Full extent of mosaic is %g,%g to %g,%g",
		union.Min[0], union.Max[1], union.Max[0], union.Min[1])

	acc, err := NewAccumulator(union, pixelW, pixelH)
	if err != nil {
		return err
	}
	cols, rows := acc.Size()
	log.Infof("Output size is %d samples by %d lines", cols, rows)

	var last gtiff.Info
	for i, p := range pairs {
		log.Infof("Processing file %s", p.Primary)

		log.Info("Reading areas")
		ainfo, areas, err := gtiff.ReadFloat(p.AreaMap)
		if err != nil {
			return err
		}

		log.Info("Reading values")
		info, values, err := gtiff.ReadFloat(p.Primary)
		if err != nil {
			return err
		}
		if info.Width != ainfo.Width || info.Height != ainfo.Height {
			return fmt.Errorf("%w: %s and %s have different shapes", ErrGeometry, p.Primary, p.AreaMap)
		}

		if err := acc.Add(recs[i], values, areas, info.Width, info.Height); err != nil {
			return err
		}
		last = info

		if cfg.Snapshots {
			if err := writeSnapshot(log, acc, info, p.Primary); err != nil {
				return err
			}
		}
	}

	composite, counts := acc.Finalize()

	out := gtiff.Info{
		Width:      cols,
		Height:     rows,
		Transform:  last.Transform,
		Projection: last.Projection,
	}

	log.Info("Writing output files")
	if err := gtiff.WriteFloat32(cfg.Outfile, out, composite, NoData); err != nil {
		return err
	}
	if err := gtiff.WriteInt16(cfg.CountsFile, out, counts); err != nil {
		return err
	}

	return nil
}

// filterPol keeps the inputs of the requested polarization. A file whose
// polarization cannot be determined aborts the run.
func filterPol(files []string, pol string) ([]string, error) {
	kept := make([]string, 0, len(files))
	for _, fi := range files {
		p, err := Polarization(fi)
		if err != nil {
			return nil, err
		}
		if p == pol {
			kept = append(kept, fi)
		}
	}

	return kept, nil
}

// writeSnapshot persists the running value sums as composite_<basename> plus
// a grayscale quicklook PNG. Snapshots are pre-normalization diagnostics, not
// part of the product.
func writeSnapshot(log logrus.FieldLogger, acc *Accumulator, info gtiff.Info, primary string) error {
	base := filepath.Base(primary)
	name := "composite_" + base

	cols, rows := acc.Size()
	snap := gtiff.Info{
		Width:      cols,
		Height:     rows,
		Transform:  info.Transform,
		Projection: info.Projection,
	}

	log.Infof("Writing snapshot %s", name)
	if err := gtiff.WriteFloat32(name, snap, acc.ValueSum(), NoData); err != nil {
		return err
	}

	quicklook := "composite_" + strings.TrimSuffix(base, ".tif") + ".png"
	return preview.Quicklook(quicklook, acc.ValueSum(), cols, rows, 1024)
}
