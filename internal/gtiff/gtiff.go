// Package gtiff is the GeoTIFF boundary of the compositor. It wraps godal so
// the rest of the code deals in plain grids, geotransforms and projection WKTs
// instead of GDAL handles.
package gtiff

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(godal.RegisterAll)
}

// Info holds the georeferencing of a single-band raster.
type Info struct {
	Width      int
	Height     int
	Transform  [6]float64
	Projection string
}

// PixelWidth returns the horizontal pixel size of the raster.
func (i Info) PixelWidth() float64 { return i.Transform[1] }

// PixelHeight returns the vertical pixel size of the raster, negative for
// north-up rasters.
func (i Info) PixelHeight() float64 { return i.Transform[5] }

// ReadInfo reads the georeferencing of a raster without touching pixel data.
func ReadInfo(path string) (Info, error) {
	register()

	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return Info{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()

	return info(ds, path)
}

func info(ds *godal.Dataset, path string) (Info, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return Info{}, fmt.Errorf("geotransform of %s: %w", path, err)
	}

	s := ds.Structure()

	return Info{
		Width:      s.SizeX,
		Height:     s.SizeY,
		Transform:  gt,
		Projection: ds.Projection(),
	}, nil
}

// ReadFloat reads band 1 of a raster into a row-major float64 grid.
func ReadFloat(path string) (Info, []float64, error) {
	register()

	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return Info{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()

	inf, err := info(ds, path)
	if err != nil {
		return Info{}, nil, err
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		return Info{}, nil, fmt.Errorf("read %s: raster has no bands", path)
	}

	data := make([]float64, inf.Width*inf.Height)
	if err := bands[0].Read(0, 0, data, inf.Width, inf.Height); err != nil {
		return Info{}, nil, fmt.Errorf("read %s: %w", path, err)
	}

	return inf, data, nil
}

// Corners returns the outer corner coordinates of a raster in its own
// coordinate reference: upper-left x, lower-right x, lower-right y,
// upper-left y.
func Corners(path string) (ulx, lrx, lry, uly float64, err error) {
	inf, err := ReadInfo(path)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	ulx = inf.Transform[0]
	uly = inf.Transform[3]
	lrx = ulx + float64(inf.Width)*inf.Transform[1]
	lry = uly + float64(inf.Height)*inf.Transform[5]

	return ulx, lrx, lry, uly, nil
}

// WriteFloat32 persists a float64 grid as a single-band Float32 GeoTIFF with
// the given no-data value.
func WriteFloat32(path string, inf Info, data []float64, nodata float64) error {
	register()

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, inf.Width, inf.Height)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	buf := make([]float32, len(data))
	for i, v := range data {
		buf[i] = float32(v)
	}

	if err := writeBand(ds, inf, buf, &nodata); err != nil {
		ds.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := ds.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteInt16 persists an int16 grid as a single-band Int16 GeoTIFF.
func WriteInt16(path string, inf Info, data []int16) error {
	register()

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Int16, inf.Width, inf.Height)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := writeBand(ds, inf, data, nil); err != nil {
		ds.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := ds.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeBand(ds *godal.Dataset, inf Info, buf interface{}, nodata *float64) error {
	if err := ds.SetGeoTransform(inf.Transform); err != nil {
		return err
	}
	if err := ds.SetProjection(inf.Projection); err != nil {
		return err
	}

	band := ds.Bands()[0]
	if nodata != nil {
		if err := band.SetNoData(*nodata); err != nil {
			return err
		}
	}

	return band.Write(0, 0, buf, inf.Width, inf.Height)
}

// WarpCubic resamples src into dst at the given pixel size with cubic
// interpolation and target-aligned pixels, optionally reprojecting into
// targetSRS (e.g. "EPSG:32632"). An empty targetSRS keeps the source
// coordinate reference and only changes the resolution.
func WarpCubic(dst, src, targetSRS string, pixelSize float64) error {
	register()

	srcDs, err := godal.Open(src, godal.RasterOnly())
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer srcDs.Close()

	ps := strconv.FormatFloat(pixelSize, 'g', -1, 64)
	switches := []string{"-tr", ps, ps, "-tap", "-r", "cubic", "-of", "GTiff"}
	if targetSRS != "" {
		switches = append([]string{"-t_srs", targetSRS}, switches...)
	}

	dstDs, err := srcDs.Warp(dst, switches)
	if err != nil {
		return fmt.Errorf("warp %s -> %s: %w", src, dst, err)
	}

	if err := dstDs.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
