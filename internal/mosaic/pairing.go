package mosaic

import (
	"fmt"
	"strings"
)

// PairFunc maps a primary raster path to the path of its area-weight raster.
// The default follows the RTC product naming convention, but tests and other
// layouts can inject their own rule.
type PairFunc func(primary string) string

// SuffixPairing returns the standard RTC naming rule:
// *_flat_<POL>.tif <-> *_area_map.tif
func SuffixPairing(pol string) PairFunc {
	return func(primary string) string {
		return strings.Replace(primary, "_flat_"+pol+".tif", "_area_map.tif", 1)
	}
}

// polarizations in the order they are probed. VV before VH matters for
// filenames carrying both tokens.
var polarizations = []string{"VV", "VH", "HH", "HV"}

// Polarization determines the polarization of a product file from its name.
func Polarization(file string) (string, error) {
	for _, pol := range polarizations {
		if strings.Contains(file, pol) {
			return pol, nil
		}
	}

	return "", fmt.Errorf("%w: could not determine polarization of file %s", ErrConfig, file)
}
