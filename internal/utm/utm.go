// Package utm extracts UTM zone information from raster projection metadata
// and selects the common "home" zone for a stack of inputs.
package utm

import (
	"fmt"
	"math"
	"regexp"
	"sort"
)

// Matches the zone/hemisphere token of a WKT projection name,
// e.g. `PROJCS["WGS 84 / UTM zone 32N", ...]`.
var zoneRe = regexp.MustCompile(`UTM zone (\d+)([NS])`)

// Parse extracts the UTM zone number and hemisphere letter ("N" or "S")
// from a projection WKT. ok is false when the projection does not encode
// a recognizable UTM zone; callers must treat that as "no zone", not as
// an error.
func Parse(projWKT string) (zone int, hemi string, ok bool) {
	m := zoneRe.FindStringSubmatch(projWKT)
	if m == nil {
		return 0, "", false
	}

	fmt.Sscanf(m[1], "%d", &zone)
	if zone < 1 || zone > 60 {
		return 0, "", false
	}

	return zone, m[2], true
}

// MedianZone returns the home zone for a set of resolved zone numbers: the
// conventional median, which for an even count is the mean of the two middle
// zones and therefore possibly fractional. Fractional medians are rounded
// down to the lower zone.
func MedianZone(zones []int) int {
	zs := append([]int(nil), zones...)
	sort.Ints(zs)

	n := len(zs)
	if n%2 == 1 {
		return zs[n/2]
	}

	return int(math.Floor(float64(zs[n/2-1]+zs[n/2]) / 2))
}

// EPSG returns the EPSG code for a UTM zone/hemisphere pair,
// e.g. (32, "N") -> "EPSG:32632".
func EPSG(zone int, hemi string) string {
	if hemi == "S" {
		return fmt.Sprintf("EPSG:327%02d", zone)
	}
	return fmt.Sprintf("EPSG:326%02d", zone)
}
