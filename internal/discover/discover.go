// Package discover finds RTC products in the conventional stacking layout:
// {root}/YYYYMMDD/PRODUCT/ holds the backscatter rasters and their area maps.
package discover

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gruppe-adler/sar-composite/internal/utils"
)

// Products returns the primary rasters of one polarization found under root,
// sorted ascending so runs are deterministic.
func Products(root, pol string) ([]string, error) {
	if !utils.IsDirectory(root) {
		return nil, fmt.Errorf("%s does not exist or is no directory", root)
	}

	pattern := filepath.Join(root, "20*", "PRODUCT", "*"+pol+".tif")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	sort.Strings(files)
	return files, nil
}
