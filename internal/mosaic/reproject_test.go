package mosaic

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestAlignToCommonGridConfigErrors(t *testing.T) {
	t.Parallel()

	t.Run("a single raster is nothing to merge", func(t *testing.T) {
		t.Parallel()
		_, err := AlignToCommonGrid(discardLogger(), []string{"only_flat_VV.tif"}, SuffixPairing("VV"), 0)
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("no rasters", func(t *testing.T) {
		t.Parallel()
		_, err := AlignToCommonGrid(discardLogger(), nil, SuffixPairing("VV"), 0)
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("missing area map", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		a := filepath.Join(dir, "a_flat_VV.tif")
		b := filepath.Join(dir, "b_flat_VV.tif")
		require.NoError(t, os.WriteFile(a, []byte{}, 0o644))
		require.NoError(t, os.WriteFile(b, []byte{}, 0o644))

		_, err := AlignToCommonGrid(discardLogger(), []string{a, b}, SuffixPairing("VV"), 0)
		assert.ErrorIs(t, err, ErrConfig)
		assert.Contains(t, err.Error(), "a_flat_VV.tif")
	})
}

func TestAlignedName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a_flat_VV_reproj.tif", alignedName("a_flat_VV.tif"))
	assert.Equal(t, "stack/a_area_map_reproj.tif", alignedName("stack/a_area_map.tif"))
}

func TestLink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "a.tif")
	name := filepath.Join(dir, "a_reproj.tif")
	require.NoError(t, os.WriteFile(target, []byte("payload"), 0o644))

	require.NoError(t, link(target, name))

	got, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	// linking again replaces the leftover from a previous run
	require.NoError(t, link(target, name))
}
