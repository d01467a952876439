package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-subxt/internal/clients/specversion"
)

func TestMetadataFileRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "meta")
	raw := []byte{'m', 'e', 't', 'a', 12, 0}

	p, err := WriteMetadataFile(dir, 9110, raw)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "9110"), p)

	stored, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "0x6d6574610c00", string(stored))

	got, err := ReadMetadataFile(MetadataFile(dir, 9110))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestReadMetadataFileBinary(t *testing.T) {
	p := filepath.Join(t.TempDir(), "raw")
	require.NoError(t, os.WriteFile(p, []byte{'m', 'e', 't', 'a', 11}, 0o644))

	got, err := ReadMetadataFile(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{'m', 'e', 't', 'a', 11}, got)
}

func TestReadMetadataFileMissing(t *testing.T) {
	_, err := ReadMetadataFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestSpecVersionRangesRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ranges.json")
	ranges := specversion.RangeList{
		{SpecVersion: 1, First: 0, Last: 9},
		{SpecVersion: 2, First: 10, Last: 30},
	}
	require.NoError(t, WriteSpecVersionRanges(p, ranges))

	got, err := ReadSpecVersionRanges(p)
	require.NoError(t, err)
	assert.Equal(t, ranges, got)
}
