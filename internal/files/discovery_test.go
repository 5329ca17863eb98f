package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qpcrscore/internal/amplification"
	apperrors "qpcrscore/internal/errors"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")
	assert.Equal(t, "/test/base", discovery.basePath)
	assert.Equal(t, filepath.Join("/test/base", "runs"), discovery.resolve("runs"))
	assert.Equal(t, "/abs/runs", discovery.resolve("/abs/runs"))
	assert.Equal(t, "runs", NewDiscovery("").resolve("runs"))
}

func TestFindInputs(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "every supported format",
			files:    []string{"b.xlsx", "a.csv", "c.TXT", "d.tsv", "e.xlsm"},
			expected: []string{"a.csv", "b.xlsx", "c.TXT", "d.tsv", "e.xlsm"},
		},
		{
			name:     "unsupported skipped",
			files:    []string{"plate.xlsx", "notes.pdf", "legacy.xls"},
			expected: []string{"plate.xlsx"},
		},
		{
			name:     "lock and hidden files skipped",
			files:    []string{"~$plate.xlsx", ".plate.csv", "plate.xlsx"},
			expected: []string{"plate.xlsx"},
		},
		{
			name:     "empty directory",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.files...)
			require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0755))

			found, err := NewDiscovery("").FindInputs(dir)
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
				assert.Equal(t, int64(1), f.Size)
			}
			assert.Equal(t, tt.expected, names)
		})
	}

	t.Run("format recorded", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "plate.xlsx")
		found, err := NewDiscovery(dir).FindInputs(".")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, amplification.FormatWorkbook, found[0].Format)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewDiscovery("").FindInputs(filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	runs := filepath.Join(dir, "runs")
	require.NoError(t, os.Mkdir(runs, 0755))
	touch(t, runs, "b.xlsx", "a.csv", "readme.md")
	touch(t, dir, "single.xlsx")
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))

	discovery := NewDiscovery("")

	t.Run("directories expand in place", func(t *testing.T) {
		single := filepath.Join(dir, "single.xlsx")
		got, err := discovery.ExpandInputs([]string{single, runs})
		require.NoError(t, err)
		assert.Equal(t, []string{single, filepath.Join(runs, "a.csv"), filepath.Join(runs, "b.xlsx")}, got)
	})

	t.Run("duplicates kept once", func(t *testing.T) {
		got, err := discovery.ExpandInputs([]string{filepath.Join(runs, "a.csv"), runs})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(runs, "a.csv"), filepath.Join(runs, "b.xlsx")}, got)
	})

	t.Run("missing file passes through", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.xlsx")
		got, err := discovery.ExpandInputs([]string{missing})
		require.NoError(t, err)
		assert.Equal(t, []string{missing}, got)
	})

	t.Run("directory without exports", func(t *testing.T) {
		_, err := discovery.ExpandInputs([]string{empty})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})
}
