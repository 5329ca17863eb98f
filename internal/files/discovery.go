package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"qpcrscore/internal/amplification"
	apperrors "qpcrscore/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Format  amplification.Format
	Size    int64
	ModTime time.Time
}

// Discovery finds amplification exports relative to a base path
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. An empty basePath
// resolves relative paths against the working directory.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// FindInputs lists the supported exports directly inside dir, sorted by
// name. Subdirectories are not searched.
func (d *Discovery) FindInputs(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read directory %s", fullPath), err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		format, err := amplification.DetectFormat(name)
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Format:  format,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// ExpandInputs replaces every directory in paths with the exports it holds
// and keeps file paths as given. Order is preserved and a file reached
// twice is kept once. A directory without exports is an error.
func (d *Discovery) ExpandInputs(paths []string) ([]string, error) {
	seen := make(map[string]bool, len(paths))
	var out []string
	add := func(path string) {
		key := filepath.Clean(path)
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, path)
	}

	for _, p := range paths {
		full := d.resolve(p)
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			// Missing files are reported by input validation
			add(full)
			continue
		}

		found, err := d.FindInputs(full)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("amplification exports in %s", full))
		}
		for _, f := range found {
			add(f.Path)
		}
	}

	return out, nil
}
