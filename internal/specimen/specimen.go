// Package specimen locates the per-design directories produced by a fuzzer
// run. Each specimen directory holds the connectivity log of one design, the
// tile bits extracted from its bitstream and, optionally, its parameter table.
package specimen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// File names inside a specimen directory.
const (
	LogFile    = "design.txt"
	BitsFile   = "design.bits"
	ParamsFile = "params.csv"
)

// Specimen is one design directory.
type Specimen struct {
	Name string // matched path, slash separated; unique within a run
	Dir  string // absolute, symlinks resolved
}

// LogPath returns the path of the connectivity log.
func (s Specimen) LogPath() string {
	return filepath.Join(s.Dir, LogFile)
}

// BitsPath returns the path of the tile bits.
func (s Specimen) BitsPath() string {
	return filepath.Join(s.Dir, BitsFile)
}

// ParamsPath returns the path of the optional parameter table.
func (s Specimen) ParamsPath() string {
	return filepath.Join(s.Dir, ParamsFile)
}

// Design returns the design name used in trial identities.
func (s Specimen) Design() string {
	return s.Name
}

// OpenLog opens the connectivity log.
func (s Specimen) OpenLog() (io.ReadCloser, error) {
	return os.Open(s.LogPath())
}

// OpenBits opens the tile bits.
func (s Specimen) OpenBits() (io.ReadCloser, error) {
	return os.Open(s.BitsPath())
}

// OpenParams opens the parameter table. Returns nil, nil when the specimen
// has none.
func (s Specimen) OpenParams() (io.ReadCloser, error) {
	f, err := os.Open(s.ParamsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return f, err
}

// Discover expands doublestar patterns into specimens sorted by name.
//
// Matches that are not directories, or directories without a connectivity
// log, are skipped. A directory with a connectivity log but no tile bits is
// an error. A directory matched twice (by two patterns or through a symlink)
// is returned once.
func Discover(patterns []string) ([]Specimen, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no specimen patterns given")
	}

	seen := make(map[string]bool)
	var specimens []Specimen
	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid specimen pattern '%s'", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid specimen pattern '%s': %w", pattern, err)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", match, err)
			}
			if !info.IsDir() {
				continue
			}
			if !exists(filepath.Join(match, LogFile)) {
				continue
			}
			if !exists(filepath.Join(match, BitsFile)) {
				return nil, fmt.Errorf("specimen %s has %s but no %s", match, LogFile, BitsFile)
			}

			// Resolve symlinks so the same directory is only solved once
			dir, err := filepath.EvalSymlinks(match)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve symlinks for %s: %w", match, err)
			}
			dir, err = filepath.Abs(dir)
			if err != nil {
				return nil, fmt.Errorf("failed to get absolute path for %s: %w", match, err)
			}
			if seen[dir] {
				continue
			}
			seen[dir] = true

			specimens = append(specimens, Specimen{
				Name: filepath.ToSlash(filepath.Clean(match)),
				Dir:  dir,
			})
		}
	}

	if len(specimens) == 0 {
		return nil, fmt.Errorf("no specimens matched %s", strings.Join(patterns, ", "))
	}

	slices.SortFunc(specimens, func(a, b Specimen) int { return strings.Compare(a.Name, b.Name) })
	return specimens, nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
