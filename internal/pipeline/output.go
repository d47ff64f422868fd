package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/segmaker/internal/config"
	"github.com/dyluth/segmaker/internal/writer"
)

// File is one rendered output file.
type File struct {
	Name string
	Data []byte
}

// Render serializes the report into the database and diagnostics files,
// named by out. Rendering happens in memory so nothing touches disk until
// every file is complete.
func (r *Report) Render(out *config.OutputConfig) ([]File, error) {
	var database, unsolved, conflicts, suppressed bytes.Buffer

	if _, err := writer.WriteDatabase(&database, r.Result.Solved); err != nil {
		return nil, err
	}
	if err := writer.WriteUnsolved(&unsolved, r.Result.Unsolved); err != nil {
		return nil, err
	}
	if err := writer.WriteConflicts(&conflicts, r.Result.Conflicts); err != nil {
		return nil, err
	}
	if err := writer.WriteSuppressed(&suppressed, r.Suppressed); err != nil {
		return nil, err
	}

	return []File{
		{Name: out.Database, Data: database.Bytes()},
		{Name: out.Unsolved, Data: unsolved.Bytes()},
		{Name: out.Conflicts, Data: conflicts.Bytes()},
		{Name: out.Suppressed, Data: suppressed.Bytes()},
	}, nil
}

// WriteFiles writes files into dir. Every file is first written to a temp
// file next to its target; targets are only replaced once all temp files
// exist. Returns the written paths.
func WriteFiles(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, "."+f.Name+".tmp-*")
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create temp file for %s: %w", f.Name, err)
		}
		temps = append(temps, tmp.Name())
		if _, err := tmp.Write(f.Data); err != nil {
			tmp.Close()
			cleanup()
			return nil, fmt.Errorf("failed to write temp file for %s: %w", f.Name, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to close temp file for %s: %w", f.Name, err)
		}
		if err := os.Chmod(tmp.Name(), 0644); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to set permissions for %s: %w", f.Name, err)
		}
	}

	paths := make([]string, 0, len(files))
	for i, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.Rename(temps[i], path); err != nil {
			cleanup()
			return paths, fmt.Errorf("failed to rename temp file to %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
