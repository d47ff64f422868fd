package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/segmaker/internal/config"
	"github.com/dyluth/segmaker/internal/printer"
)

//go:embed templates/*
var templatesFS embed.FS

// SpecimensDir is where a fuzzer run is expected to write its specimens
const SpecimensDir = "build"

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates a segmaker project in dir.
// If force is true, an existing segmaker.yml is replaced.
func Initialize(dir string, force bool) error {
	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, SpecimensDir), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", SpecimensDir, err)
	}

	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	// The generated config must load exactly like a user's
	if _, err := config.Load(filepath.Join(dir, config.FileName)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.FileName, err)
	}

	return nil
}

// handleForce removes the existing config if --force was specified
func handleForce(dir string) error {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		printer.Warning("Removing existing %s...\n", config.FileName)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.FileName, err)
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	configYml, err := templatesFS.ReadFile("templates/segmaker.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s template: %w", config.FileName, err)
	}

	readme, err := templatesFS.ReadFile("templates/README.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read README.md template: %w", err)
	}

	return []FileInfo{
		{Path: config.FileName, Content: configYml, Permissions: 0644},
		{Path: filepath.Join(SpecimensDir, "README.md"), Content: readme, Permissions: 0644},
	}, nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	printer.Success("Initialized segmaker project\n")
	printer.Println("\nCreated:")
	printer.Println("  ✓ " + config.FileName)
	printer.Println("  ✓ " + SpecimensDir + "/README.md")
	printer.Println("\nNext steps:")
	printer.Println("  1. Run your fuzzer so each design lands in " + SpecimensDir + "/specimen_NNN/")
	printer.Println("  2. Adjust suppression rules and param_tags in " + config.FileName)
	printer.Println("  3. Run 'segmaker solve' to build the bit database")
}
