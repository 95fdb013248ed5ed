package data

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/raidtimers/internal/model"
)

// LoadResult is the tally of one definitions load.
type LoadResult struct {
	Loaded   int
	Failed   int
	Warnings int
	// Errors maps the failed file path to its parse/validation error.
	Errors map[string]error
}

// IsDefinitionFile reports whether path has a definition extension.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ParseEncounter decodes and validates one definition document.
// It returns the validation warnings alongside the file.
func ParseEncounter(raw []byte) (*model.TimerFile, []string, error) {
	var doc encounterDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding definition: %w", err)
	}
	return doc.toModel()
}

// LoadEncounters reads every definition file under dir (recursively).
// A file that fails to parse or validate is logged and skipped; loading
// continues with the remaining files. Only an unreadable dir is an error.
func LoadEncounters(dir string) (*Catalog, LoadResult, error) {
	res := LoadResult{Errors: make(map[string]error)}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, res, fmt.Errorf("reading definitions dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, res, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsDefinitionFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, res, fmt.Errorf("walking definitions dir %s: %w", dir, err)
	}
	slices.Sort(paths)

	catalog := NewCatalog()
	for _, path := range paths {
		f, warnings, err := loadEncounterFile(path)
		if err == nil {
			err = catalog.Add(f)
		}
		if err != nil {
			res.Failed++
			res.Errors[path] = err
			slog.Warn("skip encounter definition", "path", path, "error", err)
			continue
		}

		for _, w := range warnings {
			slog.Warn("encounter definition warning", "id", f.ID, "path", path, "warning", w)
		}
		res.Warnings += len(warnings)
		res.Loaded++
	}

	slog.Info("encounter definitions loaded",
		"dir", dir,
		"loaded", res.Loaded,
		"failed", res.Failed,
		"warnings", res.Warnings,
		"maps", catalog.MapCount())

	return catalog, res, nil
}

func loadEncounterFile(path string) (*model.TimerFile, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, warnings, err := ParseEncounter(raw)
	if err != nil {
		return nil, nil, err
	}
	f.Source = path
	return f, warnings, nil
}

// FailedPaths returns the failed file paths in sorted order.
func (r LoadResult) FailedPaths() []string {
	paths := make([]string, 0, len(r.Errors))
	for p := range r.Errors {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// HasError reports whether path failed with an error matching target.
func (r LoadResult) HasError(path string, target error) bool {
	err, ok := r.Errors[path]
	return ok && errors.Is(err, target)
}
