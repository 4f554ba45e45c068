// Package scanner provides file discovery, per-extension extractor
// dispatch, and aggregate statistics over a directory-walking scan.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/extract"
	"github.com/lytics/dev-agent-sub000/internal/logging"
)

// excludedDirs are hard exclusions applied regardless of caller-supplied
// include patterns.
var excludedDirs = map[string]bool{
	"node_modules": true, "bower_components": true, "vendor": true, "third_party": true,
	"dist": true, "build": true, "out": true, "target": true, ".next": true, ".turbo": true, ".nuxt": true,
	".git": true, ".svn": true, ".hg": true,
	".vscode": true, ".idea": true, ".vs": true, ".fleet": true,
	".cache": true, ".parcel-cache": true, ".vite": true,
	"coverage": true, ".nyc_output": true,
	"logs": true, "tmp": true, "temp": true,
	"__fixtures__": true, "__snapshots__": true, "fixtures": true,
}

var excludedFileSuffixes = []string{".log", ".tmp"}

var excludedFileNames = map[string]bool{
	".eslintcache":      true,
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"Cargo.lock":        true,
	"Gemfile.lock":      true,
	".DS_Store":         true,
	"Thumbs.db":         true,
}

// Stats summarizes a Scan run.
type Stats struct {
	FilesScanned       int           `json:"filesScanned"`
	DocumentsExtracted int           `json:"documentsExtracted"`
	Duration           time.Duration `json:"duration"`
	Errors             []ScanError   `json:"errors"`
}

// ScanError records a single file- or extractor-level failure.
type ScanError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Result is the aggregate return value of a Scan.
type Result struct {
	Documents []domain.Document `json:"documents"`
	Stats     Stats             `json:"stats"`
}

// Registry dispatches discovered files to the first registered extractor
// whose CanHandle returns true.
type Registry struct {
	extractors []extract.Extractor
	logger     *logging.Logger
}

// NewRegistry builds a Registry from a set of extractors, in dispatch
// priority order.
func NewRegistry(logger *logging.Logger, extractors ...extract.Extractor) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{extractors: extractors, logger: logger}
}

// Scan walks root, dispatches each discovered file to its extractor, and
// returns the aggregate Documents and Stats.
func (r *Registry) Scan(ctx context.Context, root string) (Result, error) {
	start := time.Now()
	groups := make(map[extract.Extractor][]string)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if path != root && isExcludedDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcludedFile(info.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		for _, e := range r.extractors {
			if e.CanHandle(rel) {
				groups[e] = append(groups[e], path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	var (
		documents   []domain.Document
		stats       Stats
		fileErrors  int
	)

	for _, e := range r.extractors {
		files := groups[e]
		for _, path := range files {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			content, readErr := os.ReadFile(path)
			if readErr != nil {
				r.recordFileError(&stats, &fileErrors, path, readErr)
				continue
			}
			if !utf8.Valid(content) {
				r.recordFileError(&stats, &fileErrors, path, fmt.Errorf("%w: file is not valid UTF-8", domain.ErrPrecondition))
				continue
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			docs, extractErr := e.Extract(rel, content)
			stats.FilesScanned++
			if extractErr != nil {
				stats.Errors = append(stats.Errors, ScanError{
					File:  "[" + e.Language() + "]",
					Error: extractErr.Error(),
				})
				continue
			}
			documents = append(documents, docs...)
			stats.DocumentsExtracted += len(docs)
		}
	}

	stats.Duration = time.Since(start)
	return Result{Documents: documents, Stats: stats}, nil
}

func (r *Registry) recordFileError(stats *Stats, fileErrors *int, path string, err error) {
	*fileErrors++
	stats.Errors = append(stats.Errors, ScanError{File: path, Error: err.Error()})
	if *fileErrors <= 10 {
		r.logger.Info("failed to read file during scan", "file", path, "error", err)
	} else {
		r.logger.Debug("failed to read file during scan", "file", path, "error", err)
	}
}

func isExcludedDir(name string) bool {
	return excludedDirs[name]
}

func isExcludedFile(name string) bool {
	if excludedFileNames[name] {
		return true
	}
	for _, suffix := range excludedFileSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
