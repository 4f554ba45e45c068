// Package extract provides one extractor per language, each turning
// source files into domain.Document values via a shared extraction
// pipeline.
//
// Extractor is deliberately the only type scanner.Registry depends on,
// and extractors depend only on domain — neither package imports the
// other's concrete types, so there is no import cycle between discovery
// and extraction.
package extract

import (
	"strings"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

// Capabilities describes what an Extractor's parser can surface.
type Capabilities struct {
	Syntax        bool
	Types         bool
	References    bool
	Documentation bool
}

// Extractor turns a set of files into Documents.
type Extractor interface {
	// Language is this extractor's lowercase language tag.
	Language() string

	// CanHandle reports whether path's extension is one this extractor
	// scans.
	CanHandle(path string) bool

	// Capabilities reports what this extractor's parser can surface.
	Capabilities() Capabilities

	// Extract parses a single file's content (already read and UTF-8
	// validated by the caller; scanner.Registry skips invalid files) and returns one Document per declaration.
	// relativePath is the file's path relative to the scan root, used to
	// build Document ids and CoreMetadata.File.
	Extract(relativePath string, content []byte) ([]domain.Document, error)
}

// generatedMarkers are first-line substrings that mark a file as
// machine-generated; such files are skipped entirely.
var generatedMarkers = []string{"Code generated", "DO NOT EDIT"}

// IsGenerated reports whether content's first line carries a
// generated-file marker.
func IsGenerated(content []byte) bool {
	firstLine := content
	if idx := strings.IndexByte(string(content), '\n'); idx >= 0 {
		firstLine = content[:idx]
	}
	line := string(firstLine)
	for _, marker := range generatedMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// QualifiedName builds a declaration's qualified name: "Receiver.Method"
// for a method with a receiver/owner type, or just name for a free
// function or top-level declaration.
func QualifiedName(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

// DocumentID builds the canonical document id,
// "relativePath:qualifiedName:startLine", for code declarations.
func DocumentID(relativePath, qualifiedName string, startLine int) string {
	return relativePath + ":" + qualifiedName + ":" + itoa(startLine)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
