package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DocType enumerates the kinds of documents the pipeline indexes.
type DocType string

// DocType values.
const (
	DocTypeFunction      DocType = "function"
	DocTypeMethod        DocType = "method"
	DocTypeClass         DocType = "class"
	DocTypeInterface     DocType = "interface"
	DocTypeType          DocType = "type"
	DocTypeVariable      DocType = "variable"
	DocTypeDocumentation DocType = "documentation"
	DocTypeCommit        DocType = "commit"
)

// Callee is a call-site reference extracted from a function-like body.
type Callee struct {
	Name string `json:"name"`
	Line int    `json:"line"`
	File string `json:"file,omitempty"`
}

// CoreMetadata is the named portion of a document's metadata.
// Custom holds the open, domain-specific extensions (commit sidecar,
// receiver info, generics flags, constant-kind flags, ...).
type CoreMetadata struct {
	File       string            `json:"file"`
	StartLine  int               `json:"startLine"`
	EndLine    int               `json:"endLine"`
	Name       string            `json:"name"`
	Signature  string            `json:"signature,omitempty"`
	Exported   bool              `json:"exported"`
	Docstring  string            `json:"docstring,omitempty"`
	Snippet    string            `json:"snippet,omitempty"`
	Imports    []string          `json:"imports,omitempty"`
	Callees    []Callee          `json:"callees,omitempty"`
	Callers    []Callee          `json:"callers,omitempty"`
	Custom     map[string]any    `json:"custom,omitempty"`
}

// Get returns a custom metadata value and whether it was present.
func (m CoreMetadata) Get(key string) (any, bool) {
	if m.Custom == nil {
		return nil, false
	}
	v, ok := m.Custom[key]
	return v, ok
}

// WithCustom returns a copy of m with key set in Custom.
func (m CoreMetadata) WithCustom(key string, value any) CoreMetadata {
	out := m
	out.Custom = make(map[string]any, len(m.Custom)+1)
	for k, v := range m.Custom {
		out.Custom[k] = v
	}
	out.Custom[key] = value
	return out
}

// Document is the atomic indexed unit.
type Document struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     DocType      `json:"type"`
	Language string       `json:"language"`
	Metadata CoreMetadata `json:"metadata"`
}

// Validate enforces the invariants a Document must satisfy before it can
// be handed to the embedder or vector store. Some invariants depend on
// caller context; this checks what's checkable at construction time.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: document id must not be empty", ErrPrecondition)
	}
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Errorf("%w: document %q text must not be empty", ErrPrecondition, d.ID)
	}
	if d.Metadata.StartLine > 0 && d.Metadata.EndLine > 0 && d.Metadata.StartLine > d.Metadata.EndLine {
		return fmt.Errorf("%w: document %q startLine %d > endLine %d", ErrPrecondition, d.ID, d.Metadata.StartLine, d.Metadata.EndLine)
	}
	return nil
}

// MetadataJSON serializes the document's metadata to the single JSON
// string column the vector store persists (§9 "dynamic, open-ended
// metadata").
func (d Document) MetadataJSON() (string, error) {
	b, err := json.Marshal(d.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata for %q: %w", d.ID, err)
	}
	return string(b), nil
}

// ParseMetadataJSON decodes a stored metadata JSON string back into a
// CoreMetadata value.
func ParseMetadataJSON(raw string) (CoreMetadata, error) {
	if strings.TrimSpace(raw) == "" {
		return CoreMetadata{}, nil
	}
	var m CoreMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return CoreMetadata{}, fmt.Errorf("%w: unmarshal metadata: %v", ErrConsistency, err)
	}
	return m, nil
}

// BuildEmbeddingText assembles the strict embedding-text format:
//
//	<type> <qualifiedName>
//	<signature>
//	<docstring if any>
func BuildEmbeddingText(docType DocType, qualifiedName, signature, docstring string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", docType, qualifiedName)
	if signature != "" {
		b.WriteString(signature)
		b.WriteString("\n")
	}
	if docstring != "" {
		b.WriteString(docstring)
	}
	return strings.TrimRight(b.String(), "\n")
}

// TruncateSnippet truncates source text to at most maxLines lines,
// appending a trailing marker noting how many lines were dropped.
func TruncateSnippet(text string, maxLines int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	kept := lines[:maxLines]
	remaining := len(lines) - maxLines
	kept = append(kept, fmt.Sprintf("// ... %d more lines", remaining))
	return strings.Join(kept, "\n")
}
