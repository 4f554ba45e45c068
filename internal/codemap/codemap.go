// Package codemap builds a directory-tree summary of an indexed codebase
// from a full scan of the code vector store, annotated with per-directory
// exports, hot-path rankings, and optional git change frequency.
package codemap

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/gitlog"
	"github.com/lytics/dev-agent-sub000/internal/vectorstore"
)

// Default tuning parameters for map construction.
const (
	DefaultDepth               = 2
	DefaultSmartDepthThreshold = 10
	DefaultMaxExportsPerDir    = 5
	DefaultMaxHotPaths         = 5
)

// Export is a single exported declaration surfaced at a directory node.
type Export struct {
	Name      string
	Type      domain.DocType
	File      string
	StartLine int
}

// HotPath ranks a file by its incoming-reference score.
type HotPath struct {
	File  string
	Score int
}

// ChangeFrequency summarizes recent commit activity scoped to a
// directory.
type ChangeFrequency struct {
	Last30Days int
	Last90Days int
	LastCommit time.Time
}

// MapNode is one directory in the constructed tree.
type MapNode struct {
	Name            string
	Path            string
	ComponentCount  int
	Children        []*MapNode
	Exports         []Export
	ChangeFrequency *ChangeFrequency

	documents []domain.Document
}

// PruneMode selects how MapBuilder trims deep subtrees.
type PruneMode string

// PruneMode values.
const (
	PruneFixed PruneMode = "fixed"
	PruneSmart PruneMode = "smart"
)

// Options configures a Build call.
type Options struct {
	PruneMode              PruneMode
	Depth                  int
	SmartDepthThreshold    int
	MaxExportsPerDir       int
	MaxHotPaths            int
	IncludeChangeFrequency bool
	ChangeFrequencySince   time.Time // defaults to now-90d if zero
	IncludeInfrastructure  bool
}

// DefaultOptions returns Options populated with the package defaults.
func DefaultOptions() Options {
	return Options{
		PruneMode:           PruneFixed,
		Depth:               DefaultDepth,
		SmartDepthThreshold: DefaultSmartDepthThreshold,
		MaxExportsPerDir:    DefaultMaxExportsPerDir,
		MaxHotPaths:         DefaultMaxHotPaths,
	}
}

func (o Options) withDefaults() Options {
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	if o.SmartDepthThreshold <= 0 {
		o.SmartDepthThreshold = DefaultSmartDepthThreshold
	}
	if o.MaxExportsPerDir <= 0 {
		o.MaxExportsPerDir = DefaultMaxExportsPerDir
	}
	if o.MaxHotPaths <= 0 {
		o.MaxHotPaths = DefaultMaxHotPaths
	}
	if o.PruneMode == "" {
		o.PruneMode = PruneFixed
	}
	return o
}

// MapBuilder constructs a MapNode tree from a VectorStore's full
// contents, optionally enriched with git-derived change frequency.
type MapBuilder struct {
	store *vectorstore.VectorStore
	git   *gitlog.Extractor
}

// New builds a MapBuilder over store. git may be nil; it is only
// consulted when Options.IncludeChangeFrequency or
// Options.IncludeInfrastructure is set.
func New(store *vectorstore.VectorStore, git *gitlog.Extractor) *MapBuilder {
	return &MapBuilder{store: store, git: git}
}

// Result bundles the built tree with its hot-path ranking, since hot
// paths are computed corpus-wide rather than per-node.
type Result struct {
	Root           *MapNode
	HotPaths       []HotPath
	Infrastructure []string
}

// Build performs the full tree-construction, export, pruning, and
// hot-path pipeline.
func (b *MapBuilder) Build(ctx context.Context, opts Options) (Result, error) {
	opts = opts.withDefaults()

	docs, err := b.store.GetAll(ctx, 0)
	if err != nil {
		return Result{}, fmt.Errorf("%w: scan vector store for map: %v", domain.ErrIO, err)
	}

	root := &MapNode{Name: "", Path: ""}
	for _, doc := range docs {
		insertDocument(root, doc)
	}
	computeComponentCounts(root)
	collectExports(root, opts.MaxExportsPerDir)

	switch opts.PruneMode {
	case PruneSmart:
		pruneSmart(root, 0, opts.SmartDepthThreshold)
	default:
		pruneFixed(root, 0, opts.Depth)
	}

	hotPaths := rankHotPaths(docs, opts.MaxHotPaths)

	if opts.IncludeChangeFrequency && b.git != nil {
		since := opts.ChangeFrequencySince
		if since.IsZero() {
			since = time.Now().AddDate(0, 0, -90)
		}
		attachChangeFrequency(ctx, b.git, root, since)
	}

	var infra []string
	if opts.IncludeInfrastructure && b.git != nil {
		infra = discoverInfrastructure(b.git.RepoPath())
	}

	clearDocuments(root)
	return Result{Root: root, HotPaths: hotPaths, Infrastructure: infra}, nil
}

// insertDocument walks/grows the tree along doc's directory segments
// and accumulates doc at the resulting leaf directory node.
func insertDocument(root *MapNode, doc domain.Document) {
	dir := path.Dir(doc.Metadata.File)
	if dir == "." || dir == "" {
		root.documents = append(root.documents, doc)
		return
	}

	segments := strings.Split(dir, "/")
	cur := root
	curPath := ""
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if curPath == "" {
			curPath = seg
		} else {
			curPath = curPath + "/" + seg
		}
		cur = childOrCreate(cur, seg, curPath)
	}
	cur.documents = append(cur.documents, doc)
}

func childOrCreate(parent *MapNode, name, fullPath string) *MapNode {
	for _, c := range parent.Children {
		if c.Name == name {
			return c
		}
	}
	child := &MapNode{Name: name, Path: fullPath}
	parent.Children = append(parent.Children, child)
	return child
}

// computeComponentCounts propagates each node's document count upward,
// summing children into parents.
func computeComponentCounts(node *MapNode) int {
	total := len(node.documents)
	for _, child := range node.Children {
		total += computeComponentCounts(child)
	}
	node.ComponentCount = total
	return total
}

// collectExports caps each node's exported, named documents at max,
// preserving the order documents were accumulated in.
func collectExports(node *MapNode, max int) {
	for _, doc := range node.documents {
		if !doc.Metadata.Exported || doc.Metadata.Name == "" {
			continue
		}
		if len(node.Exports) >= max {
			break
		}
		node.Exports = append(node.Exports, Export{
			Name:      doc.Metadata.Name,
			Type:      doc.Type,
			File:      doc.Metadata.File,
			StartLine: doc.Metadata.StartLine,
		})
	}
	for _, child := range node.Children {
		collectExports(child, max)
	}
	sort.Slice(node.Children, func(i, j int) bool { return node.Children[i].Name < node.Children[j].Name })
}

// pruneFixed clears children at depth >= cutoff.
func pruneFixed(node *MapNode, depth, cutoff int) {
	if depth >= cutoff {
		node.Children = nil
		return
	}
	for _, child := range node.Children {
		pruneFixed(child, depth+1, cutoff)
	}
}

// pruneSmart always keeps the first two levels; below that it collapses
// a child's subtree unless the child's componentCount meets threshold.
func pruneSmart(node *MapNode, depth, threshold int) {
	if depth < 2 {
		for _, child := range node.Children {
			pruneSmart(child, depth+1, threshold)
		}
		return
	}
	for _, child := range node.Children {
		if child.ComponentCount < threshold {
			child.Children = nil
			continue
		}
		pruneSmart(child, depth+1, threshold)
	}
}

// rankHotPaths scores files by incoming references computed from both
// sides of the call graph stored in metadata: a document contributes
// len(Callers) to its own file, and each Callee carrying a resolved
// File contributes one point to that file.
func rankHotPaths(docs []domain.Document, max int) []HotPath {
	scores := make(map[string]int)
	for _, doc := range docs {
		if n := len(doc.Metadata.Callers); n > 0 && doc.Metadata.File != "" {
			scores[doc.Metadata.File] += n
		}
		for _, callee := range doc.Metadata.Callees {
			if callee.File != "" {
				scores[callee.File]++
			}
		}
	}

	hotPaths := make([]HotPath, 0, len(scores))
	for file, score := range scores {
		hotPaths = append(hotPaths, HotPath{File: file, Score: score})
	}
	sort.Slice(hotPaths, func(i, j int) bool {
		if hotPaths[i].Score != hotPaths[j].Score {
			return hotPaths[i].Score > hotPaths[j].Score
		}
		return hotPaths[i].File < hotPaths[j].File
	})
	if len(hotPaths) > max {
		hotPaths = hotPaths[:max]
	}
	return hotPaths
}

// attachChangeFrequency issues one scoped git log per directory node,
// tallying commits in the last 30/90 days and the most recent commit
// time. Directories with no git history silently get no ChangeFrequency
// attached.
func attachChangeFrequency(ctx context.Context, git *gitlog.Extractor, node *MapNode, since time.Time) {
	if node.Path != "" {
		commits, err := git.Log(ctx, gitlog.Options{Path: node.Path, Since: since})
		if err == nil && len(commits) > 0 {
			freq := &ChangeFrequency{}
			now := time.Now()
			for _, c := range commits {
				switch {
				case c.Author.Date.After(now.AddDate(0, 0, -30)):
					freq.Last30Days++
					freq.Last90Days++
				case c.Author.Date.After(now.AddDate(0, 0, -90)):
					freq.Last90Days++
				}
				if c.Author.Date.After(freq.LastCommit) {
					freq.LastCommit = c.Author.Date
				}
			}
			node.ChangeFrequency = freq
		}
	}
	for _, child := range node.Children {
		attachChangeFrequency(ctx, git, child, since)
	}
}

// dockerComposeGlobs are the filenames discoverInfrastructure looks for
// at a repository's root.
var dockerComposeGlobs = []string{"docker-compose.yml", "docker-compose.yaml", "docker-compose.*.yml", "docker-compose.*.yaml"}

// discoverInfrastructure reads any docker-compose file at repoRoot and
// summarizes the services it defines, one note per service naming its
// image (or build source) and exposed ports. A malformed or missing
// compose file yields an empty, non-error result.
func discoverInfrastructure(repoRoot string) []string {
	if repoRoot == "" {
		return nil
	}

	var notes []string
	for _, pattern := range dockerComposeGlobs {
		matches, err := filepath.Glob(filepath.Join(repoRoot, pattern))
		if err != nil {
			continue
		}
		for _, composeFile := range matches {
			notes = append(notes, composeServiceNotes(composeFile)...)
		}
	}
	return notes
}

func composeServiceNotes(composeFile string) []string {
	data, err := os.ReadFile(composeFile)
	if err != nil {
		return nil
	}

	var compose struct {
		Services map[string]struct {
			Image string `yaml:"image"`
			Build any    `yaml:"build"`
			Ports []any  `yaml:"ports"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &compose); err != nil {
		return nil
	}

	name := filepath.Base(composeFile)
	names := make([]string, 0, len(compose.Services))
	for svc := range compose.Services {
		names = append(names, svc)
	}
	sort.Strings(names)

	notes := make([]string, 0, len(names))
	for _, svc := range names {
		cfg := compose.Services[svc]
		note := fmt.Sprintf("%s: service %q", name, svc)
		switch {
		case cfg.Image != "":
			note += fmt.Sprintf(" runs image %q", cfg.Image)
		case cfg.Build != nil:
			note += " builds from local source"
		}
		if len(cfg.Ports) > 0 {
			ports := make([]string, len(cfg.Ports))
			for i, p := range cfg.Ports {
				ports[i] = fmt.Sprintf("%v", p)
			}
			note += fmt.Sprintf(", exposes %s", strings.Join(ports, ", "))
		}
		notes = append(notes, note)
	}
	return notes
}

func clearDocuments(node *MapNode) {
	node.documents = nil
	for _, child := range node.Children {
		clearDocuments(child)
	}
}

// PatternDiff buckets two search-result sets by file, useful for
// comparing usage patterns across two queries or time windows.
type PatternDiff struct {
	OnlyInA []string
	OnlyInB []string
	Shared  []string
}

// ComparePatterns buckets a and b's files into OnlyInA/OnlyInB/Shared.
func ComparePatterns(a, b []domain.SearchResult) PatternDiff {
	filesA := fileSet(a)
	filesB := fileSet(b)

	var diff PatternDiff
	for f := range filesA {
		if filesB[f] {
			diff.Shared = append(diff.Shared, f)
		} else {
			diff.OnlyInA = append(diff.OnlyInA, f)
		}
	}
	for f := range filesB {
		if !filesA[f] {
			diff.OnlyInB = append(diff.OnlyInB, f)
		}
	}

	sort.Strings(diff.OnlyInA)
	sort.Strings(diff.OnlyInB)
	sort.Strings(diff.Shared)
	return diff
}

func fileSet(results []domain.SearchResult) map[string]bool {
	set := make(map[string]bool, len(results))
	for _, r := range results {
		if r.Document.Metadata.File != "" {
			set[r.Document.Metadata.File] = true
		}
	}
	return set
}
