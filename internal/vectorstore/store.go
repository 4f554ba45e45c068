// Package vectorstore implements an on-disk columnar vector table. No
// LanceDB driver exists in the Go ecosystem, so the table is persisted
// via gorm + the sqlite driver, with vector math done in application
// code rather than pushed into the database.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

// documentRow is the GORM model backing the "documents" table.
type documentRow struct {
	ID       string `gorm:"column:id;primaryKey"`
	Text     string `gorm:"column:text"`
	Type     string `gorm:"column:type"`
	Language string `gorm:"column:language"`
	Vector   []byte `gorm:"column:vector"`
	Metadata string `gorm:"column:metadata"`
}

func (documentRow) TableName() string { return "documents" }

// VectorStore is a gorm/sqlite-backed vector table. It is safe for
// concurrent use: writes are serialized by mu, matching a single-process
// cooperative concurrency model.
type VectorStore struct {
	mu   sync.Mutex
	db   *gorm.DB
	path string
}

// New returns an uninitialized VectorStore. Reads return empty and
// writes are rejected with ErrPrecondition until Initialize succeeds.
func New() *VectorStore {
	return &VectorStore{}
}

// Initialize opens (creating if necessary) the sqlite-backed table at
// path. Calling Initialize again on an already-open store is a no-op.
func (s *VectorStore) Initialize(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("%w: open vector store %q: %v", domain.ErrIO, path, err)
	}
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return fmt.Errorf("%w: migrate vector store schema: %v", domain.ErrIO, err)
	}

	s.db = db
	s.path = path
	return nil
}

// Add upserts docs/vecs by Document.ID: a matched id replaces all
// fields, an unmatched id is inserted.
func (s *VectorStore) Add(ctx context.Context, docs []domain.Document, vecs [][]float32) error {
	if len(docs) != len(vecs) {
		return fmt.Errorf("%w: %d documents but %d vectors", domain.ErrPrecondition, len(docs), len(vecs))
	}
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("%w: vector store not initialized", domain.ErrPrecondition)
	}

	rows := make([]documentRow, len(docs))
	for i, doc := range docs {
		metaJSON, err := doc.MetadataJSON()
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPrecondition, err)
		}
		rows[i] = documentRow{
			ID:       doc.ID,
			Text:     doc.Text,
			Type:     string(doc.Type),
			Language: doc.Language,
			Vector:   encodeVector(vecs[i]),
			Metadata: metaJSON,
		}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("%w: add documents: %v", domain.ErrBackend, err)
	}
	return nil
}

// Search returns rows ranked by descending similarity to vec, capped at
// opts.Limit, restricted to score >= opts.ScoreThreshold and (if set)
// to rows whose parsed metadata matches opts.Filter.
func (s *VectorStore) Search(ctx context.Context, vec []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, nil
	}

	var rows []documentRow
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrBackend, err)
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(row)
		if err != nil {
			continue
		}
		if opts.Filter != nil && !matchesFilter(doc.Metadata, opts.Filter) {
			continue
		}

		rowVec := decodeVector(row.Vector)
		score := Score(l2Distance(vec, rowVec))
		if score < opts.ScoreThreshold {
			continue
		}
		results = append(results, domain.SearchResult{Document: doc, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	limit := opts.Limit
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// GetAll returns up to limit rows with no vector math applied and no
// ordering guarantee. limit <= 0 means unbounded.
func (s *VectorStore) GetAll(ctx context.Context, limit int) ([]domain.Document, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, nil
	}

	q := db.WithContext(ctx)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []documentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: getAll: %v", domain.ErrBackend, err)
	}

	docs := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(row)
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get returns the row with the matching id via an indexed primary-key
// lookup, or (domain.Document{}, false) if no such row exists.
func (s *VectorStore) Get(ctx context.Context, id string) (domain.Document, bool, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return domain.Document{}, false, nil
	}

	var row documentRow
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("%w: get %q: %v", domain.ErrBackend, id, err)
	}

	doc, err := rowToDocument(row)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("%w: %v", domain.ErrConsistency, err)
	}
	return doc, true, nil
}

// Delete removes rows with matching ids. An empty ids slice is a no-op.
// ids are bound as query parameters (never string-concatenated into the
// SQL text), so values containing quote characters cannot escape the
// predicate.
func (s *VectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("%w: vector store not initialized", domain.ErrPrecondition)
	}

	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&documentRow{}).Error; err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrBackend, err)
	}
	return nil
}

// Count returns the current row count.
func (s *VectorStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return 0, nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&documentRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrBackend, err)
	}
	return count, nil
}

// Optimize compacts the backing sqlite file and refreshes indices.
func (s *VectorStore) Optimize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("%w: vector store not initialized", domain.ErrPrecondition)
	}
	if err := s.db.WithContext(ctx).Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("%w: optimize: %v", domain.ErrBackend, err)
	}
	return nil
}

// Close releases the underlying database handle. Subsequent operations
// require a fresh Initialize call.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: get underlying db: %v", domain.ErrIO, err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("%w: close vector store: %v", domain.ErrIO, err)
	}
	s.db = nil
	return nil
}

// Score converts a raw L2 distance into the store's similarity score
//: exp(-d^2) maps d=0 to exactly 1.0,
// is monotonically decreasing, and never reaches 0 the way 1-d would.
func Score(distance float64) float64 {
	return math.Exp(-distance * distance)
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func matchesFilter(meta domain.CoreMetadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := meta.Get(key)
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func rowToDocument(row documentRow) (domain.Document, error) {
	meta, err := domain.ParseMetadataJSON(row.Metadata)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:       row.ID,
		Text:     row.Text,
		Type:     domain.DocType(row.Type),
		Language: row.Language,
		Metadata: meta,
	}, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		bits := math.Float32bits(f)
		buf[i*4] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
