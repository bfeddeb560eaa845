package memory

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// SemanticIndex ranks past interactions by meaning. Embeddings are stored as
// raw float32 blobs next to their content and compared in-process with cosine
// similarity. When no embedding engine is configured (or it fails), the index
// degrades to keyword matching so recall never blocks the pipeline.
type SemanticIndex struct {
	store  *SQLiteStore
	engine ports.EmbeddingEngine
	logger ports.Logger
}

// NewSemanticIndex builds the recall index on top of an open store. The
// engine may be nil.
func NewSemanticIndex(store *SQLiteStore, engine ports.EmbeddingEngine, logger ports.Logger) *SemanticIndex {
	return &SemanticIndex{store: store, engine: engine, logger: logger}
}

// Remember stores one piece of content for later recall.
func (x *SemanticIndex) Remember(ctx context.Context, content, kind string) error {
	var blob []byte
	if x.engine != nil {
		vec, err := x.engine.Embed(ctx, content)
		if err != nil {
			x.logger.Warn("embedding failed, storing without vector", map[string]interface{}{
				"engine": x.engine.Name(),
				"error":  err.Error(),
			})
		} else {
			blob = encodeVector(vec)
		}
	}
	x.store.mu.Lock()
	defer x.store.mu.Unlock()
	_, err := x.store.db.ExecContext(ctx, `INSERT INTO memories
		(id, content, kind, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), content, kind, blob, time.Now().Format(time.RFC3339))
	return err
}

// Search returns up to k memories ranked by relevance to the query.
func (x *SemanticIndex) Search(ctx context.Context, query string, k int) ([]domain.MemoryHit, error) {
	if k <= 0 {
		k = 5
	}
	if x.engine != nil {
		qvec, err := x.engine.Embed(ctx, query)
		if err == nil {
			hits, serr := x.vectorSearch(ctx, qvec, k)
			if serr == nil && len(hits) > 0 {
				return hits, nil
			}
			if serr != nil {
				return nil, serr
			}
		} else {
			x.logger.Warn("query embedding failed, falling back to keywords", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return x.keywordSearch(ctx, query, k)
}

func (x *SemanticIndex) vectorSearch(ctx context.Context, qvec []float32, k int) ([]domain.MemoryHit, error) {
	rows, err := x.store.db.QueryContext(ctx,
		`SELECT id, content, kind, embedding FROM memories WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []domain.MemoryHit
	for rows.Next() {
		var hit domain.MemoryHit
		var blob []byte
		if err := rows.Scan(&hit.ID, &hit.Content, &hit.Kind, &blob); err != nil {
			return nil, err
		}
		vec := decodeVector(blob)
		if len(vec) != len(qvec) {
			continue
		}
		hit.Score = cosine(qvec, vec)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *SemanticIndex) keywordSearch(ctx context.Context, query string, k int) ([]domain.MemoryHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}
	clauses := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms))
	for _, term := range terms {
		clauses = append(clauses, "LOWER(content) LIKE ?")
		args = append(args, "%"+term+"%")
	}
	args = append(args, k)
	rows, err := x.store.db.QueryContext(ctx,
		`SELECT id, content, kind FROM memories WHERE `+strings.Join(clauses, " OR ")+
			` ORDER BY created_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []domain.MemoryHit
	for rows.Next() {
		var hit domain.MemoryHit
		if err := rows.Scan(&hit.ID, &hit.Content, &hit.Kind); err != nil {
			return nil, err
		}
		lower := strings.ToLower(hit.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matched++
			}
		}
		hit.Score = float64(matched) / float64(len(terms))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

func encodeVector(vec []float32) []byte {
	blob := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func decodeVector(blob []byte) []float32 {
	if len(blob)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ ports.SemanticSearcher = (*SemanticIndex)(nil)
