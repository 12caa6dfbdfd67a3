package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// maxSimilarityResults caps find_similar_addresses regardless of the
// caller-supplied limit.
const maxSimilarityResults = 5

// SimilarAddress is one scored hit from a similarity search.
type SimilarAddress struct {
	CanonicalHash string
	Score         float64
}

// FindSimilarAddresses streams every canonical address with a non-null
// embedding, scores it against queryVec by cosine similarity, keeps hits at
// or above threshold, and returns them sorted by descending score,
// truncated to min(limit, 5).
func (s *Store) FindSimilarAddresses(ctx context.Context, queryVec []float64, limit int, threshold float64) ([]SimilarAddress, error) {
	if limit <= 0 || limit > maxSimilarityResults {
		limit = maxSimilarityResults
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_hash, embedding FROM canonical_addresses WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: query embeddings: %w", err)
	}
	defer rows.Close()

	var hits []SimilarAddress
	for rows.Next() {
		var hash string
		var embeddingJSON sql.NullString
		if err := rows.Scan(&hash, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("store: scan embedding row: %w", err)
		}
		if !embeddingJSON.Valid {
			continue
		}
		var vec []float64
		if err := json.Unmarshal([]byte(embeddingJSON.String), &vec); err != nil {
			continue
		}
		score := cosineSimilarity(queryVec, vec)
		if score >= threshold {
			hits = append(hits, SimilarAddress{CanonicalHash: hash, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate embeddings: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// FindDuplicateAddress returns the exact canonical_hash match if present,
// else the first similarity hit above threshold, else nil.
func (s *Store) FindDuplicateAddress(ctx context.Context, canonicalHash string, embedding []float64, threshold float64) (*SimilarAddress, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM canonical_addresses WHERE canonical_hash = ?`, canonicalHash).Scan(&exists)
	if err == nil {
		return &SimilarAddress{CanonicalHash: canonicalHash, Score: 1.0}, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("store: lookup canonical_hash: %w", err)
	}

	if embedding == nil {
		return nil, nil
	}

	hits, err := s.FindSimilarAddresses(ctx, embedding, 1, threshold)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0], nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
