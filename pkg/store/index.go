package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

func marshalEmbedding(embedding []float64) (string, error) {
	b, err := json.Marshal(embedding)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AddressExists reports whether canonicalHash is already a known canonical
// address.
func (s *Store) AddressExists(ctx context.Context, canonicalHash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM canonical_addresses WHERE canonical_hash = ?`, canonicalHash).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: address_exists: %w", err)
	}
	return true, nil
}

// ContainsHash reports whether hash has been persisted anywhere in the
// corpus: as a canonical address, an alternate form, a credential, or a
// previously-logged row/address/credential hash in the event log.
func (s *Store) ContainsHash(ctx context.Context, hash string) (bool, error) {
	queries := []string{
		`SELECT 1 FROM canonical_addresses WHERE canonical_hash = ?`,
		`SELECT 1 FROM address_alternates WHERE alternate_hash = ?`,
		`SELECT 1 FROM address_credentials WHERE credential_hash = ?`,
		`SELECT 1 FROM normalized_rows WHERE address_hash = ? OR credential_hash = ? OR row_hash = ?`,
	}
	args := [][]interface{}{
		{hash}, {hash}, {hash}, {hash, hash, hash},
	}

	for i, q := range queries {
		var n int
		err := s.db.QueryRowContext(ctx, q, args[i]...).Scan(&n)
		if err == nil {
			return true, nil
		}
		if err != sql.ErrNoRows {
			return false, fmt.Errorf("store: contains_hash: %w", err)
		}
	}
	return false, nil
}

// UpdateAddressEmbedding sets the embedding vector on an existing canonical
// address.
func (s *Store) UpdateAddressEmbedding(ctx context.Context, canonicalHash string, embedding []float64) error {
	b, err := marshalEmbedding(embedding)
	if err != nil {
		return fmt.Errorf("store: marshal embedding: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE canonical_addresses SET embedding = ? WHERE canonical_hash = ?`, b, canonicalHash)
	if err != nil {
		return fmt.Errorf("store: update_address_embedding: %w", err)
	}
	return nil
}
