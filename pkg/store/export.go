package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jeleniel/breachcorpus/pkg/canonicalize"
)

// Snapshot is the full JSON-exportable contents of a store, with tables
// ordered so Import can walk them respecting foreign-key dependencies:
// file_metadata and canonical_addresses first, then everything that
// references a canonical_hash, then everything that references a file_id.
type Snapshot struct {
	FileMetadata        []FileMetadata        `json:"file_metadata"`
	CanonicalAddresses  []CanonicalAddress    `json:"canonical_addresses"`
	AddressAlternates   []AddressAlternate    `json:"address_alternates"`
	AddressCredentials  []AddressCredential   `json:"address_credentials"`
	AddressCooccurrence []AddressCooccurrence `json:"address_cooccurrence"`
	AddressBreaches     []AddressBreach       `json:"address_breaches"`
	AliasRelationships  []AliasRelationship   `json:"alias_relationships"`
	ChainOfCustody      []CustodyRecord       `json:"chain_of_custody"`
	AnomalyScores       []AnomalyScore        `json:"anomaly_scores"`
	NormalizedRows      []NormalizedRow       `json:"normalized_rows"`
}

// CanonicalHash returns the RFC 8785 canonical-JSON SHA-256 digest of the
// snapshot, letting two independently exported snapshots of the same
// dataset be compared for tampering without a byte-identical encoding.
func (snap *Snapshot) CanonicalHash() (string, error) {
	return canonicalize.CanonicalHash(snap)
}

// Export reads every table into a Snapshot, in dependency order.
func (s *Store) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := scanAll(ctx, s.db, `SELECT file_id, original_filename, sha256_hash, file_size, alternate_names, processing_status, created_at FROM file_metadata`,
		func(scan scanFunc) error {
			var f FileMetadata
			var altNames, createdAt string
			if err := scan(&f.FileID, &f.OriginalFilename, &f.SHA256Hash, &f.FileSize, &altNames, &f.ProcessingStatus, &createdAt); err != nil {
				return err
			}
			_ = json.Unmarshal([]byte(altNames), &f.AlternateNames)
			f.CreatedAt = parseTS(createdAt)
			snap.FileMetadata = append(snap.FileMetadata, f)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export file_metadata: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT canonical_hash, address_text, normalized_form, embedding, created_at FROM canonical_addresses`,
		func(scan scanFunc) error {
			var a CanonicalAddress
			var embedding *string
			var createdAt string
			if err := scan(&a.CanonicalHash, &a.AddressText, &a.NormalizedForm, &embedding, &createdAt); err != nil {
				return err
			}
			if embedding != nil {
				_ = json.Unmarshal([]byte(*embedding), &a.Embedding)
			}
			a.CreatedAt = parseTS(createdAt)
			snap.CanonicalAddresses = append(snap.CanonicalAddresses, a)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export canonical_addresses: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT canonical_hash, alternate_hash, alternate_form, created_at FROM address_alternates`,
		func(scan scanFunc) error {
			var a AddressAlternate
			var createdAt string
			if err := scan(&a.CanonicalHash, &a.AlternateHash, &a.AlternateForm, &createdAt); err != nil {
				return err
			}
			a.CreatedAt = parseTS(createdAt)
			snap.AddressAlternates = append(snap.AddressAlternates, a)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export address_alternates: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT canonical_hash, credential_hash, occurrence_count, first_seen_at, last_seen_at FROM address_credentials`,
		func(scan scanFunc) error {
			var a AddressCredential
			var firstSeen, lastSeen string
			if err := scan(&a.CanonicalHash, &a.CredentialHash, &a.OccurrenceCount, &firstSeen, &lastSeen); err != nil {
				return err
			}
			a.FirstSeenAt, a.LastSeenAt = parseTS(firstSeen), parseTS(lastSeen)
			snap.AddressCredentials = append(snap.AddressCredentials, a)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export address_credentials: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT hash_1, hash_2, count, first_seen_at, last_seen_at FROM address_cooccurrence`,
		func(scan scanFunc) error {
			var a AddressCooccurrence
			var firstSeen, lastSeen string
			if err := scan(&a.Hash1, &a.Hash2, &a.Count, &firstSeen, &lastSeen); err != nil {
				return err
			}
			a.FirstSeenAt, a.LastSeenAt = parseTS(firstSeen), parseTS(lastSeen)
			snap.AddressCooccurrence = append(snap.AddressCooccurrence, a)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export address_cooccurrence: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT canonical_hash, breach_name, title, domain, date, pwn_count, description, verified, fabricated, sensitive, retired, created_at FROM address_breaches`,
		func(scan scanFunc) error {
			var a AddressBreach
			var date *string
			var createdAt string
			var verified, fabricated, sensitive, retired int
			if err := scan(&a.CanonicalHash, &a.BreachName, &a.Title, &a.Domain, &date, &a.PwnCount, &a.Description,
				&verified, &fabricated, &sensitive, &retired, &createdAt); err != nil {
				return err
			}
			if date != nil {
				t := parseTS(*date)
				a.Date = &t
			}
			a.Flags = BreachFlags{Verified: verified != 0, Fabricated: fabricated != 0, Sensitive: sensitive != 0, Retired: retired != 0}
			a.CreatedAt = parseTS(createdAt)
			snap.AddressBreaches = append(snap.AddressBreaches, a)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export address_breaches: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT canonical_hash, variant_hash, alias_type, confidence, created_at FROM alias_relationships`,
		func(scan scanFunc) error {
			var a AliasRelationship
			var createdAt string
			if err := scan(&a.CanonicalHash, &a.VariantHash, &a.AliasType, &a.Confidence, &createdAt); err != nil {
				return err
			}
			a.CreatedAt = parseTS(createdAt)
			snap.AliasRelationships = append(snap.AliasRelationships, a)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export alias_relationships: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT file_id, record_id, action, operator, file_hash, signature, public_key, record_count, timestamp FROM chain_of_custody`,
		func(scan scanFunc) error {
			var c CustodyRecord
			var timestamp string
			if err := scan(&c.FileID, &c.RecordID, &c.Action, &c.Operator, &c.FileHash, &c.Signature, &c.PublicKey, &c.RecordCount, &timestamp); err != nil {
				return err
			}
			c.Timestamp = parseTS(timestamp)
			snap.ChainOfCustody = append(snap.ChainOfCustody, c)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export chain_of_custody: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT file_id, subject_hash, anomaly_type, risk_score, created_at FROM anomaly_scores`,
		func(scan scanFunc) error {
			var a AnomalyScore
			var createdAt string
			if err := scan(&a.FileID, &a.SubjectHash, &a.AnomalyType, &a.RiskScore, &createdAt); err != nil {
				return err
			}
			a.CreatedAt = parseTS(createdAt)
			snap.AnomalyScores = append(snap.AnomalyScores, a)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export anomaly_scores: %w", err)
	}

	if err := scanAll(ctx, s.db, `SELECT id, dataset, event_type, address_hash, credential_hash, row_hash, file_id, source_file, fields_json, created_at FROM normalized_rows`,
		func(scan scanFunc) error {
			var r NormalizedRow
			var createdAt string
			if err := scan(&r.ID, &r.Dataset, &r.EventType, &r.AddressHash, &r.CredentialHash, &r.RowHash, &r.FileID, &r.SourceFile, &r.FieldsJSON, &createdAt); err != nil {
				return err
			}
			r.CreatedAt = parseTS(createdAt)
			snap.NormalizedRows = append(snap.NormalizedRows, r)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("store: export normalized_rows: %w", err)
	}

	return snap, nil
}

// Import applies a Snapshot, walking tables in the same dependency order
// Export produced. Every write uses insert-if-absent semantics, so
// re-importing the same snapshot twice is a no-op the second time.
func (s *Store) Import(ctx context.Context, snap *Snapshot) error {
	for _, f := range snap.FileMetadata {
		if _, err := s.UpsertFileMetadata(ctx, f); err != nil {
			return err
		}
	}
	for _, a := range snap.CanonicalAddresses {
		if _, err := s.UpsertCanonicalAddress(ctx, a); err != nil {
			return err
		}
	}
	for _, a := range snap.AddressAlternates {
		if _, err := s.UpsertAddressAlternate(ctx, a); err != nil {
			return err
		}
	}
	for _, a := range snap.AddressCredentials {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO address_credentials (canonical_hash, credential_hash, occurrence_count, first_seen_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?)`,
			a.CanonicalHash, a.CredentialHash, a.OccurrenceCount, ts(a.FirstSeenAt), ts(a.LastSeenAt)); err != nil {
			return fmt.Errorf("store: import address_credential: %w", err)
		}
	}
	for _, a := range snap.AddressCooccurrence {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO address_cooccurrence (hash_1, hash_2, count, first_seen_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?)`,
			a.Hash1, a.Hash2, a.Count, ts(a.FirstSeenAt), ts(a.LastSeenAt)); err != nil {
			return fmt.Errorf("store: import cooccurrence: %w", err)
		}
	}
	for _, a := range snap.AddressBreaches {
		if _, err := s.UpsertAddressBreach(ctx, a); err != nil {
			return err
		}
	}
	for _, a := range snap.AliasRelationships {
		if _, err := s.UpsertAliasRelationship(ctx, a); err != nil {
			return err
		}
	}
	for _, c := range snap.ChainOfCustody {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO chain_of_custody (file_id, record_id, action, operator, file_hash, signature, public_key, record_count, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.FileID, c.RecordID, c.Action, c.Operator, c.FileHash, c.Signature, c.PublicKey, c.RecordCount, ts(c.Timestamp)); err != nil {
			return fmt.Errorf("store: import chain_of_custody: %w", err)
		}
	}
	for _, a := range snap.AnomalyScores {
		if _, err := s.UpsertAnomalyScore(ctx, a); err != nil {
			return err
		}
	}
	for _, r := range snap.NormalizedRows {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO normalized_rows (id, dataset, event_type, address_hash, credential_hash, row_hash, file_id, source_file, fields_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Dataset, r.EventType, r.AddressHash, r.CredentialHash, r.RowHash, r.FileID, r.SourceFile, r.FieldsJSON, ts(r.CreatedAt)); err != nil {
			return fmt.Errorf("store: import normalized_row: %w", err)
		}
	}
	return nil
}

type scanFunc func(dest ...interface{}) error

func scanAll(ctx context.Context, db *sql.DB, query string, fn func(scanFunc) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}
	return rows.Err()
}
