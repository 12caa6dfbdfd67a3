package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a sqlite database handle with the ingest pipeline's schema.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS normalized_rows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset TEXT,
	event_type TEXT,
	address_hash TEXT,
	credential_hash TEXT,
	row_hash TEXT,
	file_id TEXT,
	source_file TEXT,
	fields_json TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS canonical_addresses (
	canonical_hash TEXT PRIMARY KEY,
	address_text TEXT NOT NULL,
	normalized_form TEXT NOT NULL,
	embedding TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS address_alternates (
	canonical_hash TEXT NOT NULL,
	alternate_hash TEXT NOT NULL,
	alternate_form TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (canonical_hash, alternate_hash)
);

CREATE TABLE IF NOT EXISTS address_credentials (
	canonical_hash TEXT NOT NULL,
	credential_hash TEXT NOT NULL,
	occurrence_count INTEGER NOT NULL DEFAULT 1,
	first_seen_at TIMESTAMP NOT NULL,
	last_seen_at TIMESTAMP NOT NULL,
	PRIMARY KEY (canonical_hash, credential_hash)
);

CREATE TABLE IF NOT EXISTS address_cooccurrence (
	hash_1 TEXT NOT NULL,
	hash_2 TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 1,
	first_seen_at TIMESTAMP NOT NULL,
	last_seen_at TIMESTAMP NOT NULL,
	PRIMARY KEY (hash_1, hash_2)
);

CREATE TABLE IF NOT EXISTS address_breaches (
	canonical_hash TEXT NOT NULL,
	breach_name TEXT NOT NULL,
	title TEXT,
	domain TEXT,
	date TIMESTAMP,
	pwn_count INTEGER,
	description TEXT,
	verified INTEGER NOT NULL DEFAULT 0,
	fabricated INTEGER NOT NULL DEFAULT 0,
	sensitive INTEGER NOT NULL DEFAULT 0,
	retired INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (canonical_hash, breach_name)
);

CREATE TABLE IF NOT EXISTS file_metadata (
	file_id TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	sha256_hash TEXT NOT NULL UNIQUE,
	file_size INTEGER NOT NULL,
	alternate_names TEXT,
	processing_status TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chain_of_custody (
	file_id TEXT NOT NULL,
	record_id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	operator TEXT NOT NULL,
	file_hash TEXT NOT NULL,
	signature BLOB NOT NULL,
	public_key BLOB NOT NULL,
	record_count INTEGER NOT NULL,
	timestamp TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS alias_relationships (
	canonical_hash TEXT NOT NULL,
	variant_hash TEXT NOT NULL,
	alias_type TEXT NOT NULL,
	confidence REAL NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (canonical_hash, variant_hash)
);

CREATE TABLE IF NOT EXISTS anomaly_scores (
	file_id TEXT NOT NULL,
	subject_hash TEXT NOT NULL,
	anomaly_type TEXT NOT NULL,
	risk_score REAL NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (file_id, subject_hash, anomaly_type)
);
`

// Open opens (creating if absent) a sqlite database at path and applies the
// schema, which is idempotent via CREATE TABLE IF NOT EXISTS.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// InsertNormalizedRow appends a row to the event log.
func (s *Store) InsertNormalizedRow(ctx context.Context, r NormalizedRow) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO normalized_rows
			(dataset, event_type, address_hash, credential_hash, row_hash, file_id, source_file, fields_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Dataset, r.EventType, r.AddressHash, r.CredentialHash, r.RowHash, r.FileID, r.SourceFile, r.FieldsJSON, ts(r.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("store: insert normalized_row: %w", err)
	}
	return res.LastInsertId()
}

// UpsertCanonicalAddress inserts a canonical address if absent, returning
// whether a new row was created.
func (s *Store) UpsertCanonicalAddress(ctx context.Context, a CanonicalAddress) (bool, error) {
	var embedding interface{}
	if a.Embedding != nil {
		b, err := json.Marshal(a.Embedding)
		if err != nil {
			return false, fmt.Errorf("store: marshal embedding: %w", err)
		}
		embedding = string(b)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO canonical_addresses (canonical_hash, address_text, normalized_form, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.CanonicalHash, a.AddressText, a.NormalizedForm, embedding, ts(a.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("store: upsert canonical_address: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertAddressAlternate inserts an alternate-form link if absent.
func (s *Store) UpsertAddressAlternate(ctx context.Context, a AddressAlternate) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO address_alternates (canonical_hash, alternate_hash, alternate_form, created_at)
		VALUES (?, ?, ?, ?)`,
		a.CanonicalHash, a.AlternateHash, a.AlternateForm, ts(a.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("store: upsert address_alternate: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RecordAddressCredential records an address/credential pairing, creating
// it with occurrence_count=1 if absent or incrementing the count and
// updating last_seen_at otherwise. Returns whether a new row was created.
func (s *Store) RecordAddressCredential(ctx context.Context, canonicalHash, credentialHash string, seenAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO address_credentials (canonical_hash, credential_hash, occurrence_count, first_seen_at, last_seen_at)
		VALUES (?, ?, 1, ?, ?)`,
		canonicalHash, credentialHash, ts(seenAt), ts(seenAt))
	if err != nil {
		return false, fmt.Errorf("store: insert address_credential: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE address_credentials
		SET occurrence_count = occurrence_count + 1, last_seen_at = ?
		WHERE canonical_hash = ? AND credential_hash = ?`,
		ts(seenAt), canonicalHash, credentialHash)
	if err != nil {
		return false, fmt.Errorf("store: update address_credential: %w", err)
	}
	return false, nil
}

// RecordCooccurrence records two address hashes seen in the same row,
// normalizing hash order so hash1 < hash2. Returns whether new.
func (s *Store) RecordCooccurrence(ctx context.Context, hashA, hashB string, seenAt time.Time) (bool, error) {
	h1, h2 := hashA, hashB
	if h1 > h2 {
		h1, h2 = h2, h1
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO address_cooccurrence (hash_1, hash_2, count, first_seen_at, last_seen_at)
		VALUES (?, ?, 1, ?, ?)`,
		h1, h2, ts(seenAt), ts(seenAt))
	if err != nil {
		return false, fmt.Errorf("store: insert cooccurrence: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE address_cooccurrence SET count = count + 1, last_seen_at = ?
		WHERE hash_1 = ? AND hash_2 = ?`,
		ts(seenAt), h1, h2)
	if err != nil {
		return false, fmt.Errorf("store: update cooccurrence: %w", err)
	}
	return false, nil
}

// UpsertAddressBreach inserts a breach record if absent.
func (s *Store) UpsertAddressBreach(ctx context.Context, b AddressBreach) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO address_breaches
			(canonical_hash, breach_name, title, domain, date, pwn_count, description, verified, fabricated, sensitive, retired, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.CanonicalHash, b.BreachName, b.Title, b.Domain, optTS(b.Date), b.PwnCount, b.Description,
		boolInt(b.Flags.Verified), boolInt(b.Flags.Fabricated), boolInt(b.Flags.Sensitive), boolInt(b.Flags.Retired), ts(b.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("store: upsert address_breach: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertFileMetadata inserts file metadata if absent, keyed on file_id.
func (s *Store) UpsertFileMetadata(ctx context.Context, f FileMetadata) (bool, error) {
	altNames, err := json.Marshal(f.AlternateNames)
	if err != nil {
		return false, fmt.Errorf("store: marshal alternate_names: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO file_metadata
			(file_id, original_filename, sha256_hash, file_size, alternate_names, processing_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.FileID, f.OriginalFilename, f.SHA256Hash, f.FileSize, string(altNames), f.ProcessingStatus, ts(f.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("store: upsert file_metadata: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// FindFileBySHA256 looks up file metadata by content hash, the duplicate-
// file-detection path.
func (s *Store) FindFileBySHA256(ctx context.Context, sha256Hash string) (*FileMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_id, original_filename, sha256_hash, file_size, alternate_names, processing_status, created_at
		FROM file_metadata WHERE sha256_hash = ?`, sha256Hash)

	var f FileMetadata
	var altNames string
	var createdAt string
	if err := row.Scan(&f.FileID, &f.OriginalFilename, &f.SHA256Hash, &f.FileSize, &altNames, &f.ProcessingStatus, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: find file by sha256: %w", err)
	}
	_ = json.Unmarshal([]byte(altNames), &f.AlternateNames)
	f.CreatedAt = parseTS(createdAt)
	return &f, nil
}

// InsertCustodyRecord appends a chain-of-custody entry, keyed on record_id.
func (s *Store) InsertCustodyRecord(ctx context.Context, r CustodyRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chain_of_custody (file_id, record_id, action, operator, file_hash, signature, public_key, record_count, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.FileID, r.RecordID, r.Action, r.Operator, r.FileHash, r.Signature, r.PublicKey, r.RecordCount, ts(r.Timestamp))
	if err != nil {
		return fmt.Errorf("store: insert custody record: %w", err)
	}
	return nil
}

// UpsertAliasRelationship inserts an alias link if absent.
func (s *Store) UpsertAliasRelationship(ctx context.Context, a AliasRelationship) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO alias_relationships (canonical_hash, variant_hash, alias_type, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.CanonicalHash, a.VariantHash, a.AliasType, a.Confidence, ts(a.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("store: upsert alias_relationship: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertAnomalyScore inserts an anomaly score if absent for the same
// (file_id, subject_hash, anomaly_type) triple.
func (s *Store) UpsertAnomalyScore(ctx context.Context, a AnomalyScore) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO anomaly_scores (file_id, subject_hash, anomaly_type, risk_score, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.FileID, a.SubjectHash, a.AnomalyType, a.RiskScore, ts(a.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("store: upsert anomaly_score: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func ts(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func optTS(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return ts(*t)
}

func parseTS(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

