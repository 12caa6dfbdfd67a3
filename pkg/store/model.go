// Package store implements the relational persistence layer: an
// append-only normalized-row log, canonical address/credential/breach
// tables with insert-if-absent dedup semantics, chain-of-custody and
// anomaly-score tables, and an online cosine-similarity search over
// address embeddings stored as JSON float arrays.
package store

import "time"

// NormalizedRow is one append-only event-log entry.
type NormalizedRow struct {
	ID             int64
	Dataset        string
	EventType      string
	AddressHash    string
	CredentialHash string
	RowHash        string
	FileID         string
	SourceFile     string
	FieldsJSON     string
	CreatedAt      time.Time
}

// CanonicalAddress is a deduplicated address identity.
type CanonicalAddress struct {
	CanonicalHash  string
	AddressText    string
	NormalizedForm string
	Embedding      []float64
	CreatedAt      time.Time
}

// AddressAlternate links a canonical address to an alternate spelling hash.
type AddressAlternate struct {
	CanonicalHash string
	AlternateHash string
	AlternateForm string
	CreatedAt     time.Time
}

// AddressCredential links a canonical address to a credential it appeared
// with, tracking how many times the pairing was observed.
type AddressCredential struct {
	CanonicalHash   string
	CredentialHash  string
	OccurrenceCount int64
	FirstSeenAt     time.Time
	LastSeenAt      time.Time
}

// AddressCooccurrence tracks two address hashes observed together in the
// same row. Hash1 is always lexicographically less than Hash2.
type AddressCooccurrence struct {
	Hash1       string
	Hash2       string
	Count       int64
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// BreachFlags captures HaveIBeenPwned-style breach metadata flags.
type BreachFlags struct {
	Verified   bool
	Fabricated bool
	Sensitive  bool
	Retired    bool
}

// BreachRecord is the breach-collaborator lookup result for one address,
// prior to being associated with a canonical address hash and persisted.
type BreachRecord struct {
	BreachName  string
	Title       string
	Domain      string
	Date        *time.Time
	PwnCount    *int64
	Description string
	Flags       BreachFlags
}

// AddressBreach records a known breach a canonical address appeared in.
type AddressBreach struct {
	CanonicalHash string
	BreachName    string
	Title         string
	Domain        string
	Date          *time.Time
	PwnCount      *int64
	Description   string
	Flags         BreachFlags
	CreatedAt     time.Time
}

// FileMetadata is the stored record of an ingested file's identity.
type FileMetadata struct {
	FileID           string
	OriginalFilename string
	SHA256Hash       string
	FileSize         int64
	AlternateNames   []string
	ProcessingStatus string
	CreatedAt        time.Time
}

// CustodyRecord is the stored form of a chain-of-custody entry.
type CustodyRecord struct {
	FileID      string
	RecordID    string
	Action      string
	Operator    string
	FileHash    string
	Signature   []byte
	PublicKey   []byte
	RecordCount int64
	Timestamp   time.Time
}

// AliasRelationship links a canonical address to a variant discovered by
// alias-resolution heuristics.
type AliasRelationship struct {
	CanonicalHash string
	VariantHash   string
	AliasType     string
	Confidence    float64
	CreatedAt     time.Time
}

// AnomalyScore is a stored anomaly-detector result for a subject within a
// specific file.
type AnomalyScore struct {
	FileID      string
	SubjectHash string
	AnomalyType string
	RiskScore   float64
	CreatedAt   time.Time
}
