// Package custody implements the chain-of-custody audit trail: Ed25519
// signed records whose signing envelope uses a fixed field order rather
// than alphabetically sorted JSON, so a given record always serializes to
// the same signing bytes and tampering is provably detectable.
package custody

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CustodyAction enumerates the pipeline stages a custody record may attest.
type CustodyAction int

const (
	FileIngested CustodyAction = iota
	FileValidated
	DuplicationCheck
	EnrichmentComplete
	DataStored
	TemporaryFilesDeleted
	ProcessingComplete
)

func (a CustodyAction) String() string {
	switch a {
	case FileIngested:
		return "file_ingested"
	case FileValidated:
		return "file_validated"
	case DuplicationCheck:
		return "duplication_check"
	case EnrichmentComplete:
		return "enrichment_complete"
	case DataStored:
		return "data_stored"
	case TemporaryFilesDeleted:
		return "temporary_files_deleted"
	case ProcessingComplete:
		return "processing_complete"
	default:
		return "unknown"
	}
}

// ErrTampered indicates a record's signature no longer matches its fields.
var ErrTampered = errors.New("custody: signature verification failed, record may be tampered")

// KeyPair is an Ed25519 signing key pair, hex-encoded for storage.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GenerateKeyPair seeds a new Ed25519 key pair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("custody: generate key pair: %w", err)
	}
	return &KeyPair{
		PrivateKey: hex.EncodeToString(priv),
		PublicKey:  hex.EncodeToString(pub),
	}, nil
}

// PrivateKeyBytes decodes the hex-encoded private key.
func (k *KeyPair) PrivateKeyBytes() (ed25519.PrivateKey, error) {
	b, err := hex.DecodeString(k.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("custody: decode private key: %w", err)
	}
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("custody: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(b))
	}
	return ed25519.PrivateKey(b), nil
}

// Record is a single chain-of-custody entry.
type Record struct {
	RecordID    string
	FileID      string
	FileHash    string
	Operator    string
	Action      CustodyAction
	Timestamp   time.Time
	RecordCount uint64
	Signature   string
	PublicKey   string
	Notes       *string
}

// NewRecord builds an unsigned record with a fresh record_id and the current
// UTC timestamp.
func NewRecord(fileID, fileHash, operator string, action CustodyAction, recordCount uint64) *Record {
	return &Record{
		RecordID:    uuid.NewString(),
		FileID:      fileID,
		FileHash:    fileHash,
		Operator:    operator,
		Action:      action,
		Timestamp:   time.Now().UTC(),
		RecordCount: recordCount,
	}
}

// WithNotes attaches free-form notes to the record.
func (r *Record) WithNotes(notes string) *Record {
	r.Notes = &notes
	return r
}

// Sign populates Signature and PublicKey from the given private key, over
// the record's fixed-order signing envelope.
func (r *Record) Sign(priv ed25519.PrivateKey) error {
	if len(priv) != ed25519.PrivateKeySize {
		return fmt.Errorf("custody: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}

	message, err := signingEnvelope(r)
	if err != nil {
		return err
	}

	sig := ed25519.Sign(priv, message)
	r.Signature = hex.EncodeToString(sig)
	r.PublicKey = hex.EncodeToString(priv.Public().(ed25519.PublicKey))
	return nil
}

// VerifySignature reconstructs the signing envelope and checks the stored
// signature against the stored public key. It fails with ErrTampered if any
// signed field was mutated after signing.
func (r *Record) VerifySignature() (bool, error) {
	pubBytes, err := hex.DecodeString(r.PublicKey)
	if err != nil {
		return false, fmt.Errorf("custody: decode public key: %w", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return false, fmt.Errorf("custody: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pubBytes))
	}

	sigBytes, err := hex.DecodeString(r.Signature)
	if err != nil {
		return false, fmt.Errorf("custody: decode signature: %w", err)
	}
	if len(sigBytes) != ed25519.SignatureSize {
		return false, fmt.Errorf("custody: signature must be %d bytes, got %d", ed25519.SignatureSize, len(sigBytes))
	}

	message, err := signingEnvelope(r)
	if err != nil {
		return false, err
	}

	if !ed25519.Verify(ed25519.PublicKey(pubBytes), message, sigBytes) {
		return false, ErrTampered
	}
	return true, nil
}

// signingEnvelope renders the exact 8-key, fixed-order JSON object the
// signature covers: record_id, file_id, file_hash, operator, action,
// timestamp, record_count, notes. Field order is part of the signed
// contract, so this bypasses the alphabetically-sorted canonicalizer used
// elsewhere in the pipeline.
func signingEnvelope(r *Record) ([]byte, error) {
	notes, err := json.Marshal(r.Notes)
	if err != nil {
		return nil, fmt.Errorf("custody: marshal notes: %w", err)
	}

	recordID, _ := json.Marshal(r.RecordID)
	fileID, _ := json.Marshal(r.FileID)
	fileHash, _ := json.Marshal(r.FileHash)
	operator, _ := json.Marshal(r.Operator)
	action, _ := json.Marshal(r.Action.String())
	timestamp, _ := json.Marshal(r.Timestamp.Format(time.RFC3339Nano))

	buf := fmt.Sprintf(
		`{"record_id":%s,"file_id":%s,"file_hash":%s,"operator":%s,"action":%s,"timestamp":%s,"record_count":%d,"notes":%s}`,
		recordID, fileID, fileHash, operator, action, timestamp, r.RecordCount, notes,
	)
	return []byte(buf), nil
}
