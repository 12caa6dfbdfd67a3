package store

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertCanonicalAddress_InsertIfAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	addr := CanonicalAddress{CanonicalHash: "hash1", AddressText: "alice@example.com", NormalizedForm: "alice@example.com", CreatedAt: time.Now()}

	created, err := s.UpsertCanonicalAddress(ctx, addr)
	if err != nil {
		t.Fatalf("UpsertCanonicalAddress: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first insert")
	}

	created, err = s.UpsertCanonicalAddress(ctx, addr)
	if err != nil {
		t.Fatalf("UpsertCanonicalAddress: %v", err)
	}
	if created {
		t.Fatal("expected created=false on duplicate insert")
	}
}

func TestRecordAddressCredential_IncrementsOccurrence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	created, err := s.RecordAddressCredential(ctx, "addrhash", "credhash", now)
	if err != nil || !created {
		t.Fatalf("first record = %v, %v; want true, nil", created, err)
	}

	created, err = s.RecordAddressCredential(ctx, "addrhash", "credhash", now.Add(time.Minute))
	if err != nil || created {
		t.Fatalf("second record = %v, %v; want false, nil", created, err)
	}

	var count int64
	row := s.db.QueryRowContext(ctx, `SELECT occurrence_count FROM address_credentials WHERE canonical_hash = ? AND credential_hash = ?`, "addrhash", "credhash")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("occurrence_count = %d, want 2", count)
	}
}

func TestRecordCooccurrence_NormalizesHashOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := s.RecordCooccurrence(ctx, "zzz", "aaa", now); err != nil {
		t.Fatalf("RecordCooccurrence: %v", err)
	}

	var h1, h2 string
	row := s.db.QueryRowContext(ctx, `SELECT hash_1, hash_2 FROM address_cooccurrence`)
	if err := row.Scan(&h1, &h2); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if h1 != "aaa" || h2 != "zzz" {
		t.Fatalf("got hash_1=%s hash_2=%s, want aaa/zzz", h1, h2)
	}
}

func TestFindSimilarAddresses_CosineSimilarityAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	vectors := map[string][]float64{
		"exact":    {1, 0, 0},
		"close":    {0.99, 0.1, 0},
		"orthogonal": {0, 1, 0},
	}
	for hash, vec := range vectors {
		addr := CanonicalAddress{CanonicalHash: hash, AddressText: hash, NormalizedForm: hash, Embedding: vec, CreatedAt: time.Now()}
		if _, err := s.UpsertCanonicalAddress(ctx, addr); err != nil {
			t.Fatalf("UpsertCanonicalAddress: %v", err)
		}
	}

	hits, err := s.FindSimilarAddresses(ctx, []float64{1, 0, 0}, 5, 0.5)
	if err != nil {
		t.Fatalf("FindSimilarAddresses: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2 (exact + close, orthogonal excluded)", len(hits))
	}
	if hits[0].CanonicalHash != "exact" {
		t.Fatalf("hits[0] = %s, want exact (highest score first)", hits[0].CanonicalHash)
	}
}

func TestExportImport_RoundTripIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertFileMetadata(ctx, FileMetadata{
		FileID: "file-1", OriginalFilename: "dump.csv", SHA256Hash: "abc", FileSize: 100,
		ProcessingStatus: "complete", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertFileMetadata: %v", err)
	}
	if _, err := s.UpsertCanonicalAddress(ctx, CanonicalAddress{
		CanonicalHash: "hash1", AddressText: "a@b.com", NormalizedForm: "a@b.com", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertCanonicalAddress: %v", err)
	}

	snap, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(snap.FileMetadata) != 1 || len(snap.CanonicalAddresses) != 1 {
		t.Fatalf("unexpected snapshot sizes: files=%d addrs=%d", len(snap.FileMetadata), len(snap.CanonicalAddresses))
	}

	if err := s.Import(ctx, snap); err != nil {
		t.Fatalf("Import: %v", err)
	}

	snap2, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export after reimport: %v", err)
	}
	if len(snap2.FileMetadata) != 1 || len(snap2.CanonicalAddresses) != 1 {
		t.Fatalf("reimport duplicated rows: files=%d addrs=%d", len(snap2.FileMetadata), len(snap2.CanonicalAddresses))
	}
}

func TestSnapshot_CanonicalHashIsStableAcrossReexport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertFileMetadata(ctx, FileMetadata{
		FileID: "file-1", OriginalFilename: "dump.csv", SHA256Hash: "abc", FileSize: 100,
		ProcessingStatus: "complete", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertFileMetadata: %v", err)
	}

	snap1, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	hash1, err := snap1.CanonicalHash()
	if err != nil {
		t.Fatalf("CanonicalHash: %v", err)
	}

	snap2, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	hash2, err := snap2.CanonicalHash()
	if err != nil {
		t.Fatalf("CanonicalHash: %v", err)
	}

	if hash1 != hash2 {
		t.Fatalf("hash1 = %s, hash2 = %s, want equal", hash1, hash2)
	}
}
