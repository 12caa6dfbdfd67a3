package store

import (
	"context"
	"testing"
	"time"
)

func TestAddressExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if exists, err := s.AddressExists(ctx, "hash1"); err != nil || exists {
		t.Fatalf("got exists=%v err=%v, want false/nil", exists, err)
	}

	if _, err := s.UpsertCanonicalAddress(ctx, CanonicalAddress{CanonicalHash: "hash1", AddressText: "a@b.com", NormalizedForm: "a@b.com", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertCanonicalAddress: %v", err)
	}

	if exists, err := s.AddressExists(ctx, "hash1"); err != nil || !exists {
		t.Fatalf("got exists=%v err=%v, want true/nil", exists, err)
	}
}

func TestContainsHash_AcrossTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if found, err := s.ContainsHash(ctx, "rowhash1"); err != nil || found {
		t.Fatalf("got found=%v err=%v, want false/nil", found, err)
	}

	if _, err := s.InsertNormalizedRow(ctx, NormalizedRow{RowHash: "rowhash1", FieldsJSON: "[]", CreatedAt: now}); err != nil {
		t.Fatalf("InsertNormalizedRow: %v", err)
	}

	if found, err := s.ContainsHash(ctx, "rowhash1"); err != nil || !found {
		t.Fatalf("got found=%v err=%v, want true/nil", found, err)
	}
}

func TestUpdateAddressEmbedding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertCanonicalAddress(ctx, CanonicalAddress{CanonicalHash: "hash1", AddressText: "a@b.com", NormalizedForm: "a@b.com", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertCanonicalAddress: %v", err)
	}

	if err := s.UpdateAddressEmbedding(ctx, "hash1", []float64{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("UpdateAddressEmbedding: %v", err)
	}

	hits, err := s.FindSimilarAddresses(ctx, []float64{0.1, 0.2, 0.3}, 5, 0.9)
	if err != nil {
		t.Fatalf("FindSimilarAddresses: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want 1", len(hits))
	}
}
