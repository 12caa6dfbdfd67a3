package compliance

import "testing"

func TestHashContent_DeterministicAndDistinct(t *testing.T) {
	h1 := HashContent([]byte("hello"))
	h2 := HashContent([]byte("hello"))
	h3 := HashContent([]byte("world"))

	if h1 != h2 {
		t.Fatalf("HashContent not deterministic: %s != %s", h1, h2)
	}
	if h1 == h3 {
		t.Fatal("expected different content to hash differently")
	}
	if len(h1) != 64 {
		t.Fatalf("len(h1) = %d, want 64 (sha256 hex)", len(h1))
	}
}

func TestDetectChanges_Added(t *testing.T) {
	cs := DetectChanges("file-1", map[string]string{}, map[string]string{"addr-1": "vec-a"})
	if cs.IsEmpty || len(cs.Changes) != 1 {
		t.Fatalf("got %+v", cs)
	}
	if cs.Changes[0].ChangeType != ChangeAdded || cs.Changes[0].CanonicalHash != "addr-1" {
		t.Fatalf("got %+v", cs.Changes[0])
	}
}

func TestDetectChanges_ModifiedOnEmbeddingChange(t *testing.T) {
	prior := map[string]string{"addr-1": "vec-a"}
	current := map[string]string{"addr-1": "vec-b"}

	cs := DetectChanges("file-1", prior, current)
	if len(cs.Changes) != 1 || cs.Changes[0].ChangeType != ChangeModified {
		t.Fatalf("got %+v", cs.Changes)
	}
	if cs.Changes[0].OldVectorHash != "vec-a" || cs.Changes[0].NewVectorHash != "vec-b" {
		t.Fatalf("got %+v", cs.Changes[0])
	}
}

func TestDetectChanges_Removed(t *testing.T) {
	prior := map[string]string{"addr-1": "vec-a"}
	cs := DetectChanges("file-1", prior, map[string]string{})
	if len(cs.Changes) != 1 || cs.Changes[0].ChangeType != ChangeRemoved {
		t.Fatalf("got %+v", cs.Changes)
	}
}

func TestDetectChanges_NoChangesIsEmpty(t *testing.T) {
	data := map[string]string{"addr-1": "vec-a", "addr-2": "vec-b"}
	cs := DetectChanges("file-1", data, data)
	if !cs.IsEmpty || len(cs.Changes) != 0 {
		t.Fatalf("got %+v", cs)
	}
}

func TestDetectChanges_Mixed(t *testing.T) {
	prior := map[string]string{"addr-1": "vec-a", "addr-2": "vec-b", "addr-3": "vec-c"}
	current := map[string]string{"addr-1": "vec-a", "addr-2": "vec-bb", "addr-4": "vec-d"}

	cs := DetectChanges("file-1", prior, current)
	if len(cs.Changes) != 3 {
		t.Fatalf("len(Changes) = %d, want 3", len(cs.Changes))
	}
	if cs.PriorHash == cs.CurrentHash {
		t.Fatal("expected prior and current summary hashes to differ")
	}
}
