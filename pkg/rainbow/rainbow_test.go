package rainbow

import (
	"strings"
	"testing"
)

func TestTable_LoadAndLookup(t *testing.T) {
	tbl, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tbl.LoadPasswords([]string{"password123", "qwerty", "letmein"})

	digest := digestFor("password123")
	got, ok := tbl.GetWeakPasswordForHash(digest)
	if !ok || got != "password123" {
		t.Fatalf("GetWeakPasswordForHash = %q, %v; want password123, true", got, ok)
	}

	if !tbl.IsWeakPasswordHash(digest) {
		t.Fatal("IsWeakPasswordHash = false, want true")
	}

	if tbl.IsWeakPasswordHash(digestFor("not-in-the-list-xyz")) {
		t.Fatal("IsWeakPasswordHash = true for unknown digest")
	}
}

func TestTable_LoadReader(t *testing.T) {
	tbl, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := strings.NewReader("password1\npassword2\n\npassword3\r\n")
	if err := tbl.LoadReader(r); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
}

func TestTable_CaseInsensitiveDigestLookup(t *testing.T) {
	tbl, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tbl.LoadPasswords([]string{"Sunshine1"})
	digest := digestFor("sunshine1")
	if !tbl.IsWeakPasswordHash(strings.ToUpper(digest)) {
		t.Fatal("expected case-insensitive digest match")
	}
}
