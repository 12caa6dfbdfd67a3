package csvfmt

import (
	"reflect"
	"testing"
)

func TestParse_Basic(t *testing.T) {
	csv := "Name,Email\n Alice , ALICE@Example.COM \nBob, bob@EX.com\n"
	rows, err := New().Parse([]byte(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	want := []string{"Name", "Email"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Fatalf("rows[0] = %v, want %v", rows[0], want)
	}
}

func TestParse_EscapedQuotesAndMultiline(t *testing.T) {
	csv := "a,b,c\n\"multi\nline\",d,\"with \"\"quote\"\"\"\n"
	rows, err := New().Parse([]byte(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1][0] != "multi\nline" {
		t.Fatalf("rows[1][0] = %q, want %q", rows[1][0], "multi\nline")
	}
	if rows[1][2] != `with "quote"` {
		t.Fatalf("rows[1][2] = %q, want %q", rows[1][2], `with "quote"`)
	}
}

func TestParse_UnterminatedQuoteAtEOF(t *testing.T) {
	csv := "a,\"unterminated"
	rows, err := New().Parse([]byte(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0][1] != "unterminated" {
		t.Fatalf("rows[0][1] = %q, want %q", rows[0][1], "unterminated")
	}
}

func TestParse_NoTrailingNewline(t *testing.T) {
	rows, err := New().Parse([]byte("a,b\nc,d"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
}
