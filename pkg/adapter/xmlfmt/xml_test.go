package xmlfmt

import (
	"reflect"
	"testing"
)

func TestParse_SingleLeafBearingElement(t *testing.T) {
	xml := `<record><name>Alice</name><email>alice@example.com</email></record>`
	rows, err := New().Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := [][]string{{"name", "Alice", "email", "alice@example.com"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
}

func TestParse_RepeatedSubtrees(t *testing.T) {
	xml := `<records>
		<record><name>Alice</name><email>alice@example.com</email></record>
		<record><name>Bob</name><email>bob@example.com</email></record>
	</records>`
	rows, err := New().Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	want0 := []string{"name", "Alice", "email", "alice@example.com"}
	if !reflect.DeepEqual(rows[0], want0) {
		t.Fatalf("rows[0] = %v, want %v", rows[0], want0)
	}
}

func TestParse_MalformedSurfacesError(t *testing.T) {
	_, err := New().Parse([]byte(`<record><name>Alice</record>`))
	if err == nil {
		t.Fatal("expected error for malformed XML")
	}
}
