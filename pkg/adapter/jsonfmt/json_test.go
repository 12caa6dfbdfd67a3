package jsonfmt

import (
	"reflect"
	"testing"
)

func TestParse_Object(t *testing.T) {
	rows, err := New().Parse([]byte(`{"name":"alice","age":30}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := [][]string{{"name", "alice", "age", "30"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
}

func TestParse_ArrayOfObjects(t *testing.T) {
	rows, err := New().Parse([]byte(`[{"a":1,"b":2},{"a":3,"b":4}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := [][]string{{"1", "2"}, {"3", "4"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
}

func TestParse_ArrayOfScalars(t *testing.T) {
	rows, err := New().Parse([]byte(`["alice","bob","eve"]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := [][]string{{"alice", "bob", "eve"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
}

func TestParse_MalformedSurfacesError(t *testing.T) {
	_, err := New().Parse([]byte(`{"a": `))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
