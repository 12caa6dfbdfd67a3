package normalize

import "testing"

func TestField_Idempotent(t *testing.T) {
	inputs := []string{
		"  ExAmple  ",
		"A\tB  C",
		"  multiple   spaces\nand tabs\t",
		"café",
		"it’s – a test",
	}
	for _, in := range inputs {
		once := Field(in)
		twice := Field(once)
		if once != twice {
			t.Errorf("Field not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestField_Basic(t *testing.T) {
	cases := map[string]string{
		"  ExAmple  ":                    "example",
		"A\tB  C":                        "a b c",
		"  multiple   spaces\nand tabs\t": "multiple spaces and tabs",
		"it’s – fine":                    "it's - fine",
	}
	for in, want := range cases {
		if got := Field(in); got != want {
			t.Errorf("Field(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmail_PlusAndDotStripping(t *testing.T) {
	cases := map[string]string{
		"user+spam@example.com":       "user@example.com",
		"john.doe@example.com":        "johndoe@example.com",
		"john.doe+tag@example.com":    "johndoe@example.com",
		"mary.jane.smith@example.org": "maryjanesmith@example.org",
	}
	for in, want := range cases {
		if got := Email(in, nil); got != want {
			t.Errorf("Email(%q) = %q, want %q", in, got, want)
		}
	}
}

// Scenario D from the spec's testable properties.
func TestEmail_DomainSubstitution(t *testing.T) {
	rules := SuffixRules{"gmail.com": {"googlemail.com"}}

	a := Email("john.doe+spam@GMAIL.COM", rules)
	b := Email("johndoe@googlemail.com", rules)

	if a != "johndoe@gmail.com" {
		t.Fatalf("a = %q, want johndoe@gmail.com", a)
	}
	if a != b {
		t.Fatalf("a = %q, b = %q, want equal canonical forms", a, b)
	}
}

func TestRow(t *testing.T) {
	row := []string{" Alice ", "BOB\tsmith", "  EVE  "}
	got := Row(row)
	want := []string{"alice", "bob smith", "eve"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Row()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
