package detect

import "testing"

func hasTag(tags []PiiType, want PiiType) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestDetectPII_Email(t *testing.T) {
	tags := DetectPII("alice@example.com", "email")
	if !hasTag(tags, Email) {
		t.Fatalf("expected Email tag, got %v", tags)
	}
}

func TestDetectPII_IPv4PublicVsPrivate(t *testing.T) {
	cases := map[string]bool{
		"8.8.8.8":         true,
		"1.1.1.1":         true,
		"10.0.0.5":        false,
		"192.168.1.1":     false,
		"172.16.5.5":      false,
		"127.0.0.1":       false,
		"169.254.1.1":     false,
		"255.255.255.255": false,
	}
	for in, want := range cases {
		got := hasTag(DetectPII(in, ""), IPv4Address)
		if got != want {
			t.Errorf("IPv4 %q: got %v, want %v", in, got, want)
		}
	}
}

func TestDetectPII_IPv6PublicVsPrivate(t *testing.T) {
	cases := map[string]bool{
		"2001:4860:4860::8888": true,
		"::1":                  false,
		"fe80::1":              false,
		"fc00::1":              false,
	}
	for in, want := range cases {
		got := hasTag(DetectPII(in, ""), IPv6Address)
		if got != want {
			t.Errorf("IPv6 %q: got %v, want %v", in, got, want)
		}
	}
}

func TestDetectPII_SSN(t *testing.T) {
	cases := map[string]bool{
		"123-45-6789": true,
		"000-12-3456": false,
		"666-12-3456": false,
		"999-99-9999": false,
	}
	for in, want := range cases {
		got := hasTag(DetectPII(in, ""), SocialSecurityNum)
		if got != want {
			t.Errorf("SSN %q: got %v, want %v", in, got, want)
		}
	}
}

func TestDetectPII_CreditCard(t *testing.T) {
	cases := map[string]bool{
		"4111111111111111": true,  // Visa test number, Luhn valid
		"4111111111111112": false, // Luhn invalid
		"1234567890123":    false, // no IIN match
	}
	for in, want := range cases {
		got := hasTag(DetectPII(in, ""), CreditCardNumber)
		if got != want {
			t.Errorf("CreditCard %q: got %v, want %v", in, got, want)
		}
	}
}

func TestDetectPII_IBAN(t *testing.T) {
	if !hasTag(DetectPII("DE89370400440532013000", ""), IBAN) {
		t.Fatal("expected IBAN tag for valid-shaped DE IBAN")
	}
	if hasTag(DetectPII("short", ""), IBAN) {
		t.Fatal("did not expect IBAN tag for short string")
	}
}

func TestDetectPII_SWIFT(t *testing.T) {
	if !hasTag(DetectPII("DEUTDEFF", ""), SWIFTCode) {
		t.Fatal("expected SWIFT tag for 8-char code")
	}
	if !hasTag(DetectPII("DEUTDEFF500", ""), SWIFTCode) {
		t.Fatal("expected SWIFT tag for 11-char code")
	}
}

func TestDetectPII_RoutingNumber(t *testing.T) {
	if !hasTag(DetectPII("021000021", ""), RoutingNumber) {
		t.Fatal("expected routing number tag")
	}
	if hasTag(DetectPII("000000000", ""), RoutingNumber) {
		t.Fatal("did not expect routing number tag for all-zero")
	}
}

func TestDetectPII_CryptoAddress(t *testing.T) {
	cases := []string{
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		"bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		"rEb8TK3gBgk5auZkwc6sHnwrGVJH8DuaLh",
	}
	for _, in := range cases {
		if !hasTag(DetectPII(in, ""), CryptoAddress) {
			t.Errorf("CryptoAddress %q: expected tag", in)
		}
	}
}

func TestDetectPII_Name(t *testing.T) {
	if !hasTag(DetectPII("Alice Johnson", ""), Name) {
		t.Fatal("expected Name tag")
	}
	if hasTag(DetectPII("12345", ""), Name) {
		t.Fatal("did not expect Name tag for digits")
	}
}

func TestDetectPII_MailingAddress(t *testing.T) {
	if !hasTag(DetectPII("123 Main Street, Springfield", ""), MailingAddress) {
		t.Fatal("expected MailingAddress tag")
	}
	if hasTag(DetectPII("hello world", ""), MailingAddress) {
		t.Fatal("did not expect MailingAddress tag without digit/keyword")
	}
}

func TestHashFunctions_Deterministic(t *testing.T) {
	a := HashSSN("123-45-6789")
	b := HashSSN("123456789")
	if a != b {
		t.Fatalf("HashSSN should be formatting-independent: %s != %s", a, b)
	}

	if HashCreditCard("4111111111111111") == "" {
		t.Fatal("HashCreditCard returned empty hash")
	}

	ibanA := HashIBAN("DE89 3704 0044 0532 0130 00")
	ibanB := HashIBAN("de893704004405320130 00")
	if ibanA != ibanB {
		t.Fatalf("HashIBAN should be case/space-independent: %s != %s", ibanA, ibanB)
	}
}
