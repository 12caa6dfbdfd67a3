package hashutil

import "testing"

func TestSHA256Hex(t *testing.T) {
	got := SHA256Hex([]byte("hello"))
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Fatalf("SHA256Hex(hello) = %s, want %s", got, want)
	}
}

func TestMD5Hex(t *testing.T) {
	got := MD5Hex([]byte("hello"))
	want := "5d41402abc4b2a76b9719d911017c592"
	if got != want {
		t.Fatalf("MD5Hex(hello) = %s, want %s", got, want)
	}
}

func TestIsCredentialHash(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcg7b3XeKeUxWdeS86E36MM32Oi", true},
		{"5d41402abc4b2a76b9719d911017c592", true},                                     // md5 hex, 32
		{"aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", true},                             // sha1 hex, 40
		{"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", true},      // sha256 hex, 64
		{"plaintextpassword123", true}, // all-lowercase base64-shaped token, 16-88 chars
		{"secretpass", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsCredentialHash(c.in); got != c.want {
			t.Errorf("IsCredentialHash(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFingerprintHashShape(t *testing.T) {
	algo, weak, _ := FingerprintHashShape("5d41402abc4b2a76b9719d911017c592")
	if algo != "md5" || !weak {
		t.Fatalf("got algo=%s weak=%v, want md5/true", algo, weak)
	}

	algo, weak, _ = FingerprintHashShape("$argon2id$v=19$m=65536,t=2,p=1$salt$hash")
	if algo != "argon2id" || weak {
		t.Fatalf("got algo=%s weak=%v, want argon2id/false", algo, weak)
	}

	algo, _, _ = FingerprintHashShape("not a hash at all")
	if algo != "unknown" {
		t.Fatalf("got algo=%s, want unknown", algo)
	}
}
