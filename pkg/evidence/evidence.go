// Package evidence establishes file identity at intake: a stable file_id,
// content hashes, and alternate-name tracking, plus re-verification against
// the bytes currently on disk.
package evidence

import (
	"crypto/md5"  //nolint:gosec // content-addressing digest, not authentication
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jeleniel/breachcorpus/pkg/hashutil"
)

// FileEvidence records the identity of an ingested file.
type FileEvidence struct {
	FileID          string    `json:"file_id"`
	SHA256          string    `json:"sha256"`
	MD5             string    `json:"md5"`
	FileSize        int64     `json:"file_size"`
	AlternateNames  []string  `json:"alternate_names"`
	CreatedAt       time.Time `json:"created_at"`
}

// Create hashes path and builds a FileEvidence record. altNames are added to
// the alternate-name list alongside the file's current basename, with
// duplicates removed.
func Create(path string, altNames ...string) (*FileEvidence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("evidence: open %s: %w", path, err)
	}
	defer f.Close()

	sha := sha256.New()
	md := md5.New() //nolint:gosec
	size, err := copyInto(f, sha, md)
	if err != nil {
		return nil, fmt.Errorf("evidence: hash %s: %w", path, err)
	}

	names := dedupe(append([]string{filepath.Base(path)}, altNames...))

	return &FileEvidence{
		FileID:         fmt.Sprintf("%s-%d", uuid.NewString(), time.Now().Unix()),
		SHA256:         hex.EncodeToString(sha.Sum(nil)),
		MD5:            hex.EncodeToString(md.Sum(nil)),
		FileSize:       size,
		AlternateNames: names,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Verify re-hashes the file's current bytes and reports whether its SHA-256
// still matches the stored value.
func (e *FileEvidence) Verify(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("evidence: verify %s: %w", path, err)
	}
	return hashutil.SHA256Hex(data) == e.SHA256, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func copyInto(src *os.File, writers ...hashWriter) (int64, error) {
	buf := make([]byte, 64*1024)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			for _, w := range writers {
				w.Write(buf[:n]) //nolint:errcheck // hash.Hash.Write never errors
			}
			total += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}
