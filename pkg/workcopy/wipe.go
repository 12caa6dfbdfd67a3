package workcopy

import (
	"crypto/rand"
	"fmt"
	"os"
)

// Wipe overwrites a file's contents three times (zeros, ones, random bytes)
// before unlinking it, following the NIST SP 800-88 clear pattern. It is
// never invoked automatically by Cleanup; callers that need secure deletion
// must call it explicitly.
func Wipe(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("workcopy: wipe: stat %s: %w", path, err)
	}
	size := info.Size()

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("workcopy: wipe: open %s: %w", path, err)
	}

	passes := []byte{0x00, 0xFF}
	for _, b := range passes {
		if err := overwritePass(f, size, func(buf []byte) { fillByte(buf, b) }); err != nil {
			f.Close()
			return fmt.Errorf("workcopy: wipe: overwrite %s: %w", path, err)
		}
	}
	if err := overwritePass(f, size, fillRandom); err != nil {
		f.Close()
		return fmt.Errorf("workcopy: wipe: overwrite %s: %w", path, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("workcopy: wipe: sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("workcopy: wipe: close %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("workcopy: wipe: remove %s: %w", path, err)
	}
	return nil
}

func overwritePass(f *os.File, size int64, fill func([]byte)) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	const chunkSize = 64 * 1024
	buf := make([]byte, chunkSize)
	var written int64
	for written < size {
		n := chunkSize
		if remaining := size - written; remaining < int64(chunkSize) {
			n = int(remaining)
		}
		fill(buf[:n])
		if _, err := f.Write(buf[:n]); err != nil {
			return err
		}
		written += int64(n)
	}
	return nil
}

func fillByte(buf []byte, b byte) {
	for i := range buf {
		buf[i] = b
	}
}

func fillRandom(buf []byte) {
	rand.Read(buf) //nolint:errcheck // best-effort final pass, zero/one passes already ran
}
