package ingest

import "errors"

// Sentinel error kinds. Wrapped errors returned by the pipeline satisfy
// errors.Is against exactly one of these.
var (
	// ErrMalformedRow marks a row whose column count did not match the
	// detected header; the row is skipped, never fatal.
	ErrMalformedRow = errors.New("ingest: malformed row")

	// ErrAdapterParse marks a per-file fatal adapter parse failure.
	ErrAdapterParse = errors.New("ingest: adapter parse failure")

	// ErrCollaboratorUnavailable is never returned to a caller; it exists
	// so call sites can document the swallowed-and-logged path.
	ErrCollaboratorUnavailable = errors.New("ingest: collaborator unavailable")

	// ErrStorageIO marks a fatal storage failure that aborts the remaining
	// rows of a file.
	ErrStorageIO = errors.New("ingest: storage I/O failure")

	// ErrTamperingDetected marks a custody or evidence verification
	// mismatch.
	ErrTamperingDetected = errors.New("ingest: tampering detected")

	// ErrEvidenceMismatch marks a content-hash mismatch between stored
	// digest and on-disk bytes.
	ErrEvidenceMismatch = errors.New("ingest: evidence hash mismatch")

	// ErrScratchInsecure marks a failed working-copy noexec self-test.
	ErrScratchInsecure = errors.New("ingest: scratch directory is not noexec")
)
