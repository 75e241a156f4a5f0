// Package elferr defines the small sentinel-error taxonomy shared by the
// chunk, region, elfmodel and chain packages (spec §7). Kinds are plain
// sentinel values, in the same style as the teacher's own
// errors.New-backed sentinels in its main package; callers wrap them with
// fmt.Errorf("...: %w", elferr.ErrX) for context.
package elferr

import "errors"

var (
	// ErrIoError marks a failure reading or writing the backing file.
	ErrIoError = errors.New("elferr: io error")
	// ErrNotFound marks a region load that could not locate its source.
	ErrNotFound = errors.New("elferr: not found")
	// ErrInvalidFormat marks a structural ELF parse failure (bad magic,
	// truncated header, inconsistent field).
	ErrInvalidFormat = errors.New("elferr: invalid format")
	// ErrOutOfRange marks a chunk/region slice exceeding its source.
	ErrOutOfRange = errors.New("elferr: out of range")
	// ErrFailed marks a mutation rejected because it would violate an
	// invariant. The object is left unchanged.
	ErrFailed = errors.New("elferr: operation failed")
)
