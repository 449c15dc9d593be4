package errors

import stderrors "errors"

// None of these are fatal to a running session; each has a degraded
// continuation described next to it.
var (
	// ErrStorageParse: the persisted entry blob is corrupt. Treat as empty.
	ErrStorageParse = stderrors.New("stored entries could not be parsed")
	// ErrStorageWrite: quota or IO failure. Keep the in-memory entry.
	ErrStorageWrite = stderrors.New("entries could not be written")
	// ErrNetwork: the prompt source was unreachable. Use a fallback prompt.
	ErrNetwork = stderrors.New("prompt source unreachable")
	// ErrPromptParse: the prompt source answered with something unusable.
	ErrPromptParse = stderrors.New("prompt response could not be parsed")
	// ErrCapabilityUnavailable: an optional platform feature is missing.
	ErrCapabilityUnavailable = stderrors.New("capability unavailable")
)

// IsStorageWarning reports whether err is a non-fatal storage condition that
// should be shown to the user as a warning.
func IsStorageWarning(err error) bool {
	return stderrors.Is(err, ErrStorageWrite) || stderrors.Is(err, ErrStorageParse)
}
