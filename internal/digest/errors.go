package digest

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against a returned *Error.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrCancelled        = errors.New("cancelled")
	ErrInvalidOptions   = errors.New("invalid options")
)

// Error is a fatal digest failure. Per-entry problems never produce one; they are listed in the summary.
type Error struct {
	// Kind is one of the sentinel errors.
	Kind error
	Path string
	Err  error
}

func (digestError *Error) Error() string {
	if digestError.Err == nil {
		return fmt.Sprintf("%v: %s", digestError.Kind, digestError.Path)
	}
	return fmt.Sprintf("%v: %s: %v", digestError.Kind, digestError.Path, digestError.Err)
}

// Is matches the error's kind.
func (digestError *Error) Is(target error) bool {
	return target == digestError.Kind
}

func (digestError *Error) Unwrap() error {
	return digestError.Err
}

func newError(kind error, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}
