package filestorage

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Reason classifies why a file operation failed.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonNotFound
	ReasonPermissionDenied
	ReasonAlreadyExists
	ReasonPartialCopy
	ReasonNoSpace
)

func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not found"
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonAlreadyExists:
		return "already exists"
	case ReasonPartialCopy:
		return "partial copy"
	case ReasonNoSpace:
		return "no space left"
	default:
		return "unknown"
	}
}

// OpError is returned by every file operation in this package.
type OpError struct {
	Op     string
	Path   string
	Reason Reason
	Err    error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Reason, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// ReasonOf returns the failure reason of err, or ReasonUnknown when err is
// not an *OpError.
func ReasonOf(err error) Reason {
	var e *OpError
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonUnknown
}

// IsPartialCopy reports whether a directory copy stopped half-way.
func IsPartialCopy(err error) bool {
	return ReasonOf(err) == ReasonPartialCopy
}

func opError(op, path string, err error) *OpError {
	var e *OpError
	if errors.As(err, &e) {
		return e
	}
	return &OpError{Op: op, Path: path, Reason: classify(err), Err: err}
}

func classify(err error) Reason {
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return ReasonAlreadyExists
	case errors.Is(err, syscall.ENOSPC):
		return ReasonNoSpace
	}
	return ReasonUnknown
}

// ErrSpaceUnknown is returned when the free space of a volume cannot be
// determined. Callers must not proceed with a download in that case.
var ErrSpaceUnknown = errors.New("error while computing available space")
