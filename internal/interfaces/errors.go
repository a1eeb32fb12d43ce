package interfaces

import (
	"errors"
	"fmt"
)

// Sentinel errors for the shader subsystem. Every fallible operation returns
// a tagged error; callers decide whether to retry, log, or fail upward.
var (
	ErrFileNotFound           = errors.New("shader source file not found")
	ErrReflectionFailed       = errors.New("shader reflection failed")
	ErrInvalidBytecode        = errors.New("invalid shader bytecode")
	ErrLinkError              = errors.New("shader program link error")
	ErrUnsupportedShaderModel = errors.New("unsupported shader model")
	ErrUnsupportedFeature     = errors.New("unsupported shader feature")
	ErrShaderNotFound         = errors.New("shader not found")
	ErrProgramNotFound        = errors.New("shader program not found")
	ErrCacheEntryNotFound     = errors.New("cache entry not found")
)

// CompilationError carries the backend diagnostic text verbatim for a
// rejected compile.
type CompilationError struct {
	SourcePath string
	EntryPoint string
	Diagnostic string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compilation failed for %s (entry %s): %s", e.SourcePath, e.EntryPoint, e.Diagnostic)
}

// IsCompilationError reports whether err is (or wraps) a CompilationError.
func IsCompilationError(err error) bool {
	var ce *CompilationError
	return errors.As(err, &ce)
}
