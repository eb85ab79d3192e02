package core

import (
	"errors"
	"fmt"
)

// Ingestion failures. Both halt the pipeline; nothing downstream of a source
// ever returns an error.
var (
	ErrSourceNotFound   = errors.New("source not found")
	ErrSourceUnreadable = errors.New("source unreadable")
)

// SourceNotFound reports that the named source does not exist.
func SourceNotFound(source string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceNotFound, source, cause)
}

// SourceUnreadable reports that the named source exists but could not be
// read or parsed.
func SourceUnreadable(source string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrSourceUnreadable, source)
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, source, cause)
}
