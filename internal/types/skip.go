package types

import (
	"errors"
	"fmt"
)

// SkipError signals that a document page is a valid non-result: the filing is
// cancelled, foreclosed or otherwise superseded and must be marked done
// without producing a record. It is not a failure.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("document skipped: %s", e.Reason)
}

// IsSkip reports whether err (or anything it wraps) is a SkipError.
func IsSkip(err error) bool {
	var skip *SkipError
	return errors.As(err, &skip)
}
