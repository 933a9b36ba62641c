package parse

import (
	"errors"
	"fmt"
)

// ErrNotApplicable is returned by a strategy whose required columns are not
// present in the sheet. The chain treats it as "try the next strategy",
// never as a failed import.
var ErrNotApplicable = errors.New("strategy not applicable")

// StructuralError aborts a whole import: no header row, required columns
// missing in every strategy, or an empty/unreadable sheet. Nothing is
// persisted when one is returned.
type StructuralError struct {
	Code    string
	Message string
	Err     error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Structural error codes.
const (
	CodeEmptySheet     = "empty_sheet"
	CodeHeaderMismatch = "header_mismatch"
	CodeUnreadableFile = "unreadable_file"
	CodeFileTooLarge   = "file_too_large"
)

func structural(code, message string, err error) *StructuralError {
	return &StructuralError{Code: code, Message: message, Err: err}
}

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
