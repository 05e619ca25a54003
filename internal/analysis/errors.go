package analysis

import (
	"fmt"
	"strings"
)

// CallError reports that an external model call failed after exhausting all
// retry attempts. It carries the operation label and the last cause.
type CallError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("ai operation %q failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// previewLimit bounds how much raw model output a MalformedResponseError
// carries for diagnosis.
const previewLimit = 200

// MalformedResponseError reports that model output could not be parsed as
// the expected structured payload.
type MalformedResponseError struct {
	Preview string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("failed to parse JSON response from AI (preview: %q): %v", e.Preview, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// newMalformedResponseError builds a MalformedResponseError with a bounded
// preview of the raw text.
func newMalformedResponseError(raw string, err error) *MalformedResponseError {
	preview := strings.TrimSpace(raw)
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}
	return &MalformedResponseError{Preview: preview, Err: err}
}

// IncompleteExtractionError reports that a receipt response parsed cleanly
// but is missing one or more load-bearing fields. A receipt without vendor,
// date or total is not usable financial data.
type IncompleteExtractionError struct {
	Missing []string
}

func (e *IncompleteExtractionError) Error() string {
	return fmt.Sprintf("AI response missing one or more critical fields: %s", strings.Join(e.Missing, ", "))
}

// InvalidInsightStructureError reports that a savings insight response
// lacked the required shape. It affects that single analysis request only.
type InvalidInsightStructureError struct {
	Reason string
}

func (e *InvalidInsightStructureError) Error() string {
	return fmt.Sprintf("AI returned an invalid or incomplete structure for savings insights: %s", e.Reason)
}
