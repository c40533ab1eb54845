package dom

import "fmt"

// MalformedInputError means the input could not be turned into a usable
// tree or structure at all.
type MalformedInputError struct {
	What string
	Err  error
}

func (e *MalformedInputError) Error() string {
	what := e.What
	if what == "" {
		what = "html"
	}
	return fmt.Sprintf("malformed %s: %v", what, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// ExtractionError means a required element or field was absent or unreadable,
// so the page layout was not recognized.
type ExtractionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extracting %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Missing reports that no element matched s.
func Missing(field string, s Selector) error {
	return &ExtractionError{Field: field, Reason: fmt.Sprintf("no element matches %q", s.String())}
}

// Unparseable reports that text was found but could not be read as field.
func Unparseable(field, text string, err error) error {
	return &ExtractionError{Field: field, Reason: fmt.Sprintf("cannot read %q", text), Err: err}
}

// Unrecognized reports that none of a judge's known layouts matched.
func Unrecognized(reason string) error {
	return &ExtractionError{Field: "layout", Reason: reason}
}
