package ingest

import "fmt"

// Kind classifies ingestion failures so the HTTP layer can map them to a
// status code without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindConflict
	KindTooLarge
)

// Error is an ingestion failure with a caller-facing detail string.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// NotFound reports a missing referent (the owning user); exported because
// the precondition is checked by the caller, not the pipeline itself.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Detail: fmt.Sprintf(format, args...)}
}

func tooLarge(format string, args ...any) *Error {
	return &Error{Kind: KindTooLarge, Detail: fmt.Sprintf(format, args...)}
}

func internal(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Detail: fmt.Sprintf(format, args...)}
}
