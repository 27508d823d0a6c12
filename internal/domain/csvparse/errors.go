package csvparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel kinds for parse failures. A *ParseError unwraps to one of these so
// callers can use errors.Is without inspecting messages.
var (
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrTooFewLines      = errors.New("content must contain a header row and at least one data row")
	ErrNoDataRows       = errors.New("no valid data rows found")
	ErrUnclosedQuote    = errors.New("unclosed quotation mark")
	ErrHeaderFieldCount = errors.New("invalid header field count")
	ErrHeaderMismatch   = errors.New("invalid header field")
	ErrFieldCount       = errors.New("wrong number of fields")
	ErrEmptyFirstName   = errors.New("first name cannot be empty")
	ErrEmptySecondName  = errors.New("second name cannot be empty")
	ErrInvalidScore     = errors.New("invalid score value")
	ErrScoreOutOfRange  = errors.New("score out of valid range")
)

// Kind classifies where a failure originated.
type Kind int

const (
	// KindGlobal failures are not tied to one line (line number 0).
	KindGlobal Kind = iota
	// KindTokenize failures come from the character stream of a single line.
	KindTokenize
	// KindHeader failures mean the first line does not match the schema.
	KindHeader
	// KindRow failures are structural or semantic problems in a data line.
	KindRow
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindTokenize:
		return "tokenize"
	case KindHeader:
		return "header"
	case KindRow:
		return "row"
	default:
		return "unknown"
	}
}

// ParseError is the single failure value returned by Parse.
type ParseError struct {
	Kind    Kind
	Line    int    // 1-based; 0 for global failures
	Raw     string // original line text, or the whole input for global failures
	Message string
	Err     error // sentinel kind
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return "line " + strconv.Itoa(e.Line) + ": " + e.Message
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

func globalError(err error, content string) *ParseError {
	return &ParseError{Kind: KindGlobal, Raw: content, Message: err.Error(), Err: err}
}

func lineError(kind Kind, err error, line int, raw, msg string) *ParseError {
	return &ParseError{Kind: kind, Line: line, Raw: raw, Message: msg, Err: err}
}

func tokenizeError(err error, line int, raw string) *ParseError {
	return lineError(KindTokenize, err, line, raw, err.Error())
}

// ParseErrors aggregates row failures collected by Validate.
type ParseErrors []*ParseError

func (errs ParseErrors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	if len(msgs) == 1 {
		return msgs[0]
	}
	return fmt.Sprintf("%d errors: %s", len(msgs), strings.Join(msgs, "; "))
}

// Unwrap lets errors.Is match any collected kind.
func (errs ParseErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = err
	}
	return out
}
