package csvparse

import (
	"fmt"
	"strconv"
	"strings"
)

// Score bounds, inclusive.
const (
	MinScore = 0
	MaxScore = 100
)

// Header is the fixed, ordered column contract. Matching is case-insensitive.
var Header = [...]string{"First Name", "Second Name", "Score"}

const fieldCount = len(Header)

// Record is one validated data line.
type Record struct {
	FirstName  string
	SecondName string
	Score      int
	Line       int // 1-based physical line the record came from
}

// Warning is a non-fatal diagnostic, currently only emitted for blank lines.
type Warning struct {
	Line    int
	Raw     string
	Message string
}

// WarningFunc receives warnings as they are produced.
type WarningFunc func(Warning)

// Option configures a Parser.
type Option func(*Parser)

// WithWarningFunc installs a sink for skipped-line diagnostics.
func WithWarningFunc(fn WarningFunc) Option {
	return func(p *Parser) {
		if fn != nil {
			p.warn = fn
		}
	}
}

// Parser validates whole inputs. It holds no mutable state and is safe for
// concurrent use.
type Parser struct {
	warn WarningFunc
}

// New constructs a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{warn: func(Warning) {}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse validates content with a parser that discards warnings.
func Parse(content string) ([]Record, error) {
	return defaultParser.Parse(content)
}

// Parse validates content and returns every record in input order, or the
// first failure. It never returns both.
func (p *Parser) Parse(content string) ([]Record, error) {
	lines, err := splitLines(content)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(lines[0]); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if isBlank(line) {
			p.warn(blankWarning(i+1, line))
			continue
		}
		rec, err := parseRow(line, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, globalError(ErrNoDataRows, content)
	}
	return records, nil
}

// Report is the outcome of a collect-all validation pass.
type Report struct {
	Records  []Record
	Warnings []Warning
	Errors   ParseErrors
}

// Err returns the collected failures as one error, or nil.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

// Validate applies the same rules as Parse but keeps going past row and
// tokenize failures so every bad line is reported. Global and header failures
// still end the walk. Warnings are both collected and sent to the sink.
func (p *Parser) Validate(content string) Report {
	var rep Report

	lines, err := splitLines(content)
	if err != nil {
		rep.Errors = append(rep.Errors, err)
		return rep
	}
	if err := checkHeader(lines[0]); err != nil {
		rep.Errors = append(rep.Errors, err)
		return rep
	}

	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if isBlank(line) {
			w := blankWarning(i+1, line)
			rep.Warnings = append(rep.Warnings, w)
			p.warn(w)
			continue
		}
		rec, err := parseRow(line, i+1)
		if err != nil {
			rep.Errors = append(rep.Errors, err)
			continue
		}
		rep.Records = append(rep.Records, rec)
	}

	if len(rep.Records) == 0 && len(rep.Errors) == 0 {
		rep.Errors = append(rep.Errors, globalError(ErrNoDataRows, content))
	}
	return rep
}

func splitLines(content string) ([]string, *ParseError) {
	if isBlank(content) {
		return nil, globalError(ErrEmptyContent, content)
	}
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil, globalError(ErrTooFewLines, content)
	}
	return lines, nil
}

func checkHeader(line string) *ParseError {
	const lineNo = 1
	fields, err := Tokenize(line)
	if err != nil {
		return tokenizeError(err, lineNo, line)
	}
	if len(fields) != fieldCount {
		return lineError(KindHeader, ErrHeaderFieldCount, lineNo, line,
			fmt.Sprintf("invalid header: expected %d fields (%s) but found %d",
				fieldCount, strings.Join(Header[:], ", "), len(fields)))
	}
	for i, want := range Header {
		if !strings.EqualFold(strings.TrimSpace(fields[i]), want) {
			return lineError(KindHeader, ErrHeaderMismatch, lineNo, line,
				fmt.Sprintf("invalid header field at position %d: expected %q but found %q", i+1, want, fields[i]))
		}
	}
	return nil
}

func parseRow(line string, lineNo int) (Record, *ParseError) {
	fields, err := Tokenize(line)
	if err != nil {
		return Record{}, tokenizeError(err, lineNo, line)
	}
	if len(fields) != fieldCount {
		return Record{}, lineError(KindRow, ErrFieldCount, lineNo, line,
			fmt.Sprintf("expected %d fields but found %d; fields must be: %s",
				fieldCount, len(fields), strings.Join(Header[:], ", ")))
	}

	first := strings.TrimSpace(fields[0])
	if first == "" {
		return Record{}, lineError(KindRow, ErrEmptyFirstName, lineNo, line, "First Name cannot be empty")
	}
	second := strings.TrimSpace(fields[1])
	if second == "" {
		return Record{}, lineError(KindRow, ErrEmptySecondName, lineNo, line, "Second Name cannot be empty")
	}

	score, convErr := strconv.Atoi(strings.TrimSpace(fields[2]))
	if convErr != nil {
		return Record{}, lineError(KindRow, ErrInvalidScore, lineNo, line,
			fmt.Sprintf("invalid score value %q: score must be a valid integer", fields[2]))
	}
	if score < MinScore || score > MaxScore {
		return Record{}, lineError(KindRow, ErrScoreOutOfRange, lineNo, line,
			fmt.Sprintf("score value %d is out of valid range (%d-%d)", score, MinScore, MaxScore))
	}

	return Record{FirstName: first, SecondName: second, Score: score, Line: lineNo}, nil
}

func blankWarning(lineNo int, raw string) Warning {
	return Warning{Line: lineNo, Raw: raw, Message: fmt.Sprintf("empty line at position %d skipped", lineNo)}
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
