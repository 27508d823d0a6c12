package csvparse

import "strings"

const (
	delimiter = ','
	quote     = '"'
)

// Tokenize splits one physical line into raw field values.
//
// Fields that never contained a quote character are trimmed; quoted fields
// keep their content verbatim so producers can preserve whitespace on
// purpose. A doubled quote inside a quoted span yields one literal quote.
// Multi-line quoted fields are not supported: a line that ends inside a
// quoted span fails with ErrUnclosedQuote.
func Tokenize(line string) ([]string, error) {
	var (
		fields    []string
		buf       strings.Builder
		inQuotes  bool
		hadQuotes bool
	)

	closeField := func() {
		if hadQuotes {
			fields = append(fields, buf.String())
		} else {
			fields = append(fields, strings.TrimSpace(buf.String()))
		}
		buf.Reset()
		hadQuotes = false
	}

	// Byte-wise walk is safe: both special characters are ASCII and never
	// appear inside a multi-byte UTF-8 sequence.
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == quote:
			if inQuotes && i+1 < len(line) && line[i+1] == quote {
				buf.WriteByte(quote)
				i++
				continue
			}
			inQuotes = !inQuotes
			hadQuotes = true
		case c == delimiter && !inQuotes:
			closeField()
		default:
			buf.WriteByte(c)
		}
	}

	if inQuotes {
		return nil, ErrUnclosedQuote
	}
	closeField()
	return fields, nil
}
