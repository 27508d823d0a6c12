package csvparse_test

import (
	"errors"
	"testing"

	"github.com/okian/scores/internal/domain/csvparse"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTokenize(t *testing.T) {
	Convey("Given the line tokenizer", t, func() {
		Convey("When the line has plain fields", func() {
			fields, err := csvparse.Tokenize("John, Doe ,85")

			Convey("Then unquoted fields are trimmed", func() {
				So(err, ShouldBeNil)
				So(fields, ShouldResemble, []string{"John", "Doe", "85"})
			})
		})

		Convey("When a quoted field contains the delimiter", func() {
			fields, err := csvparse.Tokenize(`"Smith, John",Doe,85`)

			Convey("Then the delimiter stays inside the field", func() {
				So(err, ShouldBeNil)
				So(fields, ShouldResemble, []string{"Smith, John", "Doe", "85"})
			})
		})

		Convey("When a quoted field contains doubled quotes", func() {
			fields, err := csvparse.Tokenize(`"She said ""hi""",Doe,50`)

			Convey("Then each pair becomes one literal quote", func() {
				So(err, ShouldBeNil)
				So(fields[0], ShouldEqual, `She said "hi"`)
				So(len(fields), ShouldEqual, 3)
			})
		})

		Convey("When a quoted field has surrounding whitespace", func() {
			fields, err := csvparse.Tokenize(`"  Ann  ",Lee,1`)

			Convey("Then the whitespace is preserved", func() {
				So(err, ShouldBeNil)
				So(fields[0], ShouldEqual, "  Ann  ")
			})
		})

		Convey("When whitespace sits outside the quotes", func() {
			fields, err := csvparse.Tokenize(` "Ann" ,Lee,1`)

			Convey("Then the field is quote-bearing and kept verbatim", func() {
				So(err, ShouldBeNil)
				So(fields[0], ShouldEqual, " Ann ")
			})
		})

		Convey("When the quote is never closed", func() {
			fields, err := csvparse.Tokenize(`"Unterminated,Doe,50`)

			Convey("Then an unclosed quote error is returned", func() {
				So(fields, ShouldBeNil)
				So(errors.Is(err, csvparse.ErrUnclosedQuote), ShouldBeTrue)
			})
		})

		Convey("When the line is empty", func() {
			fields, err := csvparse.Tokenize("")

			Convey("Then a single empty field is produced", func() {
				So(err, ShouldBeNil)
				So(fields, ShouldResemble, []string{""})
			})
		})

		Convey("When the line ends with a delimiter", func() {
			fields, err := csvparse.Tokenize("a,b,")

			Convey("Then a trailing empty field is produced", func() {
				So(err, ShouldBeNil)
				So(fields, ShouldResemble, []string{"a", "b", ""})
			})
		})

		Convey("When a quote appears mid-field", func() {
			fields, err := csvparse.Tokenize(`O"Brien",x`)

			Convey("Then it toggles quoting without being emitted", func() {
				So(err, ShouldBeNil)
				So(fields, ShouldResemble, []string{"OBrien", "x"})
			})
		})

		Convey("When fields contain multi-byte characters", func() {
			fields, err := csvparse.Tokenize(`Zoë,"Ångström, Jr",70`)

			Convey("Then they pass through untouched", func() {
				So(err, ShouldBeNil)
				So(fields, ShouldResemble, []string{"Zoë", "Ångström, Jr", "70"})
			})
		})
	})
}
