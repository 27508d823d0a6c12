// Package csvparse turns score sheets into validated records.
//
// Input is a whole text blob with the fixed header
//
//	First Name,Second Name,Score
//
// followed by one record per line. Lines may end in "\n" or "\r\n". Fields
// containing a comma or a quote must be wrapped in double quotes with inner
// quotes doubled.
//
// Parse is fail-fast: the first header, row or tokenizer failure aborts the
// call and is returned as a *ParseError carrying the line number and raw line
// text. Validate is the collect-all variant used for previews.
//
// Blank data lines are skipped and reported through the WarningFunc sink.
package csvparse
