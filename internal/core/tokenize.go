package core

import (
	"regexp"
	"strings"
)

// lineBreak matches every line terminator a published page may use.
var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// SplitLines splits raw page text into lines, accepting \r\n, \r and \n.
func SplitLines(text string) []string {
	return lineBreak.Split(text, -1)
}

// SplitLine splits one CSV line into raw fields.
//
// A double quote toggles quoted mode and is consumed, never copied into the
// field. Commas inside quotes are literal content. The trailing field is
// always emitted, so the result has at least one element. Doubled quotes are
// not treated as escapes: "a""b" yields ab.
func SplitLine(line string) []string {
	fields := make([]string, 0, strings.Count(line, ",")+1)

	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}

	return append(fields, field.String())
}
