package rag

import "regexp"

// Paragraph boundary: a blank line, with or without CRLF endings.
var paragraphSep = regexp.MustCompile(`\r?\n\r?\n`)

// SplitParagraphs segments a document into chunks on blank lines. Only the
// delimiter is removed; chunk text is preserved verbatim.
func SplitParagraphs(document string) []string {
	return paragraphSep.Split(document, -1)
}
