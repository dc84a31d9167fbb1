package extract

import (
	"strings"
)

// extractCode returns the definition lines of source followed by its first
// headLines lines. Definitions come from a syntax tree when a grammar is
// registered for ext, otherwise from keyword matching.
func extractCode(ext, source string, headLines int) string {
	lines := strings.Split(source, "\n")

	defs, ok := definitionLines(ext, []byte(source), lines)
	if !ok {
		defs = keywordLines(lines)
	}

	head := lines
	if len(head) > headLines {
		head = head[:headLines]
	}

	out := make([]string, 0, len(defs)+len(head))
	out = append(out, defs...)
	out = append(out, head...)
	return strings.Join(out, "\n")
}

var definitionKeywords = []string{"def ", "function", "func "}

// keywordLines returns lines that look like definitions.
func keywordLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		for _, kw := range definitionKeywords {
			if strings.Contains(l, kw) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}
