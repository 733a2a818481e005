package llmjson

import (
	"regexp"
	"strings"
)

var (
	regexOpeningFence = regexp.MustCompile("^```[A-Za-z]*[ \t]*\r?\n?")
	regexClosingFence = regexp.MustCompile("\r?\n?```$")
)

// Clean strips the markdown code fence models like to wrap JSON in, then
// trims the content to its outermost JSON object.
func Clean(content string) string {
	content = strings.TrimSpace(content)
	content = regexOpeningFence.ReplaceAllString(content, "")
	content = regexClosingFence.ReplaceAllString(content, "")
	return trimToObject(strings.TrimSpace(content))
}

func trimToObject(content string) string {
	// eliminate everything before the first '{'
	for i, c := range content {
		if c == '{' {
			content = content[i:]
			break
		}
	}

	// eliminate everything after the last '}'
	for i := len(content) - 1; i >= 0; i-- {
		if content[i] == '}' {
			content = content[:i+1]
			break
		}
	}

	return content
}
