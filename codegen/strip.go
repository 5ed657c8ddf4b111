package codegen

import (
	"regexp"
	"strings"
)

var (
	fenceOpenPattern  = regexp.MustCompile("^```[a-zA-Z0-9_-]*\n")
	fenceClosePattern = regexp.MustCompile("\n```\\s*$")
	fenceAnyPattern   = regexp.MustCompile("```[a-zA-Z0-9_-]*")
)

// StripFences removes Markdown code fences the model may wrap output in
// despite instructions.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = fenceOpenPattern.ReplaceAllString(text, "")
	text = fenceClosePattern.ReplaceAllString(text, "")
	text = fenceAnyPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
