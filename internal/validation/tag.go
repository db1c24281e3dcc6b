package validation

import "strings"

// NormalizeTag trims surrounding whitespace and a single leading '#'.
// It returns "" when nothing usable is left; callers treat that as a
// request for the public timeline.
func NormalizeTag(input string) string {
	tag := strings.TrimSpace(input)
	tag = strings.TrimPrefix(tag, "#")
	return strings.TrimSpace(tag)
}
