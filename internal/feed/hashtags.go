package feed

import (
	"regexp"
	"strings"
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Hashtags returns the distinct lower-cased #tags in body, in order of first use.
func Hashtags(body string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, m := range hashtagPattern.FindAllStringSubmatch(body, -1) {
		tag := strings.ToLower(m[1])
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
