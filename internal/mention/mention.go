// Package mention finds Slack-style user references (<@U123>) in message text.
package mention

import (
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`<@([A-Za-z0-9]+)>`)

// Extract returns referenced user ids left to right. Repeated references are kept.
// It never fails; text without references yields an empty, non-nil slice.
func Extract(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

// Strip removes every reference to one of ids (all references when ids is empty)
// and collapses the leftover whitespace.
func Strip(text string, ids ...string) string {
	out := mentionPattern.ReplaceAllStringFunc(text, func(match string) string {
		if len(ids) == 0 {
			return ""
		}
		id := mentionPattern.FindStringSubmatch(match)[1]
		for _, want := range ids {
			if id == want {
				return ""
			}
		}
		return match
	})
	return strings.Join(strings.Fields(out), " ")
}
