// Package catalog holds the rules shared by the API, the site and the stores:
// tag editing, gallery queries, filtering, category defaults and validation.
package catalog

import (
	"strings"
)

// ParseTags splits comma or newline separated input into tags.
// Tags are trimmed; empty tags and case-insensitive duplicates are dropped,
// keeping the first spelling.
func ParseTags(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	return NormalizeTags(fields)
}

// NormalizeTags applies the ParseTags rules to an already split list.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = AddTag(out, t)
	}
	return out
}

// AddTag appends tag unless it is blank or already present.
func AddTag(tags []string, tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" || indexOf(tags, tag) >= 0 {
		return tags
	}
	return append(tags, tag)
}

// RemoveTag returns tags without tag. The input slice is not modified.
func RemoveTag(tags []string, tag string) []string {
	i := indexOf(tags, strings.TrimSpace(tag))
	if i < 0 {
		return tags
	}
	out := make([]string, 0, len(tags)-1)
	out = append(out, tags[:i]...)
	return append(out, tags[i+1:]...)
}

func indexOf(tags []string, tag string) int {
	for i, t := range tags {
		if strings.EqualFold(t, tag) {
			return i
		}
	}
	return -1
}
