package model

import (
	"strings"
)

// Device represents a managed target reachable through the bastion,
// identified by name. The bastion API is the source of truth; the cache and
// history files hold denormalized copies.
type Device struct {
	Name        string
	Host        string
	Services    []string
	Tags        []Tag
	Description string
}

// HasService reports whether the device offers the named service,
// case-insensitively.
func (d Device) HasService(name string) bool {
	for _, s := range d.Services {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// HasTag reports whether one of the device's tags renders to the given
// "key:value" string, case-insensitively.
func (d Device) HasTag(s string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t.String(), s) {
			return true
		}
	}
	return false
}

// Tag is a key/value label attached to a device. "key:value" is the wire
// and display format only; comparisons are structural.
type Tag struct {
	Key   string
	Value string
}

func (t Tag) String() string {
	return t.Key + ":" + t.Value
}

// ParseTag splits a "key:value" token. Everything after the first colon
// belongs to the value; a token without a colon keeps an empty value.
func ParseTag(s string) Tag {
	key, value, _ := strings.Cut(s, ":")
	return Tag{Key: key, Value: value}
}

// ParseTagList parses a comma-separated list of "key:value" tokens.
func ParseTagList(s string) []Tag {
	var tags []Tag
	for _, token := range SplitList(s) {
		tags = append(tags, ParseTag(token))
	}
	return tags
}

// TagStrings renders tags to their "key:value" form.
func TagStrings(tags []Tag) []string {
	var out []string
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

// SplitList splits a comma-separated value, trimming whitespace and
// dropping empty tokens.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
