package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTag(t *testing.T) {
	assert.Equal(t, Tag{Key: "env", Value: "prod"}, ParseTag("env:prod"))
	// Only the first colon splits; the value keeps the rest.
	assert.Equal(t, Tag{Key: "url", Value: "https://x"}, ParseTag("url:https://x"))
	assert.Equal(t, Tag{Key: "standalone", Value: ""}, ParseTag("standalone"))
}

func TestParseTagList(t *testing.T) {
	tags := ParseTagList(" env:prod , team:web ,, ")
	assert.Equal(t, []Tag{{Key: "env", Value: "prod"}, {Key: "team", Value: "web"}}, tags)
	assert.Nil(t, ParseTagList(""))
}

func TestTagStrings(t *testing.T) {
	tags := []Tag{{Key: "env", Value: "prod"}, {Key: "team", Value: "web"}}
	assert.Equal(t, []string{"env:prod", "team:web"}, TagStrings(tags))
}

func TestHasService(t *testing.T) {
	d := Device{Services: []string{"SSH", "RDP"}}
	assert.True(t, d.HasService("ssh"))
	assert.True(t, d.HasService("RDP"))
	assert.False(t, d.HasService("VNC"))
}

func TestHasTag(t *testing.T) {
	d := Device{Tags: []Tag{{Key: "Env", Value: "Prod"}}}
	assert.True(t, d.HasTag("env:prod"))
	assert.False(t, d.HasTag("env:test"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList("a, b"))
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList(" , ,"))
}
