package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTagArrayPlain(t *testing.T) {
	tags := ParseTagArray(`["#travel", "#hiking", "#alps"]`)
	assert.Equal(t, []string{"#travel", "#hiking", "#alps"}, tags)
}

func TestParseTagArrayMarkdownFenced(t *testing.T) {
	tags := ParseTagArray("```json\n[\"#food\", \"#pizza\"]\n```")
	assert.Equal(t, []string{"#food", "#pizza"}, tags)
}

func TestParseTagArrayAddsHashPrefix(t *testing.T) {
	tags := ParseTagArray(`["coding", "#launch"]`)
	assert.Equal(t, []string{"#coding", "#launch"}, tags)
}

func TestParseTagArraySkipsEmptyEntries(t *testing.T) {
	tags := ParseTagArray(`["#one", "", "   ", "#two"]`)
	assert.Equal(t, []string{"#one", "#two"}, tags)
}

func TestParseTagArrayNoArray(t *testing.T) {
	assert.Nil(t, ParseTagArray("I could not come up with any hashtags."))
	assert.Nil(t, ParseTagArray(""))
}

func TestParseTagArraySurroundingProse(t *testing.T) {
	tags := ParseTagArray(`Here you go: ["#startup"] hope that helps!`)
	assert.Equal(t, []string{"#startup"}, tags)
}
