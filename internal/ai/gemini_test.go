package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLanguageTag(t *testing.T) {
	lang, rest := splitLanguageTag("LANG: en\nThe answer.")
	assert.Equal(t, "en", lang)
	assert.Equal(t, "The answer.", rest)

	lang, rest = splitLanguageTag("LANG:  ml-IN  \nഉത്തരം ഇവിടെ.")
	assert.Equal(t, "ml-IN", lang)
	assert.Equal(t, "ഉത്തരം ഇവിടെ.", rest)
}

func TestSplitLanguageTagAbsent(t *testing.T) {
	lang, rest := splitLanguageTag("No tag line at all.")
	assert.Empty(t, lang)
	assert.Equal(t, "No tag line at all.", rest)
}

func TestSplitLanguageTagAlone(t *testing.T) {
	// A tag with no answer behind it leaves nothing to return to the user.
	lang, rest := splitLanguageTag("LANG: en")
	assert.Equal(t, "en", lang)
	assert.Empty(t, rest)
}

func TestLiveInputMIME(t *testing.T) {
	assert.Equal(t, "audio/pcm;rate=16000", liveInputMIME(0))
	assert.Equal(t, "audio/pcm;rate=8000", liveInputMIME(8000))
}
