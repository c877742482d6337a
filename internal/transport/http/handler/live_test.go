package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAudioFrame(t *testing.T) {
	const frameSamples = 4096

	assert.True(t, validAudioFrame(frameSamples*2, frameSamples))
	assert.True(t, validAudioFrame(320, frameSamples))

	assert.False(t, validAudioFrame(0, frameSamples), "empty frame")
	assert.False(t, validAudioFrame(321, frameSamples), "odd byte count shears samples")
	assert.False(t, validAudioFrame(frameSamples*2+2, frameSamples), "larger than one capture frame")

	// no configured frame size: only whole non-empty samples are required
	assert.True(t, validAudioFrame(1<<20, 0))
	assert.False(t, validAudioFrame(3, 0))
}
