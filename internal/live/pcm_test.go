package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCM16RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.999, -1}
	encoded := EncodePCM16(samples)
	require.Len(t, encoded, 10)

	decoded := DecodePCM16(encoded)
	require.Len(t, decoded, 5)
	for i := range samples {
		assert.InDelta(t, samples[i], decoded[i], 1.0/32768)
	}
}

func TestEncodePCM16Clamps(t *testing.T) {
	encoded := EncodePCM16([]float32{2.0, -2.0})
	decoded := DecodePCM16(encoded)
	assert.InDelta(t, 1.0, decoded[0], 1.0/32768)
	assert.InDelta(t, -1.0, decoded[1], 1.0/32768)
}

func TestDecodePCM16IgnoresTrailingByte(t *testing.T) {
	assert.Len(t, DecodePCM16([]byte{0, 0, 7}), 1)
	assert.Empty(t, DecodePCM16(nil))
}

func TestFrameDuration(t *testing.T) {
	// 4096 samples at 16 kHz is 256 ms
	pcm := make([]byte, 4096*2)
	assert.Equal(t, 256*time.Millisecond, FrameDuration(pcm, 16000))

	// 24000 samples at 24 kHz is one second
	pcm = make([]byte, 24000*2)
	assert.Equal(t, time.Second, FrameDuration(pcm, 24000))

	assert.Zero(t, FrameDuration(pcm, 0))
}
