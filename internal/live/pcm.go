package live

import (
	"encoding/binary"
	"time"
)

// 16-bit little-endian signed PCM is the wire format in both directions:
// 16 kHz toward the model, 24 kHz back.

// DecodePCM16 converts little-endian int16 samples to float32 in [-1, 1).
// A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[2*i:]))
		samples[i] = float32(s) / 32768
	}
	return samples
}

// EncodePCM16 converts float32 samples to little-endian int16, clamping out
// of range values instead of wrapping.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, f := range samples {
		v := f * 32768
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}
	return out
}

// FrameDuration is the playback length of a PCM16 payload at the given
// sample rate.
func FrameDuration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
