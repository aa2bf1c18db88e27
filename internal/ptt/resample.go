package ptt

import "math"

// DownmixToMono averages each frame's channels into a single sample.
// channels <= 1 returns samples unchanged.
func DownmixToMono(samples []float32, channels int) []float32 {
	if channels <= 1 || len(samples) == 0 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// ResampleLinear converts mono samples from srcRate to dstRate using
// naive linear interpolation. This exact algorithm (not a
// higher-quality resampler) is load-bearing: the output values for
// specific test vectors are pinned to it.
func ResampleLinear(mono []float32, srcRate, dstRate float64) []float32 {
	if len(mono) == 0 || srcRate == dstRate {
		return mono
	}

	ratio := srcRate / dstRate
	outLen := int(math.Ceil(float64(len(mono)) / ratio))
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float32, outLen)
	lastIdx := len(mono) - 1
	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= lastIdx {
			out[i] = mono[lastIdx]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = mono[idx] + frac*(mono[idx+1]-mono[idx])
	}
	return out
}

// ResampleTo16kMono downmixes samples captured at srcRate with the
// given channel count to 16 kHz mono.
func ResampleTo16kMono(samples []float32, srcRate float64, channels int) []float32 {
	const targetRate = 16000
	mono := DownmixToMono(samples, channels)
	return ResampleLinear(mono, srcRate, targetRate)
}
