// Package audio normalizes recorded voice notes into the canonical format the
// recognition providers work best with: 16 kHz mono 16-bit PCM with peak
// amplitude scaled to roughly 80% of full scale.
//
// Normalization is a best-effort optimization, never a hard dependency: when
// the input cannot be decoded or converted, the original bytes are returned
// unchanged so recognition can still be attempted on whatever the caller
// recorded.
package audio

import (
	"log/slog"
)

const (
	// TargetSampleRate is the canonical sample rate for recognition input.
	TargetSampleRate = 16000

	// targetPeak is the peak amplitude after gain scaling, as a fraction of
	// int16 full scale. 80% maximizes SNR while leaving clipping headroom.
	targetPeak = 0.8
)

// NormalizeResult reports what the normalizer did to a voice note.
type NormalizeResult struct {
	// Data is the normalized WAV bytes, or the original input when
	// normalization was skipped.
	Data []byte

	// MIMEType is "audio/wav" when normalization succeeded, otherwise the
	// declared input type passed through.
	MIMEType string

	// Normalized is false when decoding or conversion failed and Data is the
	// untouched input.
	Normalized bool

	// DurationSeconds is the decoded audio duration. Zero when not normalized.
	DurationSeconds float64
}

// Normalize converts a recorded audio blob to mono 16 kHz WAV with the peak
// amplitude scaled to ~80% of full scale.
//
// Conversion order: decode → downmix stereo to mono → resample → gain scale.
// Any failure returns the input unchanged with Normalized=false; Normalize
// never returns an error because recognition must proceed regardless.
func Normalize(data []byte, mimeType string) NormalizeResult {
	passthrough := NormalizeResult{Data: data, MIMEType: mimeType}

	pcm, err := DecodeWAV(data)
	if err != nil {
		slog.Debug("audio normalization skipped, passing original through",
			"mime_type", mimeType, "reason", err)
		return passthrough
	}

	samples := pcm.Data
	if pcm.Channels == 2 {
		samples = StereoToMono(samples)
	} else if pcm.Channels != 1 {
		slog.Debug("audio normalization skipped, unsupported channel count",
			"channels", pcm.Channels)
		return passthrough
	}

	samples = ResampleMono16(samples, pcm.SampleRate, TargetSampleRate)
	if len(samples) == 0 {
		return passthrough
	}

	samples = ScaleToPeak(samples, targetPeak)

	out := EncodeWAV(&PCM{Data: samples, SampleRate: TargetSampleRate, Channels: 1})
	return NormalizeResult{
		Data:            out,
		MIMEType:        "audio/wav",
		Normalized:      true,
		DurationSeconds: float64(len(samples)/2) / float64(TargetSampleRate),
	}
}

// StereoToMono averages L+R per stereo frame (4 bytes) to produce mono output.
// Uses int32 arithmetic to prevent overflow and clamps to int16 range.
func StereoToMono(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		l := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		r := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		avg := (l + r) / 2

		if avg > 32767 {
			avg = 32767
		} else if avg < -32768 {
			avg = -32768
		}

		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// ResampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using
// linear interpolation. The input must be little-endian int16 samples. If
// srcRate == dstRate, the input is returned unchanged.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	if srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)

	for i := 0; i < dstSamples; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		var s1 int16
		if srcIdx+1 < srcSamples {
			s1 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		} else {
			s1 = s0
		}

		interpolated := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(interpolated)
		out[i*2+1] = byte(interpolated >> 8)
	}
	return out
}

// ScaleToPeak applies a uniform gain so the loudest sample lands at peak
// (a fraction of int16 full scale). Silent input and input already at or
// above the target peak are returned unchanged — scaling down would only
// lose precision.
func ScaleToPeak(pcm []byte, peak float64) []byte {
	samples := len(pcm) / 2

	var maxAmp int32
	for i := 0; i < samples; i++ {
		s := int32(int16(pcm[i*2]) | int16(pcm[i*2+1])<<8)
		if s < 0 {
			s = -s
		}
		if s > maxAmp {
			maxAmp = s
		}
	}

	target := peak * 32767
	if maxAmp == 0 || float64(maxAmp) >= target {
		return pcm
	}

	gain := target / float64(maxAmp)
	out := make([]byte, len(pcm))
	for i := 0; i < samples; i++ {
		s := float64(int16(pcm[i*2]) | int16(pcm[i*2+1])<<8)
		scaled := int32(s * gain)
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		out[i*2] = byte(scaled)
		out[i*2+1] = byte(scaled >> 8)
	}
	return out
}
