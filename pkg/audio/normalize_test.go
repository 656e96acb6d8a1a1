package audio

import (
	"bytes"
	"testing"
)

// makeWAV builds a WAV blob from int16 samples for test input.
func makeWAV(t *testing.T, samples []int16, sampleRate, channels int) []byte {
	t.Helper()
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return EncodeWAV(&PCM{Data: data, SampleRate: sampleRate, Channels: channels})
}

func TestDecodeWAV_RoundTrip(t *testing.T) {
	in := makeWAV(t, []int16{0, 100, -100, 32000}, 16000, 1)
	pcm, err := DecodeWAV(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pcm.SampleRate != 16000 {
		t.Fatalf("SampleRate = %d, want 16000", pcm.SampleRate)
	}
	if pcm.Channels != 1 {
		t.Fatalf("Channels = %d, want 1", pcm.Channels)
	}
	if len(pcm.Data) != 8 {
		t.Fatalf("len(Data) = %d, want 8", len(pcm.Data))
	}
}

func TestDecodeWAV_RejectsGarbage(t *testing.T) {
	for _, in := range [][]byte{
		nil,
		[]byte("not audio at all"),
		bytes.Repeat([]byte{0xff}, 64),
	} {
		if _, err := DecodeWAV(in); err == nil {
			t.Fatalf("DecodeWAV(%d bytes) = nil error, want error", len(in))
		}
	}
}

func TestNormalize_PassthroughOnUndecodable(t *testing.T) {
	in := []byte("OggS this is not wav")
	res := Normalize(in, "audio/ogg")
	if res.Normalized {
		t.Fatal("Normalized = true, want false for undecodable input")
	}
	if !bytes.Equal(res.Data, in) {
		t.Fatal("Data was modified, want original bytes unchanged")
	}
	if res.MIMEType != "audio/ogg" {
		t.Fatalf("MIMEType = %q, want audio/ogg", res.MIMEType)
	}
}

func TestNormalize_StereoToMono16k(t *testing.T) {
	// 48 kHz stereo input: L=1000, R=3000 throughout, so mono should be 2000
	// before gain scaling.
	samples := make([]int16, 4800*2)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 1000
		samples[i+1] = 3000
	}
	in := makeWAV(t, samples, 48000, 2)

	res := Normalize(in, "audio/wav")
	if !res.Normalized {
		t.Fatal("Normalized = false, want true")
	}

	pcm, err := DecodeWAV(res.Data)
	if err != nil {
		t.Fatalf("decode normalized output: %v", err)
	}
	if pcm.Channels != 1 {
		t.Fatalf("Channels = %d, want 1", pcm.Channels)
	}
	if pcm.SampleRate != TargetSampleRate {
		t.Fatalf("SampleRate = %d, want %d", pcm.SampleRate, TargetSampleRate)
	}
	// 4800 frames at 48 kHz is 100 ms, so expect ~1600 mono samples at 16 kHz.
	got := len(pcm.Data) / 2
	if got < 1590 || got > 1610 {
		t.Fatalf("output samples = %d, want ~1600", got)
	}
}

func TestScaleToPeak_BoostsQuietAudio(t *testing.T) {
	in := make([]byte, 8)
	// Samples: 100, -100, 50, 0.
	for i, s := range []int16{100, -100, 50, 0} {
		in[i*2] = byte(s)
		in[i*2+1] = byte(s >> 8)
	}
	out := ScaleToPeak(in, 0.8)

	peak := int16(out[0]) | int16(out[1])<<8
	target := 0.8
	want := int16(target * 32767)
	// Allow one unit of rounding slack.
	if peak < want-1 || peak > want+1 {
		t.Fatalf("peak = %d, want ~%d", peak, want)
	}
}

func TestScaleToPeak_LeavesLoudAudioAlone(t *testing.T) {
	in := make([]byte, 4)
	for i, s := range []int16{30000, -30000} {
		in[i*2] = byte(s)
		in[i*2+1] = byte(s >> 8)
	}
	out := ScaleToPeak(in, 0.8)
	if !bytes.Equal(out, in) {
		t.Fatal("loud input was rescaled, want unchanged")
	}
}

func TestScaleToPeak_SilenceUnchanged(t *testing.T) {
	in := make([]byte, 16)
	out := ScaleToPeak(in, 0.8)
	if !bytes.Equal(out, in) {
		t.Fatal("silence was modified, want unchanged")
	}
}

func TestResampleMono16_SameRateNoop(t *testing.T) {
	in := []byte{1, 0, 2, 0, 3, 0}
	out := ResampleMono16(in, 16000, 16000)
	if !bytes.Equal(out, in) {
		t.Fatal("same-rate resample modified data")
	}
}
