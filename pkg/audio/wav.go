package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotWAV is returned by DecodeWAV when the input does not start with a
// RIFF/WAVE header.
var ErrNotWAV = errors.New("audio: not a RIFF/WAVE stream")

// PCM holds decoded 16-bit little-endian PCM audio.
type PCM struct {
	// Data is interleaved int16 samples, 2 bytes per sample.
	Data []byte

	// SampleRate is the sample rate in Hz.
	SampleRate int

	// Channels is the number of interleaved channels (1 = mono, 2 = stereo).
	Channels int
}

// DecodeWAV parses a WAV container holding 16-bit PCM and returns the raw
// sample data and format. Only uncompressed PCM (format tag 1) at 16 bits per
// sample is supported; anything else is an error so that callers can fall
// back to the unmodified input.
func DecodeWAV(data []byte) (*PCM, error) {
	if len(data) < 44 {
		return nil, ErrNotWAV
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		format     uint16
		channels   uint16
		sampleRate uint32
		bitDepth   uint16
		haveFmt    bool
	)

	// Walk the chunk list. The fmt chunk must precede data.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("audio: fmt chunk too short (%d bytes)", size)
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitDepth = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, errors.New("audio: data chunk before fmt chunk")
			}
			if format != 1 {
				return nil, fmt.Errorf("audio: unsupported WAV format tag %d (want PCM)", format)
			}
			if bitDepth != 16 {
				return nil, fmt.Errorf("audio: unsupported bit depth %d (want 16)", bitDepth)
			}
			if channels == 0 || sampleRate == 0 {
				return nil, errors.New("audio: zero channels or sample rate in fmt chunk")
			}
			return &PCM{
				Data:       data[body : body+size],
				SampleRate: int(sampleRate),
				Channels:   int(channels),
			}, nil
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	return nil, errors.New("audio: no data chunk found")
}

// EncodeWAV wraps 16-bit PCM sample data in a minimal RIFF/WAVE container.
func EncodeWAV(p *PCM) []byte {
	const headerSize = 44
	dataSize := len(p.Data)
	blockAlign := p.Channels * 2
	byteRate := p.SampleRate * blockAlign

	out := make([]byte, headerSize+dataSize)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(headerSize+dataSize-8))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(p.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(p.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))
	copy(out[44:], p.Data)
	return out
}
