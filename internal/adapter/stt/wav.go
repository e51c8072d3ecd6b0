// Package stt implements the speech port against the OpenAI transcription
// API, plus the WAV validation that gates what gets sent upstream.
package stt

import (
	"encoding/binary"
	"fmt"

	"github.com/codeverse-ai/codeverse/internal/domain"
)

// WavInfo describes a decoded WAV header.
type WavInfo struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	Frames        int
	Duration      float64 // seconds
	SizeBytes     int
}

// ParseWav validates a RIFF/WAVE container and returns its format info.
// Only PCM fmt chunks are accepted; payloads that are not WAV at all, or
// whose chunks are truncated, fail with domain.ErrValidation.
func ParseWav(data []byte) (WavInfo, error) {
	var info WavInfo
	info.SizeBytes = len(data)

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return info, fmt.Errorf("not a RIFF/WAVE file: %w", domain.ErrValidation)
	}

	var (
		fmtSeen  bool
		dataSize int
	)

	// Walk the chunk list. Chunks are 8-byte headers (id + size) followed by
	// size bytes, padded to even length.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return info, fmt.Errorf("truncated %q chunk: %w", id, domain.ErrValidation)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return info, fmt.Errorf("fmt chunk too short: %w", domain.ErrValidation)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 { // PCM
				return info, fmt.Errorf("unsupported audio format %d: %w", audioFormat, domain.ErrValidation)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			fmtSeen = true
		case "data":
			dataSize = size
		}

		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !fmtSeen {
		return info, fmt.Errorf("missing fmt chunk: %w", domain.ErrValidation)
	}
	if info.Channels <= 0 || info.SampleRate <= 0 || info.BitsPerSample <= 0 {
		return info, fmt.Errorf("invalid wav format values: %w", domain.ErrValidation)
	}

	bytesPerFrame := info.Channels * info.BitsPerSample / 8
	if bytesPerFrame > 0 {
		info.Frames = dataSize / bytesPerFrame
	}
	info.Duration = float64(info.Frames) / float64(info.SampleRate)

	return info, nil
}
