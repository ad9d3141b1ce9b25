package recognizer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrNotWAV is returned when the payload lacks a RIFF/WAVE header.
var ErrNotWAV = errors.New("not a valid WAV file")

// WAVFormat is the audio format extracted from a WAV header.
type WAVFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// ParseWAVHeader reads the RIFF header and the chunk list up to the start of
// the data chunk, leaving r positioned at the first audio sample. Metadata
// chunks (LIST, fact, ...) are skipped.
func ParseWAVHeader(r io.Reader) (WAVFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return WAVFormat{}, fmt.Errorf("read WAV header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return WAVFormat{}, ErrNotWAV
	}

	var f WAVFormat
	var haveFmt bool
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return WAVFormat{}, fmt.Errorf("read WAV chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return WAVFormat{}, ErrNotWAV
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return WAVFormat{}, fmt.Errorf("read WAV fmt chunk: %w", err)
			}
			f = WAVFormat{
				AudioFormat:   binary.LittleEndian.Uint16(body[0:2]),
				NumChannels:   binary.LittleEndian.Uint16(body[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(body[4:8]),
				BitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
			}
			if f.AudioFormat != 1 {
				return f, fmt.Errorf("unsupported WAV format %d: only PCM is supported", f.AudioFormat)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return WAVFormat{}, ErrNotWAV
			}
			return f, nil
		default:
			skip := int64(size)
			// Chunks are word aligned.
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return WAVFormat{}, fmt.Errorf("skip WAV chunk %q: %w", id, err)
			}
		}
	}
}
