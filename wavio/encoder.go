// Package wavio reads and writes the module's audio file formats.
//
// The encoder emits the canonical 44-byte RIFF/WAVE PCM16 layout with
// the exact float-to-integer conversion the render artifact contract
// requires; decoding goes through the go-audio ecosystem.
package wavio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const wavHeaderSize = 44

// Encode serializes interleaved float samples as a 16-bit PCM WAV
// stream: RIFF size = total-8, 16-byte fmt chunk with format code 1,
// byte rate = rate*channels*2, block align = channels*2, and a data
// chunk covering the sample payload. Everything is little-endian.
func Encode(w io.Writer, samples []float32, numChannels, sampleRate int) error {
	if numChannels < 1 {
		return fmt.Errorf("channel count must be >= 1: %d", numChannels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	if len(samples)%numChannels != 0 {
		return fmt.Errorf("sample count %d not divisible by %d channels", len(samples), numChannels)
	}

	dataBytes := len(samples) * 2
	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(wavHeaderSize-8+dataBytes))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(numChannels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*numChannels*2))
	binary.LittleEndian.PutUint16(header[32:34], uint16(numChannels*2))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataBytes))

	if _, err := w.Write(header); err != nil {
		return err
	}

	payload := make([]byte, dataBytes)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(payload[2*i:], uint16(PCM16(s)))
	}
	_, err := w.Write(payload)
	return err
}

// EncodeFile writes an encoded WAV to path, creating parent
// directories as needed.
func EncodeFile(path string, samples []float32, numChannels, sampleRate int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Encode(f, samples, numChannels, sampleRate)
}

// PCM16 converts one float sample to a signed 16-bit value. The input
// is clamped to [-1, 1]; scaling is asymmetric (positive x32767,
// negative x32768) so -1.0 maps exactly onto the two's-complement
// minimum without overflow.
func PCM16(v float32) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	if v >= 0 {
		return int16(v * 32767)
	}
	return int16(v * 32768)
}
