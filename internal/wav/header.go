/*
 * This file is part of Loqa Narrator (https://github.com/loqalabs/loqa-narrator).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Canonical RIFF/WAVE layout for uncompressed PCM. All multi-byte fields are
// little-endian; the header is always 44 bytes followed by the sample data.

const (
	// HeaderSize is the fixed size of the descriptor region
	HeaderSize = 44

	// MaxDataSize is the largest payload whose sizes still fit the 32-bit fields
	MaxDataSize = math.MaxUint32 - (HeaderSize - 8)

	fmtChunkSize   = 16
	audioFormatPCM = 1
)

var (
	riffID = [4]byte{'R', 'I', 'F', 'F'}
	waveID = [4]byte{'W', 'A', 'V', 'E'}
	fmtID  = [4]byte{'f', 'm', 't', ' '}
	dataID = [4]byte{'d', 'a', 't', 'a'}
)

// Format describes the PCM layout of the samples following the header
type Format struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
}

// GeminiPCM is the layout emitted by the Gemini speech models:
// 24kHz, mono, 16-bit signed little-endian.
var GeminiPCM = Format{
	SampleRate:    24000,
	Channels:      1,
	BitsPerSample: 16,
}

// BlockAlign returns the number of bytes per sample frame
func (f Format) BlockAlign() uint16 {
	return f.Channels * (f.BitsPerSample / 8)
}

// ByteRate returns the number of bytes per second of audio
func (f Format) ByteRate() uint32 {
	return f.SampleRate * uint32(f.Channels) * uint32(f.BitsPerSample/8)
}

// Validate checks that the format can be described by a PCM header
func (f Format) Validate() error {
	if f.SampleRate == 0 {
		return fmt.Errorf("sample rate must be positive")
	}
	if f.Channels == 0 {
		return fmt.Errorf("channel count must be positive")
	}
	if f.BitsPerSample == 0 || f.BitsPerSample%8 != 0 {
		return fmt.Errorf("bits per sample must be a positive multiple of 8: %d", f.BitsPerSample)
	}

	// ByteRate and BlockAlign must fit their header fields
	frame := uint64(f.Channels) * uint64(f.BitsPerSample/8)
	if frame > math.MaxUint16 {
		return fmt.Errorf("block align overflows 16 bits: %d channels of %d bits", f.Channels, f.BitsPerSample)
	}
	if uint64(f.SampleRate)*frame > math.MaxUint32 {
		return fmt.Errorf("byte rate overflows 32 bits: %s", f)
	}
	return nil
}

// Duration returns the playback length of dataLen bytes of samples
func (f Format) Duration(dataLen int) time.Duration {
	rate := f.ByteRate()
	if rate == 0 || dataLen <= 0 {
		return 0
	}
	return time.Duration(float64(dataLen) / float64(rate) * float64(time.Second))
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitsPerSample)
}

// Header is the 44-byte descriptor region, field order matches the file layout
type Header struct {
	RiffID        [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + DataSize
	WaveID        [4]byte // "WAVE"
	FmtID         [4]byte // "fmt "
	FmtSize       uint32  // 16 for PCM
	AudioFormat   uint16  // 1 = linear PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample/8
	BlockAlign    uint16 // NumChannels * BitsPerSample/8
	BitsPerSample uint16
	DataID        [4]byte // "data"
	DataSize      uint32
}

// NewHeader builds the descriptor for dataLen bytes of samples in format f
func NewHeader(dataLen int, f Format) (*Header, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PCM format: %w", err)
	}
	if dataLen < 0 || uint64(dataLen) > MaxDataSize {
		return nil, fmt.Errorf("data length out of range: %d bytes (max %d)", dataLen, uint64(MaxDataSize))
	}

	size := uint32(dataLen) //nolint:gosec // G115: bounds checked above
	return &Header{
		RiffID:        riffID,
		ChunkSize:     HeaderSize - 8 + size,
		WaveID:        waveID,
		FmtID:         fmtID,
		FmtSize:       fmtChunkSize,
		AudioFormat:   audioFormatPCM,
		NumChannels:   f.Channels,
		SampleRate:    f.SampleRate,
		ByteRate:      f.ByteRate(),
		BlockAlign:    f.BlockAlign(),
		BitsPerSample: f.BitsPerSample,
		DataID:        dataID,
		DataSize:      size,
	}, nil
}

// MarshalBinary serializes the header in little-endian order
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return buf.Bytes(), nil
}

// Format returns the PCM layout described by the header
func (h *Header) Format() Format {
	return Format{
		SampleRate:    h.SampleRate,
		Channels:      h.NumChannels,
		BitsPerSample: h.BitsPerSample,
	}
}

// Encode wraps raw PCM samples in a WAV container. The returned buffer is
// exactly HeaderSize + len(pcm) bytes long.
func Encode(pcm []byte, f Format) ([]byte, error) {
	header, err := NewHeader(len(pcm), f)
	if err != nil {
		return nil, err
	}

	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, HeaderSize+len(pcm))
	out = append(out, headerBytes...)
	out = append(out, pcm...)
	return out, nil
}

// ParseHeader reads and validates the descriptor at the start of data
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("container too small: %d bytes (min %d)", len(data), HeaderSize)
	}

	var h Header
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	switch {
	case h.RiffID != riffID:
		return nil, fmt.Errorf("invalid chunk tag: %q", h.RiffID[:])
	case h.WaveID != waveID:
		return nil, fmt.Errorf("invalid format tag: %q", h.WaveID[:])
	case h.FmtID != fmtID:
		return nil, fmt.Errorf("invalid fmt tag: %q", h.FmtID[:])
	case h.DataID != dataID:
		return nil, fmt.Errorf("invalid data tag: %q", h.DataID[:])
	case h.AudioFormat != audioFormatPCM:
		return nil, fmt.Errorf("unsupported audio format: %d", h.AudioFormat)
	case h.ChunkSize != HeaderSize-8+h.DataSize:
		return nil, fmt.Errorf("chunk size %d does not match data size %d", h.ChunkSize, h.DataSize)
	}

	return &h, nil
}
