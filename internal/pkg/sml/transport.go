// Package sml decodes Smart Message Language telegrams as served by a meter
// reading bridge: the transport layer (escape sequences, padding, CRC) and the
// message layer (TLV encoded message lists).
package sml

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrNoFrame        = errors.New("no sml frame found")
	ErrTruncated      = errors.New("sml frame truncated")
	ErrInvalidEscape  = errors.New("invalid escape sequence")
	ErrChecksum       = errors.New("sml frame checksum mismatch")
	ErrInvalidPadding = errors.New("invalid padding")
)

var (
	escape     = []byte{0x1b, 0x1b, 0x1b, 0x1b}
	startBlock = []byte{0x01, 0x01, 0x01, 0x01}
)

const endMarker = 0x1a

// Decode extracts the payload of every transport frame in data. Bytes outside
// frames are skipped. A malformed frame fails the whole decode.
func Decode(data []byte) ([][]byte, error) {
	var frames [][]byte
	rest := data
	for {
		start := findStart(rest)
		if start < 0 {
			break
		}
		frame, consumed, err := decodeFrame(rest[start:])
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
		rest = rest[start+consumed:]
	}
	if len(frames) == 0 {
		return nil, ErrNoFrame
	}
	return frames, nil
}

func findStart(data []byte) int {
	seq := append(append([]byte{}, escape...), startBlock...)
	return bytes.Index(data, seq)
}

// decodeFrame expects data to begin with the start sequence and returns the
// unescaped payload and the number of bytes consumed.
func decodeFrame(data []byte) ([]byte, int, error) {
	payload := make([]byte, 0, len(data))
	pos := len(escape) + len(startBlock)
	for {
		if pos+4 > len(data) {
			return nil, 0, ErrTruncated
		}
		word := data[pos : pos+4]
		if !bytes.Equal(word, escape) {
			payload = append(payload, word...)
			pos += 4
			continue
		}
		if pos+8 > len(data) {
			return nil, 0, ErrTruncated
		}
		next := data[pos+4 : pos+8]
		switch {
		case bytes.Equal(next, escape):
			payload = append(payload, escape...)
			pos += 8
		case next[0] == endMarker:
			padding := int(next[1])
			if padding > 3 || padding > len(payload) {
				return nil, 0, fmt.Errorf("%w: %d", ErrInvalidPadding, padding)
			}
			end := pos + 8
			want := binary.LittleEndian.Uint16(next[2:4])
			if got := Checksum(data[:end-2]); got != want {
				return nil, 0, fmt.Errorf("%w: got %04x, want %04x", ErrChecksum, got, want)
			}
			return payload[:len(payload)-padding], end, nil
		case bytes.Equal(next, startBlock):
			// a new frame starts before this one ended
			return nil, 0, fmt.Errorf("%w: unexpected start sequence", ErrInvalidEscape)
		default:
			return nil, 0, fmt.Errorf("%w: % x", ErrInvalidEscape, next)
		}
	}
}

// Checksum is CRC-16/X-25 as used by the SML transport.
func Checksum(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}
