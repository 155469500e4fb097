// Package smltest builds SML telegrams for tests.
package smltest

import (
	"bytes"
	"encoding/binary"

	"github.com/anicoll/energy-monitor/internal/pkg/sml"
)

var (
	escape     = []byte{0x1b, 0x1b, 0x1b, 0x1b}
	startBlock = []byte{0x01, 0x01, 0x01, 0x01}
)

// CurrentPower is the OBIS code 1-0:16.7.0*255.
var CurrentPower = []byte{1, 0, 16, 7, 0, 255}

// Frame wraps payload in a transport frame with padding and checksum.
func Frame(payload []byte) []byte {
	pad := (4 - len(payload)%4) % 4
	body := append(append([]byte{}, payload...), make([]byte, pad)...)

	buf := append(append([]byte{}, escape...), startBlock...)
	for i := 0; i < len(body); i += 4 {
		word := body[i : i+4]
		if bytes.Equal(word, escape) {
			buf = append(buf, escape...)
		}
		buf = append(buf, word...)
	}
	buf = append(buf, escape...)
	buf = append(buf, 0x1a, byte(pad))
	return binary.LittleEndian.AppendUint16(buf, sml.Checksum(buf))
}

func Absent() []byte { return []byte{0x01} }

// Octets encodes a short octet string (up to 14 bytes).
func Octets(b ...byte) []byte {
	return append([]byte{byte(len(b) + 1)}, b...)
}

func U8(v uint8) []byte { return []byte{0x62, v} }

func U16(v uint16) []byte { return binary.BigEndian.AppendUint16([]byte{0x63}, v) }

func U32(v uint32) []byte { return binary.BigEndian.AppendUint32([]byte{0x65}, v) }

func I8(v int8) []byte { return []byte{0x52, byte(v)} }

func I32(v int32) []byte { return binary.BigEndian.AppendUint32([]byte{0x55}, uint32(v)) }

func I64(v int64) []byte { return binary.BigEndian.AppendUint64([]byte{0x59}, uint64(v)) }

// List encodes up to 15 items.
func List(items ...[]byte) []byte {
	buf := []byte{0x70 | byte(len(items))}
	for _, item := range items {
		buf = append(buf, item...)
	}
	return buf
}

func Message(txID byte, tag uint32, body []byte) []byte {
	return List(Octets(txID), U8(0), U8(0), List(U32(tag), body), U16(0), []byte{0x00})
}

func OpenResponse() []byte {
	return Message(1, sml.TagOpenResponse, List(Absent(), Absent(), Octets(0x0a, 0x0b), Octets(0x01, 0x02, 0x03), Absent(), Absent()))
}

func CloseResponse() []byte {
	return Message(3, sml.TagCloseResponse, List(Absent()))
}

func GetListResponse(entries ...[]byte) []byte {
	return Message(2, sml.TagGetListResponse, List(
		Absent(),
		Octets(0x01, 0x02, 0x03),
		Absent(),
		List(U8(1), U32(123456)),
		List(entries...),
		Absent(),
		Absent(),
	))
}

// Entry encodes a list entry with unit W (27).
func Entry(obis []byte, scaler int8, value []byte) []byte {
	return List(Octets(obis...), Absent(), Absent(), U8(27), I8(scaler), value, Absent())
}

// PulseTelegram is a complete frame as served by the bridge, carrying the
// current power reading.
func PulseTelegram(watts int32) []byte {
	return Frame(bytes.Join([][]byte{
		OpenResponse(),
		GetListResponse(
			Entry([]byte{1, 0, 1, 8, 0, 255}, -1, I64(123456789)),
			Entry(CurrentPower, 0, I32(watts)),
		),
		CloseResponse(),
	}, nil))
}
