package sml_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/energy-monitor/internal/pkg/sml"
	"github.com/anicoll/energy-monitor/internal/pkg/sml/smltest"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, uint16(0x906e), sml.Checksum([]byte("123456789")))
}

func TestDecode(t *testing.T) {
	payload := []byte{0x76, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05}

	t.Run("single frame", func(t *testing.T) {
		frames, err := sml.Decode(smltest.Frame(payload))
		require.NoError(t, err)
		require.Len(t, frames, 1)
		assert.Equal(t, payload, frames[0])
	})

	t.Run("leading and trailing noise", func(t *testing.T) {
		data := append([]byte{0xff, 0x00, 0x1b}, smltest.Frame(payload)...)
		data = append(data, 0x00, 0x00)
		frames, err := sml.Decode(data)
		require.NoError(t, err)
		require.Len(t, frames, 1)
		assert.Equal(t, payload, frames[0])
	})

	t.Run("two frames", func(t *testing.T) {
		data := append(smltest.Frame(payload), smltest.Frame([]byte{1, 2, 3, 4})...)
		frames, err := sml.Decode(data)
		require.NoError(t, err)
		assert.Len(t, frames, 2)
	})

	t.Run("escaped escape sequence", func(t *testing.T) {
		in := []byte{0x1b, 0x1b, 0x1b, 0x1b, 0xaa, 0xbb}
		frames, err := sml.Decode(smltest.Frame(in))
		require.NoError(t, err)
		assert.Equal(t, in, frames[0])
	})
}

func TestDecode_Errors(t *testing.T) {
	good := smltest.Frame([]byte{1, 2, 3, 4, 5})

	tests := map[string]struct {
		data    []byte
		wantErr error
	}{
		"empty":     {data: nil, wantErr: sml.ErrNoFrame},
		"no start":  {data: []byte("<html>not sml</html>"), wantErr: sml.ErrNoFrame},
		"truncated": {data: good[:len(good)-6], wantErr: sml.ErrTruncated},
		"checksum": {
			data: func() []byte {
				b := bytes.Clone(good)
				b[len(b)-1] ^= 0xff
				return b
			}(),
			wantErr: sml.ErrChecksum,
		},
		"corrupted payload": {
			data: func() []byte {
				b := bytes.Clone(good)
				b[9] ^= 0x01
				return b
			}(),
			wantErr: sml.ErrChecksum,
		},
		"bad escape": {
			data: append(append([]byte{}, good[:8]...), 0x1b, 0x1b, 0x1b, 0x1b, 0x02, 0x02, 0x02, 0x02),
			wantErr: sml.ErrInvalidEscape,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := sml.Decode(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_PulseTelegram(t *testing.T) {
	frames, err := sml.Decode(smltest.PulseTelegram(950))
	require.NoError(t, err)
	require.Len(t, frames, 1)

	file, err := sml.Parse(frames[0])
	require.NoError(t, err)
	require.Len(t, file.Messages, 3)

	open, ok := file.Messages[0].Body.(sml.OpenResponse)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, open.ServerID)
	assert.Equal(t, []byte{0x0a, 0x0b}, open.ReqFileID)

	list, ok := file.Messages[1].Body.(sml.GetListResponse)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, file.Messages[1].TransactionID)
	require.Len(t, list.ValList, 2)

	energy := list.ValList[0]
	assert.Equal(t, []byte{1, 0, 1, 8, 0, 255}, energy.ObjName)
	require.NotNil(t, energy.Scaler)
	assert.Equal(t, int8(-1), *energy.Scaler)
	scaled, ok := energy.ScaledInteger()
	require.True(t, ok)
	assert.Equal(t, int64(12345679), scaled)

	power := list.ValList[1]
	assert.Equal(t, smltest.CurrentPower, power.ObjName)
	require.NotNil(t, power.Unit)
	assert.Equal(t, uint8(27), *power.Unit)
	v, ok := power.ScaledInteger()
	require.True(t, ok)
	assert.Equal(t, int64(950), v)

	assert.Equal(t, sml.TagCloseResponse, file.Messages[2].Body.Tag())
}

func TestParse_NegativePower(t *testing.T) {
	frames, err := sml.Decode(smltest.PulseTelegram(-1500))
	require.NoError(t, err)
	file, err := sml.Parse(frames[0])
	require.NoError(t, err)
	v, ok := file.Messages[1].Body.(sml.GetListResponse).ValList[1].Value.Integer()
	require.True(t, ok)
	assert.Equal(t, int64(-1500), v)
}

func TestParse_UnknownBody(t *testing.T) {
	file, err := sml.Parse(smltest.Message(9, 0x00000501, smltest.List(smltest.Absent())))
	require.NoError(t, err)
	require.Len(t, file.Messages, 1)
	assert.Equal(t, uint32(0x501), file.Messages[0].Body.Tag())
}

func TestParse_Errors(t *testing.T) {
	tests := map[string][]byte{
		"truncated list":        {0x76, 0x02, 0x01},
		"not a message":         smltest.U8(1),
		"short message":         smltest.List(smltest.Octets(1), smltest.U8(0)),
		"missing end":           smltest.List(smltest.Octets(1), smltest.U8(0), smltest.U8(0), smltest.List(smltest.U32(sml.TagCloseResponse), smltest.List(smltest.Absent())), smltest.U16(0), smltest.U8(0)),
		"bad list response":     smltest.Message(2, sml.TagGetListResponse, smltest.List(smltest.Absent())),
		"integer too long":      {0x5a, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		"bad continuation tl":   {0x81, 0x71},
		"list length overflow":  append(append([]byte{0xf0}, bytes.Repeat([]byte{0x8f}, 15)...), 0x0f),
		"huge list length":      append(append([]byte{0xff}, bytes.Repeat([]byte{0x8f}, 7)...), 0x0f),
		"list longer than data": {0x7f, 0x01},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = sml.Parse(data)
			})
			assert.Error(t, err)
		})
	}
}

func TestValue_Integer(t *testing.T) {
	_, ok := sml.Value{Kind: sml.KindOctets, Bytes: []byte{1}}.Integer()
	assert.False(t, ok)
	_, ok = sml.Value{Kind: sml.KindUint, Uint: 1 << 63}.Integer()
	assert.False(t, ok)
	v, ok := sml.Value{Kind: sml.KindUint, Uint: 42}.Integer()
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
}
