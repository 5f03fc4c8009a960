package field

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBinary(t *testing.T) {
	p := Params{Type: Binary, Length: 4}
	v, err := Decode(p, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, v.Binary())
}

func TestDecodeBoolean(t *testing.T) {
	p := Params{Type: Boolean}
	v, err := Decode(p, []byte{0})
	require.NoError(t, err)
	assert.False(t, v.Boolean())

	v, err = Decode(p, []byte{7})
	require.NoError(t, err)
	assert.True(t, v.Boolean())
}

func TestDecodeDigitPreservesRawBytes(t *testing.T) {
	p := Params{Type: Digit, Length: 9}
	raw := []byte{0x01, 0x23, 0x45, 0x67, 0x89}
	v, err := Decode(p, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, v.Digit())
}

func TestDecodeStrFix(t *testing.T) {
	p := Params{Type: StrFix, Length: 3}
	units := utf16.Encode([]rune("abc"))
	raw := make([]byte, 6)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:], u)
	}

	v, err := Decode(p, raw)
	require.NoError(t, err)
	assert.Equal(t, "abc", v.Str())
}

func TestDecodeStrVarAcceptsExactLengthRejectsOverLength(t *testing.T) {
	p := Params{Type: StrVar, Length: 3}

	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:2], 3)
	units := utf16.Encode([]rune("xyz"))
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[2+i*2:], u)
	}

	v, err := Decode(p, raw)
	require.NoError(t, err)
	assert.Equal(t, "xyz", v.Str())

	badRaw := make([]byte, 8)
	binary.LittleEndian.PutUint16(badRaw[0:2], 4) // real_len > length
	_, err = Decode(p, badRaw)
	assert.Error(t, err)
}

func TestDecodeVersion(t *testing.T) {
	p := Params{Type: VersionKind}
	raw := make([]byte, 16)
	binary.LittleEndian.PutUint32(raw[0:4], 1)
	binary.LittleEndian.PutUint32(raw[4:8], 2)
	binary.LittleEndian.PutUint32(raw[8:12], 3)
	binary.LittleEndian.PutUint32(raw[12:16], 4)

	v, err := Decode(p, raw)
	require.NoError(t, err)
	assert.Equal(t, Version{V1: 1, V2: 2, V3: 3, V4: 4}, v.VersionValue())
}

func TestDecodeBlobRefs(t *testing.T) {
	for _, kind := range []Kind{StrBlob, BinBlob} {
		p := Params{Type: kind}
		raw := make([]byte, 8)
		binary.LittleEndian.PutUint32(raw[0:4], 42)
		binary.LittleEndian.PutUint32(raw[4:8], 100)

		v, err := Decode(p, raw)
		require.NoError(t, err)
		assert.Equal(t, BlobRef{Index: 42, Size: 100}, v.Blob())
	}
}

func TestDecodeDateTime(t *testing.T) {
	p := Params{Type: DateTimeKind}
	raw := []byte{0, 0, 1, 2, 3, 4, 5}
	binary.LittleEndian.PutUint16(raw[0:2], 2024)

	v, err := Decode(p, raw)
	require.NoError(t, err)
	assert.Equal(t, DateTime{Year: 2024, Month: 1, Day: 2, Hour: 3, Minute: 4, Second: 5}, v.DateTimeValue())
}

func TestValueAccessorPanicsOnKindMismatch(t *testing.T) {
	v, err := Decode(Params{Type: Boolean}, []byte{1})
	require.NoError(t, err)

	assert.Panics(t, func() { v.Str() })
}

func TestDecodeDigitDecimalInterpretsPackedBCD(t *testing.T) {
	d, err := DecodeDigitDecimal([]byte{0x01, 0x23}, 2)
	require.NoError(t, err)
	assert.Equal(t, "1.23", d.String())
}
