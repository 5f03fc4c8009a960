package blob

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DenMMM/db-1cd/store/onecderr"
)

// fixedStream is a minimal in-memory stand-in for *object.Stream, backed
// directly by a byte buffer, so Reader can be exercised without a real
// PageCache/ObjectStream underneath.
type fixedStream struct{ data []byte }

func (s *fixedStream) Size() uint64 { return uint64(len(s.data)) }
func (s *fixedStream) Read(dst []byte, pos uint64) error {
	copy(dst, s.data[pos:pos+uint64(len(dst))])
	return nil
}

// blobReaderOver builds a Reader directly over raw block bytes via the
// ByteStream interface, bypassing any real ObjectStream/PageCache.
func blobReaderOver(t *testing.T, blocks []byte) *Reader {
	t.Helper()
	r, err := Open(&fixedStream{data: blocks})
	require.NoError(t, err)
	return r
}

func makeBlock(next uint32, length uint16, data []byte) []byte {
	b := make([]byte, blockSize)
	binary.LittleEndian.PutUint32(b[0:4], next)
	binary.LittleEndian.PutUint16(b[4:6], length)
	copy(b[6:6+len(data)], data)
	return b
}

func TestGetSingleBlockChain(t *testing.T) {
	payload := bytes.Repeat([]byte{'x'}, 100)
	// block 0 is the empty-reference sentinel; the chain starts at block 1.
	r := blobReaderOver(t, append(makeBlock(0, 0, nil), makeBlock(0, 100, payload)...))

	got, err := r.Get(1, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestGetMultiBlockChainAndExactSize(t *testing.T) {
	a := bytes.Repeat([]byte{'A'}, 250)
	b := bytes.Repeat([]byte{'B'}, 10)
	blocks := makeBlock(0, 0, nil) // block 0: empty-reference sentinel
	blocks = append(blocks, makeBlock(2, 250, a)...)
	blocks = append(blocks, makeBlock(0, 10, b)...)

	r := blobReaderOver(t, blocks)

	got, err := r.Get(1, 260)
	require.NoError(t, err)
	assert.Len(t, got, 260)

	_, err = r.Get(1, 259)
	assert.True(t, onecderr.IsInvalidBlob(err))
}

func TestGetRejectsZeroIndex(t *testing.T) {
	r := blobReaderOver(t, makeBlock(0, 0, nil))
	_, err := r.Get(0, 0)
	assert.True(t, onecderr.IsInvalidBlob(err))
}

func TestDecompressRawDeflate(t *testing.T) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	want := bytes.Repeat([]byte("hello world "), 50)
	_, err = zw.Write(want)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := Decompress(buf.Bytes(), uint32(len(want)*2))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUTF8ToUTF16RequiresBOM(t *testing.T) {
	_, err := UTF8ToUTF16([]byte("no bom here"))
	assert.True(t, onecderr.IsEncoding(err))

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("ok")...)
	units, err := UTF8ToUTF16(withBOM)
	require.NoError(t, err)
	assert.Equal(t, []uint16{'o', 'k'}, units)
}
