// Package blob reads variable-length buffers from an ObjectStream by
// following chains of fixed 256-byte blocks, and provides the DEFLATE and
// UTF-8 helpers the higher layers need to materialize blob content.
package blob

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/DenMMM/db-1cd/logger"
	"github.com/DenMMM/db-1cd/store/onecderr"
)

const blockSize = 256 // next u32 | length u16 | data[250]

// ByteStream is the subset of ObjectStream's surface a blob chain reads
// through: a sized, positioned byte source.
type ByteStream interface {
	Size() uint64
	Read(dst []byte, pos uint64) error
}

// Reader materializes variable-length buffers from an ObjectStream whose
// bytes form a linked chain of fixed-size blocks.
type Reader struct {
	stream    ByteStream
	numBlocks uint32
}

// Open wraps stream as a blob chain reader. stream's size must be a
// multiple of the block size.
func Open(stream ByteStream) (*Reader, error) {
	size := stream.Size()
	if size%blockSize != 0 {
		return nil, onecderr.Wrap("blob.Open: size", onecderr.ErrInvalidBlob)
	}

	blkCount := size / blockSize
	if blkCount > 0xFFFFFFFF {
		return nil, onecderr.Wrap("blob.Open: size", onecderr.ErrInvalidBlob)
	}

	return &Reader{stream: stream, numBlocks: uint32(blkCount)}, nil
}

// Get walks the block chain starting at index, returning the concatenated
// payload. If expectedSize is non-zero, the result's length must match it
// exactly and never exceed it mid-walk.
func (r *Reader) Get(index uint32, expectedSize uint32) ([]byte, error) {
	if index == 0 {
		return nil, onecderr.Wrap("blob.Get: index", onecderr.ErrInvalidBlob)
	}

	var result []byte
	if expectedSize != 0 {
		result = make([]byte, 0, expectedSize)
	}

	var block [blockSize]byte
	loopGuard := r.numBlocks

	for {
		if index >= r.numBlocks {
			return nil, onecderr.Wrap("blob.Get: block index", onecderr.ErrInvalidBlob)
		}

		logger.Debugf("blob.Get: visiting block %d", index)

		if err := r.stream.Read(block[:], uint64(index)*blockSize); err != nil {
			return nil, onecderr.Wrap("blob.Get: read block", err)
		}

		next := leU32(block[0:4])
		length := leU16(block[4:6])
		data := block[6:256]

		if length > 250 || (length == 0 && next != 0) {
			return nil, onecderr.Wrap("blob.Get: block length", onecderr.ErrInvalidBlob)
		}

		if expectedSize != 0 && uint32(len(result))+uint32(length) > expectedSize {
			return nil, onecderr.Wrap("blob.Get: oversized", onecderr.ErrInvalidBlob)
		}

		result = append(result, data[:length]...)

		if next == 0 {
			if expectedSize != 0 && uint32(len(result)) != expectedSize {
				return nil, onecderr.Wrap("blob.Get: size mismatch", onecderr.ErrInvalidBlob)
			}
			return result, nil
		}

		index = next

		loopGuard--
		if loopGuard == 0 {
			return nil, onecderr.Wrap("blob.Get: loop detected", onecderr.ErrInvalidBlob)
		}
	}
}

func leU32(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24 }
func leU16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

// Decompress inflates src as raw DEFLATE (no zlib wrapper), growing the
// output buffer geometrically up to maxSize.
func Decompress(src []byte, maxSize uint32) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	if uint32(len(src)) > maxSize {
		return nil, onecderr.Wrap("blob.Decompress: source too large", onecderr.ErrDecompression)
	}

	zr := flate.NewReader(bytes.NewReader(src))
	defer zr.Close()

	dst := make([]byte, 0, len(src)*2)
	buf := make([]byte, 4096)

	for {
		n, err := zr.Read(buf)
		if n > 0 {
			if uint32(len(dst)+n) > maxSize {
				return nil, onecderr.Wrap("blob.Decompress: output too large", onecderr.ErrDecompression)
			}
			dst = append(dst, buf[:n]...)
		}
		if err == io.EOF {
			return dst, nil
		}
		if err != nil {
			return nil, onecderr.Wrap(fmt.Sprintf("blob.Decompress: inflate: %v", err), onecderr.ErrDecompression)
		}
	}
}

// UTF8ToUTF16 decodes a UTF-8-BOM-prefixed byte buffer into UTF-16 code
// units, as table descriptor text and string blobs are stored on disk.
func UTF8ToUTF16(src []byte) ([]uint16, error) {
	if len(src) < 3 || src[0] != 0xEF || src[1] != 0xBB || src[2] != 0xBF {
		return nil, onecderr.Wrap("blob.UTF8ToUTF16: missing BOM", onecderr.ErrEncoding)
	}

	body := src[3:]
	if !utf8.Valid(body) {
		return nil, onecderr.Wrap("blob.UTF8ToUTF16: invalid UTF-8", onecderr.ErrEncoding)
	}

	runes := []rune(string(body))
	return utf16.Encode(runes), nil
}
