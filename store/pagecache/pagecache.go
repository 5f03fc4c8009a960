// Package pagecache implements the paged, 2Q-cached view over a 1CD file:
// header validation at open time and bounds-checked page reads afterward.
package pagecache

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/DenMMM/db-1cd/logger"
	"github.com/DenMMM/db-1cd/store/cache"
	"github.com/DenMMM/db-1cd/store/file"
	"github.com/DenMMM/db-1cd/store/onecderr"
)

const headerSize = 8 + 4 + 4 + 4 + 4 // sig[8], version, length, unknown, page_size

// Version identifies the on-disk format revision, decoded from the
// header's version field.
type Version uint32

const (
	Version8214 Version = 0x000E0208
	Version8308 Version = 0x00080308
)

type header struct {
	sig      [8]byte
	version  Version
	length   uint32 // file length, in pages
	unknown  uint32
	pageSize uint32
}

// Cache is a paged, random-access view over a 1CD file, backed by a 2Q
// replacement cache sized in pages.
type Cache struct {
	f   file.Reader
	hdr header

	poolSize int
	pool     [][]byte // free page-sized buffers
	queue    *cache.TwoQ[uint32, []byte]
}

// Open validates the file header and builds a Cache holding up to
// cacheSize resident pages.
func Open(f file.Reader, cacheSize int) (*Cache, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}

	var raw [headerSize]byte
	if err := f.ReadAt(raw[:], 0); err != nil {
		return nil, onecderr.Wrap("pagecache.Open: read header", err)
	}

	var hdr header
	copy(hdr.sig[:], raw[0:8])
	hdr.version = Version(binary.LittleEndian.Uint32(raw[8:12]))
	hdr.length = binary.LittleEndian.Uint32(raw[12:16])
	hdr.unknown = binary.LittleEndian.Uint32(raw[16:20])
	hdr.pageSize = binary.LittleEndian.Uint32(raw[20:24])

	if string(hdr.sig[:]) != "1CDBMSV8" {
		return nil, onecderr.Wrap("pagecache.Open", onecderr.ErrBadFile)
	}

	switch hdr.version {
	case Version8214:
		hdr.pageSize = 4096 // fixed page size in 8.2.14
	case Version8308:
		switch hdr.pageSize {
		case 4096, 8192, 16384, 32768, 65536:
		default:
			return nil, onecderr.Wrap("pagecache.Open: page size", onecderr.ErrBadFile)
		}
	default:
		return nil, onecderr.Wrap("pagecache.Open", onecderr.ErrUnsupportedVersion)
	}

	fileSize := f.Size()
	pageSize := uint64(hdr.pageSize)

	if hdr.length == 0 || fileSize%pageSize != 0 || fileSize/pageSize != uint64(hdr.length) {
		return nil, onecderr.Wrap("pagecache.Open: length", onecderr.ErrBadFile)
	}

	poolSize := cacheSize + 1
	pool := make([][]byte, poolSize)
	for i := range pool {
		pool[i] = make([]byte, hdr.pageSize)
	}

	return &Cache{
		f:        f,
		hdr:      hdr,
		poolSize: poolSize,
		pool:     pool,
		queue:    cache.NewTwoQ[uint32, []byte](cacheSize),
	}, nil
}

func (c *Cache) Version() Version { return c.hdr.version }
func (c *Cache) PageSize() uint32 { return c.hdr.pageSize }
func (c *Cache) Size() uint32     { return c.hdr.length }

// View returns a slice of count bytes at offset pos within page index,
// backed by a page buffer of the pool. The returned slice is only valid
// until the next View or Read call on c: the buffer may already be back in
// the pool (a page can be evicted by the same call that loaded it), and the
// next miss overwrites it.
func (c *Cache) View(index uint32, count, pos uint64) ([]byte, error) {
	if index == 0 || index >= c.hdr.length {
		return nil, onecderr.Wrap("pagecache.View: index", onecderr.ErrInvalidObject)
	}

	pageSize := uint64(c.hdr.pageSize)

	if pos >= pageSize || pos+count > pageSize || pos+count < pos {
		return nil, onecderr.Wrap("pagecache.View: bounds", onecderr.ErrInvalidObject)
	}

	if page, ok := c.queue.Find(index); ok {
		return page[pos : pos+count], nil
	}

	logger.Debugf("pagecache: miss on page %d", index)

	if len(c.pool) == 0 {
		return nil, errors.New("pagecache: no pages left in pool")
	}

	page := c.pool[len(c.pool)-1]

	filePos := pageSize * uint64(index)
	if err := c.f.ReadAt(page, filePos); err != nil {
		return nil, onecderr.Wrap("pagecache.View: read page", err)
	}

	c.pool = c.pool[:len(c.pool)-1]

	if evicted, ok := c.queue.Push(index, page); ok {
		c.pool = append(c.pool, evicted.Value)
	}

	return page[pos : pos+count], nil
}

// Read copies count bytes at offset pos within page index into dst.
func (c *Cache) Read(dst []byte, index uint32, count, pos uint64) error {
	view, err := c.View(index, count, pos)
	if err != nil {
		return err
	}
	copy(dst, view)
	return nil
}
