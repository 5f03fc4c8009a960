// Package object implements ObjectStream: a logical byte stream laid out
// over a set of pages via a version-specific placement table.
package object

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/DenMMM/db-1cd/logger"
	"github.com/DenMMM/db-1cd/store/onecderr"
	"github.com/DenMMM/db-1cd/store/pagecache"
)

const (
	v83HeaderSize = 2 + 2 + 4 + 4 + 4 + 8 // type, pmt_type, 3x reserved, length
	v82HeaderSize = 8                     // length u64
	indexSize     = 4
)

// Stream is a logical byte stream over an ObjectStream's data pages. The
// placement-table resolution strategy (single-level for 8.2.14, one- or
// two-level for 8.3.8) is captured once at construction as a closure,
// instead of branching on version on every read.
type Stream struct {
	pc     *pagecache.Cache
	hdr    []byte
	length uint64

	// pageNumToIndex resolves a logical page number within this stream to
	// a physical page index in pc.
	pageNumToIndex func(pageNum uint32) (uint32, error)
}

// Size returns the stream's logical byte length.
func (s *Stream) Size() uint64 { return s.length }

// Open constructs an ObjectStream over the object whose header page is
// index within pc, dispatching on pc's format version.
func Open(pc *pagecache.Cache, index uint32) (*Stream, error) {
	switch pc.Version() {
	case pagecache.Version8214:
		return openV82(pc, index)
	case pagecache.Version8308:
		return openV83(pc, index)
	default:
		return nil, onecderr.Wrap("object.Open", onecderr.ErrUnsupportedVersion)
	}
}

func openV82(pc *pagecache.Cache, index uint32) (*Stream, error) {
	pageSize := uint64(pc.PageSize())
	if pageSize < v82HeaderSize {
		return nil, onecderr.Wrap("object.Open: page size", onecderr.ErrInvalidObject)
	}

	hdr := make([]byte, pageSize)
	if err := pc.Read(hdr, index, pageSize, 0); err != nil {
		return nil, onecderr.Wrap("object.Open: read header", err)
	}

	length := binary.LittleEndian.Uint64(hdr[0:8])
	pagesCount := length / pageSize
	if length%pageSize != 0 {
		pagesCount++
	}
	if pagesCount > uint64(pc.Size()) {
		return nil, onecderr.Wrap("object.Open: size", onecderr.ErrInvalidObject)
	}

	recordsInHdr := (pageSize - v82HeaderSize) / indexSize
	logger.Debugf("object.Open: header index=%d single-level placement, %d slots", index, recordsInHdr)

	s := &Stream{pc: pc, hdr: hdr, length: length}
	s.pageNumToIndex = func(pn uint32) (uint32, error) {
		if uint64(pn) >= recordsInHdr {
			return 0, onecderr.Wrap("object.read: page number", onecderr.ErrInvalidObject)
		}
		off := v82HeaderSize + int(pn)*indexSize
		return binary.LittleEndian.Uint32(s.hdr[off : off+4]), nil
	}
	return s, nil
}

func openV83(pc *pagecache.Cache, index uint32) (*Stream, error) {
	pageSize := uint64(pc.PageSize())
	if pageSize < v83HeaderSize {
		return nil, onecderr.Wrap("object.Open: page size", onecderr.ErrInvalidObject)
	}

	hdr := make([]byte, pageSize)
	if err := pc.Read(hdr, index, pageSize, 0); err != nil {
		return nil, onecderr.Wrap("object.Open: read header", err)
	}

	objType := binary.LittleEndian.Uint16(hdr[0:2])
	pmtType := binary.LittleEndian.Uint16(hdr[2:4])
	length := binary.LittleEndian.Uint64(hdr[16:24])

	if objType != 0xFD1C || (pmtType != 0 && pmtType != 1) {
		return nil, onecderr.Wrap("object.Open: type", onecderr.ErrInvalidObject)
	}

	pagesCount := length / pageSize
	if length%pageSize != 0 {
		pagesCount++
	}
	if pagesCount > uint64(pc.Size()) {
		return nil, onecderr.Wrap("object.Open: size", onecderr.ErrInvalidObject)
	}

	recordsInHdr := (pageSize - v83HeaderSize) / indexSize
	recordsInPmt := pageSize / indexSize

	s := &Stream{pc: pc, hdr: hdr, length: length}

	if pmtType == 0 {
		logger.Debugf("object.Open: header index=%d single-level placement, %d slots", index, recordsInHdr)
		s.pageNumToIndex = func(pn uint32) (uint32, error) {
			if uint64(pn) >= recordsInHdr {
				return 0, onecderr.Wrap("object.read: page number", onecderr.ErrInvalidObject)
			}
			off := v83HeaderSize + int(pn)*indexSize
			return binary.LittleEndian.Uint32(s.hdr[off : off+4]), nil
		}
	} else {
		logger.Debugf("object.Open: header index=%d two-level placement, %d pmt pages", index, recordsInHdr)
		s.pageNumToIndex = func(pn uint32) (uint32, error) {
			pmtPageNum := uint64(pn) / recordsInPmt
			if pmtPageNum >= recordsInHdr {
				return 0, onecderr.Wrap("object.read: page number exceeds placement table", onecderr.ErrInvalidObject)
			}
			off := v83HeaderSize + int(pmtPageNum)*indexSize
			pmtPageIndex := binary.LittleEndian.Uint32(s.hdr[off : off+4])

			logger.Debugf("object.read: page %d resolves via pmt page %d (index %d)", pn, pmtPageNum, pmtPageIndex)

			pmtPage, err := pc.View(pmtPageIndex, pageSize, 0)
			if err != nil {
				return 0, onecderr.Wrap("object.read: view placement page", err)
			}

			pmtRecordNum := uint64(pn) % recordsInPmt
			recOff := int(pmtRecordNum) * indexSize
			return binary.LittleEndian.Uint32(pmtPage[recOff : recOff+4]), nil
		}
	}

	return s, nil
}

// Read fills dst with count bytes of the stream's logical content
// starting at pos.
func (s *Stream) Read(dst []byte, pos uint64) error {
	count := uint64(len(dst))

	if pos >= s.length || pos+count > s.length || pos+count < pos {
		return onecderr.Wrap("object.Read: bounds", onecderr.ErrInvalidObject)
	}

	pageSize := uint64(s.pc.PageSize())
	pageNum := uint32(pos / pageSize)
	posInPage := pos % pageSize

	written := uint64(0)
	for count > 0 {
		toRead := pageSize - posInPage
		if count < toRead {
			toRead = count
		}

		pageIndex, err := s.pageNumToIndex(pageNum)
		if err != nil {
			return err
		}

		if err := s.pc.Read(dst[written:written+toRead], pageIndex, toRead, posInPage); err != nil {
			return errors.Wrap(err, "object.Read: read page")
		}

		written += toRead
		count -= toRead
		posInPage = 0
		pageNum++
	}

	return nil
}
