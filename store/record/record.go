// Package record implements RecordStream: a fixed-stride row layout over
// an ObjectStream, with seek/deletion/typed-field access.
package record

import (
	"fmt"

	"github.com/DenMMM/db-1cd/store/field"
	"github.com/DenMMM/db-1cd/store/object"
	"github.com/DenMMM/db-1cd/store/onecderr"
)

type columnLayout struct {
	params field.Params
	shift  int // byte offset of this column within a row, deletion flag included
	size   int // byte size including the presence byte, if nullable
}

// Stream presents one table's rows as fixed-stride records over an
// ObjectStream.
type Stream struct {
	stream  *object.Stream
	columns []columnLayout
	index   map[string]uint32

	stride  int
	count   uint32
	row     []byte
	lastSet bool
	last    uint32
}

// Open builds a RecordStream over stream, laying out columns per the
// column parameters in the order given.
func Open(stream *object.Stream, columns []field.Params) (*Stream, error) {
	if len(columns) > 0xFFFFFFFF {
		return nil, onecderr.Wrap("record.Open: columns", onecderr.ErrSchema)
	}

	s := &Stream{stream: stream, index: make(map[string]uint32, len(columns))}

	shift := 1 // byte 0 is the deletion flag
	layouts := make([]columnLayout, 0, len(columns))
	for i, p := range columns {
		size, err := p.Size()
		if err != nil {
			return nil, err
		}
		if p.NullExists {
			size++
		}

		layouts = append(layouts, columnLayout{params: p, shift: shift, size: size})
		s.index[p.Name] = uint32(i)
		shift += size
	}

	const minRecSize = 1 + 4 // deletion flag + free-chain index
	if shift < minRecSize {
		shift = minRecSize
	}
	s.stride = shift
	s.columns = layouts

	objSize := stream.Size()
	if objSize%uint64(s.stride) != 0 {
		return nil, onecderr.Wrap("record.Open: object size", onecderr.ErrInvalidObject)
	}
	count := objSize / uint64(s.stride)
	if count > 0xFFFFFFFF {
		return nil, onecderr.Wrap("record.Open: record count", onecderr.ErrInvalidObject)
	}
	s.count = uint32(count)
	s.row = make([]byte, s.stride)

	return s, nil
}

// Size returns the number of rows in the stream.
func (s *Stream) Size() uint32 { return s.count }

// FieldIndex returns the column index for name.
func (s *Stream) FieldIndex(name string) (uint32, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, onecderr.Wrap(fmt.Sprintf("record.FieldIndex: %q", name), onecderr.ErrSchema)
	}
	return i, nil
}

// Seek reads row i into the stream's row buffer. A no-op if i is already
// the last successfully seeked row.
func (s *Stream) Seek(i uint32) error {
	if i >= s.count {
		return onecderr.Wrap("record.Seek: index", onecderr.ErrRowAccess)
	}
	if s.lastSet && s.last == i {
		return nil
	}

	s.lastSet = false
	if err := s.stream.Read(s.row, uint64(s.stride)*uint64(i)); err != nil {
		return onecderr.Wrap("record.Seek: read", err)
	}
	s.lastSet = true
	s.last = i
	return nil
}

// IsDeleted reports whether the currently seeked row is marked deleted.
// Must follow a successful Seek.
func (s *Stream) IsDeleted() bool {
	if !s.lastSet {
		panic("record: IsDeleted before a successful Seek")
	}
	return s.row[0] == 1
}

// GetField decodes column i of the currently seeked, non-deleted row.
// Must follow a successful Seek; panics if the row is deleted, mirroring
// the source's assert-before-cast contract.
func (s *Stream) GetField(i uint32) (field.Value, error) {
	if !s.lastSet {
		panic("record: GetField before a successful Seek")
	}
	if s.IsDeleted() {
		panic("record: GetField on a deleted row")
	}

	if int(i) >= len(s.columns) {
		return field.Value{}, onecderr.Wrap("record.GetField: index", onecderr.ErrRowAccess)
	}
	col := s.columns[i]

	buf := s.row[col.shift : col.shift+col.size]

	if col.params.NullExists {
		if buf[0] == 0 {
			return field.Value{Kind: col.params.Type, Present: false}, nil
		}
		buf = buf[1:]
	}

	return field.Decode(col.params, buf)
}
