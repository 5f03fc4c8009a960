// Package onecd is the consumer-facing facade over the store/* packages:
// open a .1CD file, list its tables, and read typed rows from one.
package onecd

import (
	"encoding/binary"
	"hash"

	"github.com/OneOfOne/xxhash"

	"github.com/DenMMM/db-1cd/logger"
	"github.com/DenMMM/db-1cd/store/blob"
	"github.com/DenMMM/db-1cd/store/catalog"
	"github.com/DenMMM/db-1cd/store/field"
	"github.com/DenMMM/db-1cd/store/file"
	"github.com/DenMMM/db-1cd/store/object"
	"github.com/DenMMM/db-1cd/store/onecderr"
	"github.com/DenMMM/db-1cd/store/pagecache"
	"github.com/DenMMM/db-1cd/store/record"
)

// Database is an opened .1CD file: its page cache and root catalog.
type Database struct {
	file  *file.OSFile
	pages *pagecache.Cache
	root  *catalog.Root
}

// Open opens path and builds the root catalog. cacheSize is the number of
// resident pages kept by the page cache.
func Open(path string, cacheSize int) (*Database, error) {
	f, err := file.Open(path)
	if err != nil {
		return nil, onecderr.Wrap("onecd.Open", err)
	}

	pages, err := pagecache.Open(f, cacheSize)
	if err != nil {
		f.Close()
		return nil, onecderr.Wrap("onecd.Open", err)
	}

	root, err := catalog.Open(pages)
	if err != nil {
		f.Close()
		return nil, onecderr.Wrap("onecd.Open", err)
	}

	return &Database{file: f, pages: pages, root: root}, nil
}

// Close releases the underlying file handle.
func (db *Database) Close() error {
	return db.file.Close()
}

// Tables returns the number of table descriptors in the catalog.
func (db *Database) Tables() uint32 { return db.root.Size() }

// Table returns the parsed descriptor of table i.
func (db *Database) Table(i uint32) (catalog.TableParams, error) {
	t, err := db.root.Get(i)
	if err != nil {
		return t, err
	}
	logger.Infof("onecd: opened table %q (%d columns)", t.Name, len(t.Columns))
	return t, nil
}

// Records opens a RecordStream over table t's records object.
func (db *Database) Records(t catalog.TableParams) (*record.Stream, error) {
	stream, err := object.Open(db.pages, t.IRecords)
	if err != nil {
		return nil, onecderr.Wrap("onecd.Records: object", err)
	}
	return record.Open(stream, t.Columns)
}

// BlobReader opens a blob.Reader over table t's blob object, for
// materializing str_blob/bin_blob field references.
func (db *Database) BlobReader(t catalog.TableParams) (*blob.Reader, error) {
	stream, err := object.Open(db.pages, t.IBlob)
	if err != nil {
		return nil, onecderr.Wrap("onecd.BlobReader: object", err)
	}
	return blob.Open(stream)
}

// TableChecksum hashes every row of rs (deleted rows included, by their
// raw deletion flag) into a single xxhash64 digest — a cheap way for an
// external tool to notice a table changed between two reads without
// diffing every field.
func TableChecksum(rs *record.Stream, numColumns uint32) (uint64, error) {
	h := xxhash.New64()

	n := rs.Size()
	for i := uint32(0); i < n; i++ {
		if err := rs.Seek(i); err != nil {
			return 0, onecderr.Wrap("onecd.TableChecksum: seek", err)
		}

		deleted := byte(0)
		if rs.IsDeleted() {
			deleted = 1
			h.Write([]byte{deleted})
			continue
		}
		h.Write([]byte{deleted})

		for col := uint32(0); col < numColumns; col++ {
			v, err := rs.GetField(col)
			if err != nil {
				return 0, onecderr.Wrap("onecd.TableChecksum: field", err)
			}
			hashValue(h, v)
		}
	}

	return h.Sum64(), nil
}

func hashValue(h hash.Hash64, v field.Value) {
	if !v.Present {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte{1})

	switch v.Kind {
	case field.Binary:
		h.Write(v.Binary())
	case field.Boolean:
		if v.Boolean() {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case field.Digit:
		h.Write(v.Digit())
	case field.StrFix, field.StrVar:
		h.Write([]byte(v.Str()))
	case field.VersionKind:
		ver := v.VersionValue()
		var buf [16]byte
		binary.LittleEndian.PutUint32(buf[0:4], ver.V1)
		binary.LittleEndian.PutUint32(buf[4:8], ver.V2)
		binary.LittleEndian.PutUint32(buf[8:12], ver.V3)
		binary.LittleEndian.PutUint32(buf[12:16], ver.V4)
		h.Write(buf[:])
	case field.StrBlob, field.BinBlob:
		ref := v.Blob()
		var buf [8]byte
		binary.LittleEndian.PutUint32(buf[0:4], ref.Index)
		binary.LittleEndian.PutUint32(buf[4:8], ref.Size)
		h.Write(buf[:])
	case field.DateTimeKind:
		dt := v.DateTimeValue()
		var buf [7]byte
		binary.LittleEndian.PutUint16(buf[0:2], dt.Year)
		buf[2], buf[3], buf[4], buf[5], buf[6] = dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second
		h.Write(buf[:])
	}
}

// BlobChecksum hashes the materialized bytes of blob index in br into an
// xxhash64 digest.
func BlobChecksum(br *blob.Reader, index uint32) (uint64, error) {
	data, err := br.Get(index, 0)
	if err != nil {
		return 0, onecderr.Wrap("onecd.BlobChecksum", err)
	}

	h := xxhash.New64()
	h.Write(data)
	return h.Sum64(), nil
}
