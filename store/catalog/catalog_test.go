package catalog

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DenMMM/db-1cd/store/field"
	"github.com/DenMMM/db-1cd/store/pagecache"
)

func TestParseParamsMatchesWorkedExample(t *testing.T) {
	descr := `{"USERS"}{"ID","N",0,9,0,"CS"}{"NAME","NVC",1,50,0,"CI"}{"Recordlock","0"}{"Files",17,18,19}`

	got, err := ParseParams(descr)
	require.NoError(t, err)

	want := TableParams{
		Name: "USERS",
		Columns: []field.Params{
			{Name: "ID", Type: field.Digit, NullExists: false, Length: 9, Precision: 0, CaseSens: true},
			{Name: "NAME", Type: field.StrVar, NullExists: true, Length: 50, Precision: 0, CaseSens: false},
		},
		RecordLock: false,
		IRecords:   17,
		IBlob:      18,
		IIndexes:   19,
	}
	assert.Equal(t, want, got)
}

func TestParseNameRejectsMissingGroup(t *testing.T) {
	_, err := ParseName(`not a descriptor at all`)
	assert.Error(t, err)
}

func TestParseNameIgnoresTrailingContentInFirstGroup(t *testing.T) {
	// The name group is always the first one in the descriptor; the match
	// stops at the name's closing quote, so whatever else the first group
	// carries after it is not part of the name.
	name, err := ParseName(`{"USERS","x",1}{"Recordlock","0"}`)
	require.NoError(t, err)
	assert.Equal(t, "USERS", name)
}

func TestParseLockAcceptsSetFlag(t *testing.T) {
	locked, err := ParseLock(`{"USERS"}{"Recordlock","1"}{"Files",1,2,3}`)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestParseFieldsRejectsUnknownType(t *testing.T) {
	_, err := ParseFields(`{"X","ZZ",0,1,0,"CS"}`)
	assert.Error(t, err)
}

type memFile struct{ data []byte }

func (f *memFile) Size() uint64 { return uint64(len(f.data)) }
func (f *memFile) ReadAt(dst []byte, pos uint64) error {
	copy(dst, f.data[pos:pos+uint64(len(dst))])
	return nil
}
func (f *memFile) Close() error { return nil }

const catPageSize = 4096

func makeBlockBytes(next uint32, length uint16, body []byte) []byte {
	b := make([]byte, 256)
	binary.LittleEndian.PutUint32(b[0:4], next)
	binary.LittleEndian.PutUint16(b[4:6], length)
	copy(b[6:6+len(body)], body)
	return b
}

// buildRootFixture lays out a v8.2.14 image whose object at index 2 (the
// fixed root object index) is a single-level ObjectStream over a data page
// holding three 256-byte blob blocks: block 0 unused (blob index 0 is
// never dereferenced), block 1 is the root header, block 2 is one table
// descriptor's text.
func buildRootFixture(descr string) []byte {
	header := make([]byte, 40) // 32-byte lang + numTables(1) + one table index
	binary.LittleEndian.PutUint32(header[32:36], 1)
	binary.LittleEndian.PutUint32(header[36:40], 2) // table 0's descriptor lives at blob index 2

	body := append([]byte{0xEF, 0xBB, 0xBF}, []byte(descr)...)

	blocks := make([]byte, 0, 768)
	blocks = append(blocks, makeBlockBytes(0, 0, nil)...)                  // index 0, unused
	blocks = append(blocks, makeBlockBytes(0, uint16(len(header)), header)...)
	blocks = append(blocks, makeBlockBytes(0, uint16(len(body)), body)...)

	// pages: 0, 1 unused; 2 = root object header (rootObjectIndex); 3 = its data page
	data := make([]byte, uint64(catPageSize)*4)
	copy(data[0:8], "1CDBMSV8")
	binary.LittleEndian.PutUint32(data[8:12], uint32(pagecache.Version8214))
	binary.LittleEndian.PutUint32(data[12:16], 4)
	binary.LittleEndian.PutUint32(data[20:24], catPageSize)

	objHdr := data[2*catPageSize : 3*catPageSize]
	binary.LittleEndian.PutUint64(objHdr[0:8], uint64(len(blocks)))
	binary.LittleEndian.PutUint32(objHdr[8:12], 3)

	objData := data[3*catPageSize : 4*catPageSize]
	copy(objData, blocks)

	return data
}

func TestRootOpenReadsCatalog(t *testing.T) {
	descr := `{"USERS"}{"ID","N",0,9,0,"CS"}{"Recordlock","0"}{"Files",17,18,19}`
	data := buildRootFixture(descr)

	pc, err := pagecache.Open(&memFile{data: data}, 8)
	require.NoError(t, err)

	root, err := Open(pc)
	require.NoError(t, err)
	assert.EqualValues(t, 1, root.Size())

	tbl, err := root.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "USERS", tbl.Name)
	assert.EqualValues(t, 17, tbl.IRecords)
	assert.EqualValues(t, 18, tbl.IBlob)
	assert.EqualValues(t, 19, tbl.IIndexes)
}
