// Package catalog implements RootCatalog: the table of table descriptors
// stored as text inside a well-known blob object, and the four patterns
// (only the name pattern anchored at the start) used to parse one
// descriptor into column metadata.
package catalog

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf16"

	"github.com/DenMMM/db-1cd/store/blob"
	"github.com/DenMMM/db-1cd/store/field"
	"github.com/DenMMM/db-1cd/store/object"
	"github.com/DenMMM/db-1cd/store/onecderr"
	"github.com/DenMMM/db-1cd/store/pagecache"
)

// rootObjectIndex is the fixed page index of the object that carries the
// root catalog's blob stream.
const rootObjectIndex = 2

const rootHeaderIndex = 1

var (
	// nameRe is anchored: the table name is always the first group in a
	// descriptor, so matching at the true start of the string is both
	// correct and unambiguous about which quoted token is the name,
	// unlike the other three groups below.
	nameRe   = regexp.MustCompile(`^\{"([^"]+)"`)
	fieldsRe = regexp.MustCompile(`\{"([^"]+)","([^"]+)",([0-9]+),([0-9]+),([0-9]+),"([^"]+)"\}`)
	lockRe   = regexp.MustCompile(`\{"Recordlock","([0-9])"\}`)
	filesRe  = regexp.MustCompile(`\{"Files",([0-9]+),([0-9]+),([0-9]+)\}`)
)

var valueTypes = map[string]field.Kind{
	"B":   field.Binary,
	"L":   field.Boolean,
	"N":   field.Digit,
	"NC":  field.StrFix,
	"NVC": field.StrVar,
	"RV":  field.VersionKind,
	"NT":  field.StrBlob,
	"I":   field.BinBlob,
	"DT":  field.DateTimeKind,
}

var caseSens = map[string]bool{
	"CS": true,
	"CI": false,
}

// TableParams is a table's descriptor: name, column layout, and the
// object indices of its records/blob/index streams.
type TableParams struct {
	Name       string
	Columns    []field.Params
	RecordLock bool
	IRecords   uint32
	IBlob      uint32
	IIndexes   uint32
}

// Root is the v8.3.8-style root catalog: a blob reader over the
// well-known root object, holding the blob index of each table's
// descriptor, in catalog order.
type Root struct {
	blobs     *blob.Reader
	lang      [32]byte
	numTables uint32
	tables    []uint32
}

// Open constructs the root catalog over pc.
func Open(pc *pagecache.Cache) (*Root, error) {
	stream, err := object.Open(pc, rootObjectIndex)
	if err != nil {
		return nil, onecderr.Wrap("catalog.Open: object", err)
	}

	reader, err := blob.Open(stream)
	if err != nil {
		return nil, onecderr.Wrap("catalog.Open: blob", err)
	}

	hdrData, err := reader.Get(rootHeaderIndex, 0)
	if err != nil {
		return nil, onecderr.Wrap("catalog.Open: header blob", err)
	}

	const rootHdrSize = 32 + 4
	if len(hdrData) < rootHdrSize {
		return nil, onecderr.Wrap("catalog.Open: header size", onecderr.ErrInvalidObject)
	}

	numTables := binary.LittleEndian.Uint32(hdrData[32:36])
	wantSize := rootHdrSize + int(numTables)*4
	if len(hdrData) != wantSize {
		return nil, onecderr.Wrap("catalog.Open: table count", onecderr.ErrInvalidObject)
	}

	r := &Root{blobs: reader, numTables: numTables}
	copy(r.lang[:], hdrData[0:32])

	r.tables = make([]uint32, numTables)
	for i := range r.tables {
		off := rootHdrSize + i*4
		r.tables[i] = binary.LittleEndian.Uint32(hdrData[off : off+4])
	}

	return r, nil
}

// Size returns the number of table descriptors.
func (r *Root) Size() uint32 { return r.numTables }

// Read returns the UTF-16 decoding of table descriptor i's raw text.
func (r *Root) Read(i uint32) ([]uint16, error) {
	if i >= r.numTables {
		return nil, onecderr.Wrap("catalog.Read: index", onecderr.ErrRowAccess)
	}

	raw, err := r.blobs.Get(r.tables[i], 0)
	if err != nil {
		return nil, onecderr.Wrap("catalog.Read: blob", err)
	}

	units, err := blob.UTF8ToUTF16(raw)
	if err != nil {
		return nil, onecderr.Wrap("catalog.Read: decode", err)
	}
	return units, nil
}

// Get returns table descriptor i, parsed into TableParams.
func (r *Root) Get(i uint32) (TableParams, error) {
	units, err := r.Read(i)
	if err != nil {
		return TableParams{}, err
	}
	return ParseParams(string(utf16.Decode(units)))
}

// ParseName extracts the table name from the leading {"Name"} group.
func ParseName(descr string) (string, error) {
	m := nameRe.FindStringSubmatch(descr)
	if m == nil {
		return "", onecderr.Wrap("catalog.ParseName: not found", onecderr.ErrSchema)
	}
	return m[1], nil
}

// ParseFields extracts every column descriptor group.
func ParseFields(descr string) ([]field.Params, error) {
	matches := fieldsRe.FindAllStringSubmatch(descr, -1)
	result := make([]field.Params, 0, len(matches))

	for _, m := range matches {
		kind, ok := valueTypes[m[2]]
		if !ok {
			return nil, onecderr.Wrap(fmt.Sprintf("catalog.ParseFields: type %q", m[2]), onecderr.ErrSchema)
		}

		nullExists, err := strconv.ParseUint(m[3], 10, 32)
		if err != nil {
			return nil, onecderr.Wrap("catalog.ParseFields: null_exists", onecderr.ErrSchema)
		}
		length, err := strconv.ParseUint(m[4], 10, 32)
		if err != nil {
			return nil, onecderr.Wrap("catalog.ParseFields: length", onecderr.ErrSchema)
		}
		precision, err := strconv.ParseUint(m[5], 10, 32)
		if err != nil {
			return nil, onecderr.Wrap("catalog.ParseFields: precision", onecderr.ErrSchema)
		}

		cs, ok := caseSens[m[6]]
		if !ok {
			return nil, onecderr.Wrap(fmt.Sprintf("catalog.ParseFields: case_sens %q", m[6]), onecderr.ErrSchema)
		}

		result = append(result, field.Params{
			Name:       m[1],
			Type:       kind,
			NullExists: nullExists != 0,
			Length:     int(length),
			Precision:  int(precision),
			CaseSens:   cs,
		})
	}

	return result, nil
}

// ParseLock extracts the {"Recordlock","0"|"1"} flag.
func ParseLock(descr string) (bool, error) {
	m := lockRe.FindStringSubmatch(descr)
	if m == nil {
		return false, onecderr.Wrap("catalog.ParseLock: not found", onecderr.ErrSchema)
	}
	return m[1] == "1", nil
}

// ParseFiles extracts the {"Files",records,blob,indexes} object indices.
func ParseFiles(descr string) ([3]uint32, error) {
	var result [3]uint32

	m := filesRe.FindStringSubmatch(descr)
	if m == nil {
		return result, onecderr.Wrap("catalog.ParseFiles: not found", onecderr.ErrSchema)
	}

	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(m[i+1], 10, 32)
		if err != nil {
			return result, onecderr.Wrap("catalog.ParseFiles: value", onecderr.ErrSchema)
		}
		result[i] = uint32(v)
	}

	return result, nil
}

// ParseParams parses a full table descriptor into TableParams.
func ParseParams(descr string) (TableParams, error) {
	name, err := ParseName(descr)
	if err != nil {
		return TableParams{}, err
	}
	columns, err := ParseFields(descr)
	if err != nil {
		return TableParams{}, err
	}
	recordLock, err := ParseLock(descr)
	if err != nil {
		return TableParams{}, err
	}
	files, err := ParseFiles(descr)
	if err != nil {
		return TableParams{}, err
	}

	return TableParams{
		Name:       name,
		Columns:    columns,
		RecordLock: recordLock,
		IRecords:   files[0],
		IBlob:      files[1],
		IIndexes:   files[2],
	}, nil
}
