// Package field implements the nine typed column decoders and the
// tagged-union value type they produce.
package field

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/shopspring/decimal"

	"github.com/DenMMM/db-1cd/store/onecderr"
)

// Kind identifies a column's on-disk value encoding.
type Kind int

const (
	Unknown Kind = iota
	Binary
	Boolean
	Digit
	StrFix
	StrVar
	VersionKind
	StrBlob
	BinBlob
	DateTimeKind
)

func (k Kind) String() string {
	switch k {
	case Binary:
		return "binary"
	case Boolean:
		return "boolean"
	case Digit:
		return "digit"
	case StrFix:
		return "str_fix"
	case StrVar:
		return "str_var"
	case VersionKind:
		return "version"
	case StrBlob:
		return "str_blob"
	case BinBlob:
		return "bin_blob"
	case DateTimeKind:
		return "datetime"
	default:
		return "unknown"
	}
}

// Params describes one column's type and layout, as parsed from a table
// descriptor.
type Params struct {
	Name       string
	Type       Kind
	NullExists bool
	Length     int // meaning depends on Type: char count, digit digits, ...
	Precision  int
	CaseSens   bool
}

// Size returns the number of payload bytes Type occupies on disk for this
// column's Length (excluding any leading presence byte).
func (p Params) Size() (int, error) {
	switch p.Type {
	case Binary:
		return p.Length, nil
	case Boolean:
		return 1, nil
	case Digit:
		return (p.Length + 2) / 2, nil
	case StrFix:
		return p.Length * 2, nil
	case StrVar:
		return p.Length*2 + 2, nil
	case VersionKind:
		return 16, nil
	case StrBlob, BinBlob:
		return 8, nil
	case DateTimeKind:
		return 7, nil
	default:
		return 0, onecderr.Wrap(fmt.Sprintf("field.Params.Size: %v", p.Type), onecderr.ErrSchema)
	}
}

// BlobRef is the raw {index, size} reference stored inline for str_blob
// and bin_blob columns. Materializing the referenced bytes is deferred to
// the caller via a blob.Reader.
type BlobRef struct {
	Index uint32
	Size  uint32
}

// Version is the four-u32 "version" column value.
type Version struct {
	V1, V2, V3, V4 uint32
}

// DateTime is the packed year/month/day/hour/minute/second column value.
type DateTime struct {
	Year                            uint16
	Month, Day, Hour, Minute, Second uint8
}

// Value is a tagged-union decoded field value. Present is false when the
// column is nullable and its presence byte was 0 — every typed accessor
// panics if Present is false or Kind doesn't match, mirroring the
// source's assert-before-cast contract.
type Value struct {
	Kind    Kind
	Present bool

	binary   []byte
	boolean  bool
	digit    []byte
	str      string
	version  Version
	blobRef  BlobRef
	datetime DateTime
}

func (v Value) checkKind(k Kind) {
	if v.Kind != k {
		panic(fmt.Sprintf("field: value is %v, not %v", v.Kind, k))
	}
	if !v.Present {
		panic("field: value is null")
	}
}

func (v Value) Binary() []byte     { v.checkKind(Binary); return v.binary }
func (v Value) Boolean() bool      { v.checkKind(Boolean); return v.boolean }
func (v Value) Digit() []byte      { v.checkKind(Digit); return v.digit }
func (v Value) Str() string        { return v.strOf(StrFix, StrVar) }
func (v Value) VersionValue() Version {
	v.checkKind(VersionKind)
	return v.version
}
func (v Value) Blob() BlobRef {
	if v.Kind != StrBlob && v.Kind != BinBlob {
		panic(fmt.Sprintf("field: value is %v, not a blob reference", v.Kind))
	}
	if !v.Present {
		panic("field: value is null")
	}
	return v.blobRef
}
func (v Value) DateTimeValue() DateTime { v.checkKind(DateTimeKind); return v.datetime }

func (v Value) strOf(kinds ...Kind) string {
	ok := false
	for _, k := range kinds {
		if v.Kind == k {
			ok = true
		}
	}
	if !ok {
		panic(fmt.Sprintf("field: value is %v, not a string kind", v.Kind))
	}
	if !v.Present {
		panic("field: value is null")
	}
	return v.str
}

// Decode interprets raw, the column's payload bytes (not including any
// presence byte, which the caller has already consumed), according to
// params.Type.
func Decode(params Params, raw []byte) (Value, error) {
	wantSize, err := params.Size()
	if err != nil {
		return Value{}, err
	}
	if len(raw) != wantSize {
		return Value{}, onecderr.Wrap(fmt.Sprintf("field.Decode: %v: buffer size", params.Type), onecderr.ErrRowAccess)
	}

	switch params.Type {
	case Binary:
		return Value{Kind: Binary, Present: true, binary: append([]byte(nil), raw...)}, nil

	case Boolean:
		return Value{Kind: Boolean, Present: true, boolean: raw[0] != 0}, nil

	case Digit:
		return Value{Kind: Digit, Present: true, digit: append([]byte(nil), raw...)}, nil

	case StrFix:
		return Value{Kind: StrFix, Present: true, str: decodeUTF16LE(raw)}, nil

	case StrVar:
		realLen := binary.LittleEndian.Uint16(raw[0:2])
		if int(realLen) > params.Length {
			return Value{}, onecderr.Wrap("field.Decode: str_var: length", onecderr.ErrRowAccess)
		}
		body := raw[2 : 2+int(realLen)*2]
		return Value{Kind: StrVar, Present: true, str: decodeUTF16LE(body)}, nil

	case VersionKind:
		return Value{Kind: VersionKind, Present: true, version: Version{
			V1: binary.LittleEndian.Uint32(raw[0:4]),
			V2: binary.LittleEndian.Uint32(raw[4:8]),
			V3: binary.LittleEndian.Uint32(raw[8:12]),
			V4: binary.LittleEndian.Uint32(raw[12:16]),
		}}, nil

	case StrBlob, BinBlob:
		return Value{Kind: params.Type, Present: true, blobRef: BlobRef{
			Index: binary.LittleEndian.Uint32(raw[0:4]),
			Size:  binary.LittleEndian.Uint32(raw[4:8]),
		}}, nil

	case DateTimeKind:
		return Value{Kind: DateTimeKind, Present: true, datetime: DateTime{
			Year:   binary.LittleEndian.Uint16(raw[0:2]),
			Month:  raw[2],
			Day:    raw[3],
			Hour:   raw[4],
			Minute: raw[5],
			Second: raw[6],
		}}, nil

	default:
		return Value{}, onecderr.Wrap(fmt.Sprintf("field.Decode: unknown type %v", params.Type), onecderr.ErrSchema)
	}
}

func decodeUTF16LE(raw []byte) string {
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return string(utf16.Decode(units))
}

// DecodeDigitDecimal reinterprets a digit column's packed-BCD payload as a
// decimal.Decimal with the given precision. This is a separate, opt-in
// helper: the core digit decoder above always preserves the raw bytes
// unchanged, since the on-disk packing is ambiguous without knowing the
// column's sign/precision conventions ahead of time.
func DecodeDigitDecimal(raw []byte, precision int) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Zero, onecderr.Wrap("field.DecodeDigitDecimal: empty", onecderr.ErrRowAccess)
	}

	negative := raw[0]&0x80 != 0
	digits := make([]byte, 0, len(raw)*2)
	for i, b := range raw {
		hi := b >> 4
		lo := b & 0x0F
		if i == 0 {
			hi &= 0x07
		}
		digits = append(digits, hi, lo)
	}

	for len(digits) > 1 && digits[0] == 0 {
		digits = digits[1:]
	}

	var intVal int64
	for _, d := range digits {
		if d > 9 {
			return decimal.Zero, onecderr.Wrap("field.DecodeDigitDecimal: nibble", onecderr.ErrRowAccess)
		}
		intVal = intVal*10 + int64(d)
	}
	if negative {
		intVal = -intVal
	}

	return decimal.New(intVal, int32(-precision)), nil
}
