// Package onecderr defines the error taxonomy shared by every store/*
// package: filesystem errors, open-time errors, and runtime decode errors.
// Programmer-contract violations (use before open, use before seek) are
// not part of this taxonomy — they panic, the way the source's assert()
// calls do.
package onecderr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap with Op to add call-site context; test against
// these with errors.Is.
var (
	// Open-time.
	ErrBadFile            = errors.New("onecd: bad file")
	ErrUnsupportedVersion = errors.New("onecd: unsupported database version")

	// Object / placement table.
	ErrInvalidObject = errors.New("onecd: invalid object")

	// Blob.
	ErrInvalidBlob = errors.New("onecd: invalid blob")

	// Decompression.
	ErrDecompression = errors.New("onecd: decompression failed")

	// Schema / descriptor parsing.
	ErrSchema = errors.New("onecd: schema error")

	// Row access (non-programmer-contract cases only).
	ErrRowAccess = errors.New("onecd: row access error")

	// Encoding.
	ErrEncoding = errors.New("onecd: encoding error")
)

// OpError annotates a sentinel error with the operation that raised it,
// mirroring the teacher's buffer_pool.BufferPoolError.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap returns an *OpError unless err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

func IsBadFile(err error) bool            { return errors.Is(err, ErrBadFile) }
func IsUnsupportedVersion(err error) bool { return errors.Is(err, ErrUnsupportedVersion) }
func IsInvalidObject(err error) bool      { return errors.Is(err, ErrInvalidObject) }
func IsInvalidBlob(err error) bool        { return errors.Is(err, ErrInvalidBlob) }
func IsDecompression(err error) bool      { return errors.Is(err, ErrDecompression) }
func IsSchema(err error) bool             { return errors.Is(err, ErrSchema) }
func IsRowAccess(err error) bool          { return errors.Is(err, ErrRowAccess) }
func IsEncoding(err error) bool           { return errors.Is(err, ErrEncoding) }
