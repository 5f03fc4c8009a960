// Package file provides the minimal random-access file abstraction the
// rest of the store packages read through.
package file

import (
	"os"

	"github.com/pkg/errors"
)

// Reader is the external collaborator interface spec.md treats as a black
// box: open, sized random-read, close. Nothing above this layer knows
// whether the bytes come from a local file, a memory buffer, or anything
// else.
type Reader interface {
	// Size returns the total byte length of the opened file.
	Size() uint64
	// ReadAt fills dst completely from pos, or returns an error. A short
	// read is always an error — there is no partial-read success.
	ReadAt(dst []byte, pos uint64) error
	// Close releases the underlying handle.
	Close() error
}

// OSFile is a Reader backed by a local, read-only *os.File.
type OSFile struct {
	f    *os.File
	size uint64
}

// Open opens path for random-access reading.
func Open(path string) (*OSFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open database file")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat database file")
	}

	return &OSFile{f: f, size: uint64(info.Size())}, nil
}

func (r *OSFile) Size() uint64 { return r.size }

func (r *OSFile) ReadAt(dst []byte, pos uint64) error {
	n, err := r.f.ReadAt(dst, int64(pos))
	if err != nil {
		return errors.Wrapf(err, "read %d bytes at offset %d", len(dst), pos)
	}
	if n != len(dst) {
		return errors.Errorf("short read: got %d of %d bytes at offset %d", n, len(dst), pos)
	}
	return nil
}

func (r *OSFile) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
