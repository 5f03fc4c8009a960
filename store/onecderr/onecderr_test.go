package onecderr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapReturnsNilForNilErr(t *testing.T) {
	assert.Nil(t, Wrap("op", nil))
}

func TestWrapAnnotatesAndUnwraps(t *testing.T) {
	err := Wrap("pagecache.Open: read header", ErrBadFile)

	assert.True(t, IsBadFile(err))
	assert.False(t, IsInvalidBlob(err))
	assert.Equal(t, "pagecache.Open: read header: onecd: bad file", err.Error())
	assert.Equal(t, ErrBadFile, errors.Unwrap(err))
}

func TestIsPredicatesDistinguishSentinels(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{ErrBadFile, IsBadFile},
		{ErrUnsupportedVersion, IsUnsupportedVersion},
		{ErrInvalidObject, IsInvalidObject},
		{ErrInvalidBlob, IsInvalidBlob},
		{ErrDecompression, IsDecompression},
		{ErrSchema, IsSchema},
		{ErrRowAccess, IsRowAccess},
		{ErrEncoding, IsEncoding},
	}

	for _, c := range cases {
		wrapped := Wrap("op", c.err)
		assert.True(t, c.pred(wrapped))
	}
}

func TestWrapChainsThroughMultipleLevels(t *testing.T) {
	inner := Wrap("object.Open: read header", ErrInvalidObject)
	outer := Wrap("catalog.Open: object", inner)

	assert.True(t, IsInvalidObject(outer))
}
