package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	text, err := Extract([]byte("hello world"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractTextSubtypes(t *testing.T) {
	for _, mimeType := range []string{"text/markdown", "text/csv", "text/plain; charset=utf-8", "TEXT/PLAIN"} {
		text, err := Extract([]byte("content"), mimeType)
		require.NoError(t, err, "mime type %s", mimeType)
		assert.Equal(t, "content", text)
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	text, err := Extract([]byte{'o', 'k', 0xff, 0xfe, '!'}, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "ok!", text)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	for _, mimeType := range []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"image/png",
		"application/octet-stream",
	} {
		_, err := Extract([]byte("data"), mimeType)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, "mime type %s", mimeType)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	// Not a PDF at all; the parser must fail cleanly, never panic.
	_, err := Extract([]byte("definitely not a pdf"), "application/pdf")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractTruncatedPDF(t *testing.T) {
	// Valid magic bytes, garbage body.
	_, err := Extract([]byte("%PDF-1.7\ngarbage"), "application/pdf")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractEmptyText(t *testing.T) {
	text, err := Extract(nil, "text/plain")
	require.NoError(t, err)
	assert.Empty(t, text)
}
