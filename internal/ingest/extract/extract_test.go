package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryDispatchesByExtensionAndFallsBackToPlainText(t *testing.T) {
	r := DefaultRegistry()

	res, err := r.Extract("md", []byte("# Title\n\nbody"))
	require.NoError(t, err)
	require.Equal(t, "# Title\n\nbody", res.Text)

	res, err = r.Extract("unknown-ext", []byte("plain body text"))
	require.NoError(t, err)
	require.Equal(t, "plain body text", res.Text)
}

func TestDOCXExtractorReadsRunTextInOrder(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="ns">
  <w:body>
    <w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t> world</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	res, err := DOCXExtractor{}.ExtractText(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "Hello world\nSecond paragraph\n", res.Text)
}

func TestDOCXExtractorRejectsMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = DOCXExtractor{}.ExtractText(buf.Bytes())
	require.Error(t, err)
}

func TestPlainTextExtractorDetectsByExtensionAndMimePrefix(t *testing.T) {
	e := PlainTextExtractor{}
	require.True(t, e.Detect("txt", ""))
	require.True(t, e.Detect("log", ""))
	require.True(t, e.Detect("", "text/plain"))
	require.False(t, e.Detect("pdf", "application/pdf"))
}

func TestNormalizeTextStripsNULsAndRepairsInvalidUTF8(t *testing.T) {
	res, err := PlainTextExtractor{}.ExtractText([]byte("a\x00b"))
	require.NoError(t, err)
	require.Equal(t, "ab", res.Text)

	res, err = PlainTextExtractor{}.ExtractText([]byte{0xff, 'o', 'k'})
	require.NoError(t, err)
	require.NotEmpty(t, res.Text)
}
