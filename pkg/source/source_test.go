package source

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)
	f, err = w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Article 1</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">(1) Every person </w:t></w:r><w:r><w:t>has rights.</w:t></w:r></w:p>
<w:p><w:r><w:tab/><w:t>a. first point;</w:t></w:r></w:p>
<w:p></w:p>
</w:body></w:document>`

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want Kind
	}{
		{"text pdf", "a.bin", []byte("%PDF-1.7\n1 0 obj << /Font /F1 >>"), KindTextPDF},
		{"scanned pdf", "a.pdf", []byte("%PDF-1.4\n1 0 obj << /Subtype /Image >>"), KindScannedPDF},
		{"docx", "x", []byte("PK\x03\x04....word/document.xml...."), KindWordDocument},
		{"other zip", "x.zip", []byte("PK\x03\x04....xl/workbook.xml"), KindUnknown},
		{"txt extension", "law.txt", []byte("Article 1"), KindPlainText},
		{"pdf extension without magic", "law.pdf", []byte("garbage"), KindTextPDF},
		{"unknown extension but textual", "law.md", []byte("Pasal 1"), KindPlainText},
		{"binary", "blob.bin", []byte{0x00, 0x01, 0x02}, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.file, tt.data))
		})
	}
}

func TestKindStringAndParse(t *testing.T) {
	for k := range kindNames {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("spreadsheet")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestExtract_PlainText(t *testing.T) {
	text, err := NewExtractor().Extract(context.Background(), []byte("\xEF\xBB\xBFArticle 1\r\n(1) Text.  \r\n"), KindPlainText)
	require.NoError(t, err)
	assert.Equal(t, "Article 1\n(1) Text.\n", text)
}

func TestExtract_Windows1252Fallback(t *testing.T) {
	// 0xE9 is "é" in Windows-1252 and invalid on its own in UTF-8.
	text, err := NewExtractor().Extract(context.Background(), []byte("R\xE9sum\xE9"), KindPlainText)
	require.NoError(t, err)
	assert.Equal(t, "R\u00e9sum\u00e9", text)
}

func TestExtract_UTF16(t *testing.T) {
	data := []byte{0xFF, 0xFE, 'P', 0, 'a', 0, 's', 0, 'a', 0, 'l', 0}
	text, err := NewExtractor().Extract(context.Background(), data, KindPlainText)
	require.NoError(t, err)
	assert.Equal(t, "Pasal", text)
}

func TestExtract_Docx(t *testing.T) {
	text, err := NewExtractor().Extract(context.Background(), buildDocx(t, sampleDocument), KindWordDocument)
	require.NoError(t, err)
	assert.Equal(t, "Article 1\n(1) Every person has rights.\n\ta. first point;\n", text)
}

func TestExtract_DocxMissingBody(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, err := w.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = NewExtractor().Extract(context.Background(), buf.Bytes(), KindWordDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml not found")
}

func TestExtract_NoContent(t *testing.T) {
	ctx := context.Background()

	_, err := NewExtractor().Extract(ctx, []byte("%PDF-1.4"), KindScannedPDF)
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = NewExtractor().Extract(ctx, []byte("  \n\t\n"), KindPlainText)
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = NewExtractor().Extract(ctx, []byte("x"), KindUnknown)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestExtract_InvalidPDF(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), []byte("%PDF-1.4 not really"), KindTextPDF)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoContent)
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractor().Extract(ctx, []byte("Article 1"), KindPlainText)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte(`BT
/F1 12 Tf
72 720 Td
(Article 1) Tj
0 -14 Td
[(\(1\) Every ) -20 (person.)] TJ
40 0 Td
(cont) Tj
T*
(Last\040line) Tj
ET`)
	assert.Equal(t, "Article 1\n(1) Every person. cont\nLast line", textFromContentStream(stream))
}

func TestNormalize(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	in := "Pasal 1\r\n    (1) Cafe\u0301  \rx\u200by\u00a0z\t"
	assert.Equal(t, "Pasal 1\n    (1) Caf\u00e9\nxy z", Normalize(in))
}
