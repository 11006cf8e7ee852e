// Package source adapts raw document bytes (PDF, DOCX, plain text) into the
// normalised UTF-8 text the parser consumes.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoContent means the document holds no extractable text, e.g. a scanned
// PDF with no OCR available. Callers treat it as "nothing to parse".
var ErrNoContent = errors.New("no content available")

// ErrUnsupportedKind is returned for a Kind the extractor cannot read.
var ErrUnsupportedKind = errors.New("unsupported source kind")

// Kind is the declared type of a source document.
type Kind int

const (
	KindUnknown Kind = iota
	KindScannedPDF
	KindTextPDF
	KindWordDocument
	KindPlainText
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindScannedPDF:   "scanned-pdf",
	KindTextPDF:      "text-pdf",
	KindWordDocument: "word",
	KindPlainText:    "text",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// DetectKind guesses the kind from content first, then the file extension.
// A PDF with image objects and no font resources is treated as scanned.
func DetectKind(name string, data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		if !bytes.Contains(data, []byte("/Font")) && bytes.Contains(data, []byte("/Image")) {
			return KindScannedPDF
		}
		return KindTextPDF
	case bytes.HasPrefix(data, zipMagic):
		if bytes.Contains(data, []byte("word/document.xml")) {
			return KindWordDocument
		}
		return KindUnknown
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindTextPDF
	case ".docx":
		return KindWordDocument
	case ".txt", ".text", "":
		return KindPlainText
	}
	if looksLikeText(data) {
		return KindPlainText
	}
	return KindUnknown
}

// looksLikeText reports whether the first kilobyte has no NUL bytes.
func looksLikeText(data []byte) bool {
	if len(data) > 1024 {
		data = data[:1024]
	}
	return bytes.IndexByte(data, 0) < 0
}

// Extractor turns document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, kind Kind) (string, error)
}

// DefaultExtractor reads plain text, DOCX and text PDFs. Scanned PDFs yield
// ErrNoContent.
type DefaultExtractor struct{}

// NewExtractor returns the default extractor.
func NewExtractor() *DefaultExtractor {
	return &DefaultExtractor{}
}

// Extract returns the normalised text of data. An empty result is reported as
// ErrNoContent.
func (e *DefaultExtractor) Extract(ctx context.Context, data []byte, kind Kind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPlainText:
		text = decodeText(data)
	case KindWordDocument:
		text, err = extractDocx(data)
	case KindTextPDF:
		text, err = extractPDF(ctx, data)
	case KindScannedPDF:
		return "", fmt.Errorf("%w: scanned PDF requires OCR", ErrNoContent)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if err != nil {
		return "", err
	}

	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s yielded no text", ErrNoContent, kind)
	}
	return text, nil
}
