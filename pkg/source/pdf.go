package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF reads the text operators of every page's content stream. Pages
// are separated by a blank line.
func extractPDF(ctx context.Context, data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		if text := textFromContentStream(stream); strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// pdfString matches a literal string operand: (text).
var pdfString = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream turns Tj, TJ, ', ", T*, Td and TD operators into
// lines. A move with a vertical offset starts a new line, a horizontal-only
// move inserts a space.
func textFromContentStream(stream []byte) string {
	var sb strings.Builder
	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for _, raw := range bytes.Split(stream, []byte{'\n'}) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		fields := strings.Fields(string(line))
		op := fields[len(fields)-1]

		switch op {
		case "Tj", "TJ":
			for _, m := range pdfString.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case "'", `"`:
			newline()
			for _, m := range pdfString.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case "T*", "ET":
			newline()
		case "Td", "TD":
			if len(fields) >= 3 {
				if dy, err := strconv.ParseFloat(fields[len(fields)-2], 64); err == nil && dy != 0 {
					newline()
					continue
				}
			}
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte(' ')
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// decodePDFString resolves backslash escapes in a PDF literal string.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 == len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				continue
			}
			val := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}
