package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/starford/finsage/internal/apperr"
)

// extractPDF concatenates per-page text in page order, one newline after each
// page. Pages that fail contribute nothing and are counted in skipped.
func extractPDF(data []byte) (text string, skipped int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, skipped = "", 0
			err = fmt.Errorf("%w: malformed pdf: %v", apperr.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: open pdf: %v", apperr.ErrExtraction, err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		t, ok := pageText(reader, i)
		if !ok {
			skipped++
		}
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String(), skipped, nil
}

func pageText(reader *pdf.Reader, n int) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	return text, true
}
