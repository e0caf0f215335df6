package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
)

// extractPDF pulls plain text page by page. Individual unreadable pages are
// skipped rather than failing the document; scanned PDFs without a text
// layer simply come back empty. The parser runs under recover because
// malformed documents can panic it.
func (e *Extractor) extractPDF(data []byte, path string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = glerrors.ExtractionError(path, fmt.Errorf("pdf parse panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}

	var sb strings.Builder
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return &Result{
		Text: CleanText(sb.String()),
		Metadata: map[string]string{
			"type":       "pdf",
			"page_count": fmt.Sprintf("%d", pageCount),
		},
	}, nil
}
