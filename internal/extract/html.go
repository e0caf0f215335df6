package extract

import (
	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
)

// extractHTML converts HTML to Markdown, then reuses the Markdown text
// extraction. Two steps, but it keeps one plain-text rendering for every
// structured format.
func (e *Extractor) extractHTML(data []byte, path string) (*Result, error) {
	markdown, err := e.htmlConv.ConvertString(string(data))
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}

	result, err := e.extractMarkdown([]byte(markdown), path)
	if err != nil {
		return nil, err
	}
	result.Metadata["type"] = "html"
	return result, nil
}
