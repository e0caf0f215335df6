package extract

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
)

// Result holds the extracted text and metadata from a document.
type Result struct {
	// Text is the cleaned plain text content.
	Text string

	// Title is the document title: first heading for Markdown/HTML,
	// the core property for DOCX, or the filename otherwise.
	Title string

	// Metadata carries format-specific details (page counts, sheet counts).
	Metadata map[string]string
}

// Extractor converts supported document formats to plain text.
type Extractor struct {
	markdown goldmark.Markdown
	htmlConv *htmlmd.Converter
}

// New creates an Extractor with the standard format handlers.
func New() *Extractor {
	return &Extractor{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
		htmlConv: htmlmd.NewConverter("", true, nil),
	}
}

// Supports reports whether the file extension has a registered handler.
func (e *Extractor) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", ".docx", ".xlsx", ".xls", ".pdf", ".html", ".htm":
		return true
	default:
		return false
	}
}

// ExtractFile reads and extracts a document from disk.
func (e *Extractor) ExtractFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}
	return e.Extract(data, path)
}

// Extract dispatches to the handler for the file's extension.
// The path is used for extension detection, titles, and error context.
func (e *Extractor) Extract(data []byte, path string) (*Result, error) {
	var (
		result *Result
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		result, err = e.extractMarkdown(data, path)
	case ".txt":
		result, err = e.extractPlainText(data, path)
	case ".html", ".htm":
		result, err = e.extractHTML(data, path)
	case ".docx":
		result, err = e.extractDOCX(data, path)
	case ".xlsx":
		result, err = e.extractXLSX(data, path)
	case ".xls":
		result, err = e.extractXLS(data, path)
	case ".pdf":
		result, err = e.extractPDF(data, path)
	default:
		return nil, glerrors.ExtractionError(path, nil).
			WithDetail("reason", "unsupported file type")
	}

	if err != nil {
		return nil, err
	}
	if result.Title == "" {
		result.Title = titleFromFilename(path)
	}
	return result, nil
}

// extractPlainText handles .txt files.
func (e *Extractor) extractPlainText(data []byte, path string) (*Result, error) {
	return &Result{
		Text:     CleanText(string(data)),
		Metadata: map[string]string{"type": "text"},
	}, nil
}

// titleFromFilename derives a title from the file name: extension stripped,
// words capitalized.
func titleFromFilename(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}

	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		if len(runes) > 0 {
			runes[0] = toUpperRune(runes[0])
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return []rune(strings.ToUpper(string(r)))[0]
}

var (
	controlCharRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes extracted text: control characters removed, runs of
// spaces collapsed per line, lines trimmed, and blank-line runs capped at one.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = controlCharRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = spaceRunRe.ReplaceAllString(line, " ")
		cleaned = append(cleaned, strings.TrimSpace(line))
	}
	text = strings.Join(cleaned, "\n")

	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
