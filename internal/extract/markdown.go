package extract

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// frontmatterRe matches a leading YAML block: ---\n...\n---
var frontmatterRe = regexp.MustCompile(`(?s)^---\n(.+?)\n---\n*`)

// extractMarkdown converts Markdown to plain text by walking the goldmark
// AST. Formatting syntax is dropped while heading text, list items, code
// blocks, and table rows are kept as lines. YAML frontmatter is stripped.
func (e *Extractor) extractMarkdown(data []byte, path string) (*Result, error) {
	content := data
	if m := frontmatterRe.Find(content); m != nil {
		content = content[len(m):]
	}

	doc := e.markdown.Parser().Parse(text.NewReader(content))

	var sb strings.Builder
	var title string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := nodeText(node, content)
			if title == "" && node.Level <= 2 {
				title = headingText
			}
			writeLine(&sb, headingText)
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			ensureNewline(&sb)
			return ast.WalkContinue, nil

		case *ast.Text:
			sb.Write(node.Segment.Value(content))
			if node.HardLineBreak() || node.SoftLineBreak() {
				sb.WriteByte('\n')
			}
			return ast.WalkContinue, nil

		case *ast.String:
			sb.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeSpan:
			sb.WriteString(nodeText(node, content))
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			ensureNewline(&sb)
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(content))
			}
			return ast.WalkSkipChildren, nil

		case *ast.AutoLink:
			sb.Write(node.URL(content))
			return ast.WalkSkipChildren, nil

		default:
			// Table nodes come from the extension package and are matched
			// by kind name, following how goldmark exposes them.
			kind := n.Kind().String()
			if strings.Contains(kind, "TableRow") || strings.Contains(kind, "TableHeader") {
				writeLine(&sb, tableRowText(n, content))
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		}
	})

	return &Result{
		Text:     CleanText(sb.String()),
		Title:    title,
		Metadata: map[string]string{"type": "markdown"},
	}, nil
}

// nodeText collects the text content of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// tableRowText joins a table row's cells with pipe separators.
func tableRowText(row ast.Node, content []byte) string {
	var sb strings.Builder
	cells := 0
	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if strings.Contains(node.Kind().String(), "TableCell") {
			if cells > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(nodeText(node, content))
			cells++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func ensureNewline(sb *strings.Builder) {
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteByte('\n')
	}
}

func writeLine(sb *strings.Builder, line string) {
	ensureNewline(sb)
	sb.WriteString(line)
	sb.WriteByte('\n')
}
