package materializer

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/tomus/internal/models"
)

// ParseRendered parses the rendering collaborator's markdown output into
// plain text plus any tables found in the document.
func ParseRendered(source []byte) (string, []models.Table) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	var builder strings.Builder
	var tables []models.Table

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *east.Table:
			if entering {
				tables = append(tables, extractTable(node, source))
				return ast.WalkSkipChildren, nil
			}
		case *ast.Text:
			if entering {
				builder.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					builder.WriteByte('\n')
				}
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if !entering {
				builder.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(builder.String()), tables
}

// extractTable collects header and row cell text from a goldmark table node
func extractTable(table *east.Table, source []byte) models.Table {
	var out models.Table

	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, nodeText(cell, source))
		}

		switch row.(type) {
		case *east.TableHeader:
			out.Headers = cells
		case *east.TableRow:
			out.Rows = append(out.Rows, cells)
		}
	}

	return out
}

// nodeText concatenates all text content beneath a node
func nodeText(n ast.Node, source []byte) string {
	var builder strings.Builder
	ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := child.(*ast.Text); ok {
				builder.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(builder.String())
}
