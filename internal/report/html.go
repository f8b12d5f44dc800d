package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/nao1215/picase/internal/model"
)

// pageStyle is the stylesheet embedded in every HTML case summary.
const pageStyle = `body { font-family: Arial, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; }
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; }
h2 { color: #34495e; margin-top: 30px; }
table { border-collapse: collapse; width: 100%; margin: 15px 0; }
th, td { border: 1px solid #ddd; padding: 10px; text-align: left; }
th { background-color: #3498db; color: white; }
blockquote { border-left: 4px solid #e74c3c; margin: 15px 0; padding: 0 15px; }
code { background: #f4f4f4; padding: 0 4px; }`

// HTMLWriter outputs the Markdown case summary converted to a standalone
// HTML page. Raw HTML in record values is not passed through.
type HTMLWriter struct {
	baseWriter

	converter goldmark.Markdown
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		converter:  NewConverter(),
	}
}

// NewConverter returns the Markdown to HTML converter used for case
// documents: CommonMark plus GitHub tables, strikethrough and autolinks.
func NewConverter() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// Write outputs the case summary as an HTML page.
func (w *HTMLWriter) Write(record *model.CaseRecord) (int, error) {
	var src bytes.Buffer
	if _, err := NewMarkdownWriter(&src).Write(record); err != nil {
		return 0, fmt.Errorf("failed to render markdown: %w", err)
	}

	page, err := RenderPage(w.converter, "Case Summary - "+record.CaseID, pageStyle, src.Bytes())
	if err != nil {
		return 0, err
	}
	return w.output.Write(page)
}

// RenderPage converts the Markdown source and wraps it in an HTML page with
// the given title and stylesheet. The title is escaped.
func RenderPage(converter goldmark.Markdown, title, style string, source []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := converter.Convert(source, &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	page.WriteString("<meta charset=\"UTF-8\">\n")
	page.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	page.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	page.WriteString("<style>\n" + style + "\n</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
