// CLAUDE:SUMMARY Builds wire blocks from parsed content items, chunking oversized text into sub-limit spans.
package block

import (
	"fmt"

	"github.com/hazyhaar/depeche/report"
)

// BuildOptions tunes item-to-block conversion.
type BuildOptions struct {
	// AttachmentBaseURL prefixes file reference URLs. The host shell rewrites
	// attachment:// references when it actually uploads the file.
	AttachmentBaseURL string
}

func (o *BuildOptions) defaults() {
	if o.AttachmentBaseURL == "" {
		o.AttachmentBaseURL = "attachment://"
	}
}

// FromItem converts one content item into one or more blocks. No produced
// rich text span exceeds MaxSpanLen.
func FromItem(it report.Item, opts BuildOptions) []Block {
	opts.defaults()

	switch it.Kind {
	case report.KindHeading:
		return []Block{Heading(it.Level, Spans(it.Text))}
	case report.KindParagraph:
		return []Block{Paragraph(Spans(it.Text))}
	case report.KindDivider:
		return []Block{Divider()}
	case report.KindBulleted:
		return []Block{Bulleted(Spans(it.Text))}
	case report.KindNumbered:
		return []Block{Numbered(Spans(it.Text))}
	case report.KindToDo:
		return []Block{ToDo(Spans(it.Text), it.Checked)}
	case report.KindQuote:
		return []Block{Quote(Spans(it.Text))}
	case report.KindCode:
		return []Block{Code(it.Language, Spans(it.Text))}
	case report.KindTable:
		return []Block{inlineTable(it.Table)}
	case report.KindFile:
		return []Block{File(it.Text, opts.AttachmentBaseURL+it.Text, Spans("generated attachment"))}
	default:
		// Unknown kinds degrade to a visible notice, never to silence.
		return []Block{Notice(fmt.Sprintf("[content lost: unsupported item kind %q]", it.Kind))}
	}
}

// inlineTable renders a parsed table as a native table block with a header
// row. This is the simple single-document path; the plan path turns tables
// into databases instead.
func inlineTable(t *report.Table) Block {
	width := len(t.Headers)
	rows := make([]Block, 0, len(t.Rows)+1)

	header := make([][]RichText, width)
	for i, h := range t.Headers {
		header[i] = Spans(h)
	}
	rows = append(rows, TableRow(header))

	for _, r := range t.Rows {
		cells := make([][]RichText, width)
		for i := 0; i < width; i++ {
			// Short rows pad with empty cells; every cell serializes as an
			// array, never null.
			var cell string
			if i < len(r) {
				cell = r[i]
			}
			cells[i] = Spans(cell)
		}
		rows = append(rows, TableRow(cells))
	}
	return Table(width, true, rows)
}

// FromDocument converts a whole parsed document, preface first, preserving
// item order. Preface key/values render as a bulleted list.
func FromDocument(doc *report.Document, opts BuildOptions) []Block {
	var out []Block
	for _, kv := range doc.Preface {
		out = append(out, Bulleted(Spans(kv.Key+": "+kv.Value)))
	}
	for _, it := range doc.Items {
		out = append(out, FromItem(it, opts)...)
	}
	return out
}
