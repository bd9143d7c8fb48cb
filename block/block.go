// CLAUDE:SUMMARY Closed block sum type: payload key always equals type, enforced at construction.
// Package block models the remote document's wire unit.
//
// A block is a discriminated value whose JSON payload key equals its type.
// The constructors are the only way to build a Block, so a structurally
// invalid block (payload key missing) cannot exist inside the pipeline; the
// Repair adapter handles externally supplied raw blocks at the boundary.
package block

import (
	"encoding/json"

	"github.com/hazyhaar/depeche/chunk"
)

// Type discriminates block kinds.
type Type string

const (
	TypeParagraph Type = "paragraph"
	TypeHeading1  Type = "heading_1"
	TypeHeading2  Type = "heading_2"
	TypeHeading3  Type = "heading_3"
	TypeBulleted  Type = "bulleted_list_item"
	TypeNumbered  Type = "numbered_list_item"
	TypeToDo      Type = "to_do"
	TypeQuote     Type = "quote"
	TypeCode      Type = "code"
	TypeDivider   Type = "divider"
	TypeTable     Type = "table"
	TypeTableRow  Type = "table_row"
	TypeFile      Type = "file"
)

// MaxSpanLen is the hard cap on one rich text span's content.
const MaxSpanLen = chunk.DefaultLimit

// RichText is one length-bounded styled span.
type RichText struct {
	Type string   `json:"type"`
	Text TextSpan `json:"text"`
}

// TextSpan is the text body of a span.
type TextSpan struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is an optional span hyperlink.
type Link struct {
	URL string `json:"url"`
}

// Span builds a single span. The caller guarantees the length cap; use Spans
// for arbitrary text.
func Span(content string) RichText {
	return RichText{Type: "text", Text: TextSpan{Content: content}}
}

// Spans splits text into spans of at most MaxSpanLen runes each.
func Spans(text string) []RichText {
	pieces := chunk.Split(text, MaxSpanLen)
	out := make([]RichText, len(pieces))
	for i, p := range pieces {
		out[i] = Span(p)
	}
	return out
}

// PlainText flattens spans back to a string.
func PlainText(spans []RichText) string {
	var s string
	for _, sp := range spans {
		s += sp.Text.Content
	}
	return s
}

// Payload types. Each carries exactly the fields its block type serializes.

type TextPayload struct {
	RichText []RichText `json:"rich_text"`
}

type ToDoPayload struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

type CodePayload struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

type DividerPayload struct{}

type TablePayload struct {
	TableWidth      int     `json:"table_width"`
	HasColumnHeader bool    `json:"has_column_header"`
	Children        []Block `json:"children"`
}

type TableRowPayload struct {
	Cells [][]RichText `json:"cells"`
}

type ExternalFile struct {
	URL string `json:"url"`
}

type FilePayload struct {
	Type     string       `json:"type"`
	External ExternalFile `json:"external"`
	Name     string       `json:"name,omitempty"`
	Caption  []RichText   `json:"caption,omitempty"`
}

// Block is one visual unit of the remote document tree. The zero value is
// not valid; use the constructors.
type Block struct {
	typ     Type
	payload any
}

// Type returns the block's discriminator.
func (b Block) Type() Type { return b.typ }

// Payload returns the type-named payload value.
func (b Block) Payload() any { return b.payload }

// MarshalJSON writes the wire form: the payload sits under a key equal to
// the block type.
func (b Block) MarshalJSON() ([]byte, error) {
	wire := map[string]any{"object": "block", "type": string(b.typ)}
	wire[string(b.typ)] = b.payload
	return json.Marshal(wire)
}

// Size returns the serialized byte size.
func (b Block) Size() int {
	data, err := json.Marshal(b)
	if err != nil {
		return 0
	}
	return len(data)
}

// Constructors.

func Paragraph(spans []RichText) Block {
	return Block{typ: TypeParagraph, payload: TextPayload{RichText: spans}}
}

// Heading builds a heading block; level is clamped to 1..3.
func Heading(level int, spans []RichText) Block {
	t := TypeHeading1
	switch {
	case level <= 1:
	case level == 2:
		t = TypeHeading2
	default:
		t = TypeHeading3
	}
	return Block{typ: t, payload: TextPayload{RichText: spans}}
}

func Bulleted(spans []RichText) Block {
	return Block{typ: TypeBulleted, payload: TextPayload{RichText: spans}}
}

func Numbered(spans []RichText) Block {
	return Block{typ: TypeNumbered, payload: TextPayload{RichText: spans}}
}

func ToDo(spans []RichText, checked bool) Block {
	return Block{typ: TypeToDo, payload: ToDoPayload{RichText: spans, Checked: checked}}
}

func Quote(spans []RichText) Block {
	return Block{typ: TypeQuote, payload: TextPayload{RichText: spans}}
}

func Code(language string, spans []RichText) Block {
	if language == "" {
		language = "plain text"
	}
	return Block{typ: TypeCode, payload: CodePayload{RichText: spans, Language: language}}
}

func Divider() Block {
	return Block{typ: TypeDivider, payload: DividerPayload{}}
}

func Table(width int, hasHeader bool, rows []Block) Block {
	return Block{typ: TypeTable, payload: TablePayload{TableWidth: width, HasColumnHeader: hasHeader, Children: rows}}
}

func TableRow(cells [][]RichText) Block {
	return Block{typ: TypeTableRow, payload: TableRowPayload{Cells: cells}}
}

func File(name, url string, caption []RichText) Block {
	return Block{typ: TypeFile, payload: FilePayload{Type: "external", External: ExternalFile{URL: url}, Name: name, Caption: caption}}
}

// Notice builds the standard degraded-content paragraph. Content is never
// silently dropped; a notice marks what happened instead.
func Notice(text string) Block {
	return Paragraph(Spans(text))
}

// knownTypes lists every constructible block type.
var knownTypes = map[Type]bool{
	TypeParagraph: true, TypeHeading1: true, TypeHeading2: true, TypeHeading3: true,
	TypeBulleted: true, TypeNumbered: true, TypeToDo: true, TypeQuote: true,
	TypeCode: true, TypeDivider: true, TypeTable: true, TypeTableRow: true, TypeFile: true,
}

// Known reports whether t is a constructible block type.
func Known(t Type) bool { return knownTypes[t] }
