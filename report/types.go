// CLAUDE:SUMMARY Ordered content model: typed items, preface key/values, first heading, parse warnings.
// Package report parses semi-structured reports (Markdown, JSON, HTML) into
// an ordered sequence of typed content items.
//
// Ordering is significant: items come out in source order and every consumer
// downstream must preserve it end-to-end.
package report

// Kind discriminates the content item union.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindDivider   Kind = "divider"
	KindBulleted  Kind = "bulleted_list_item"
	KindNumbered  Kind = "numbered_list_item"
	KindToDo      Kind = "to_do"
	KindQuote     Kind = "quote"
	KindCode      Kind = "code"
	KindTable     Kind = "table"
	KindFile      Kind = "file"
)

// Item is one parsed content unit. Only the fields relevant to its Kind are
// set. Items are immutable once produced.
type Item struct {
	Kind     Kind
	Level    int    // heading level 1-3
	Text     string // heading/paragraph/list/quote/code text, file name
	Checked  bool   // to_do
	Language string // code fence language
	Table    *Table // table payload
}

// Table holds a parsed tabular section. A table with headers but zero data
// rows is still a valid table; consumers must render it as "no data" rather
// than drop the section.
type Table struct {
	Title   string // nearest preceding heading, may be empty
	Headers []string
	Rows    [][]string
}

// KeyValue is one "key: value" preface line captured before the first
// heading.
type KeyValue struct {
	Key   string
	Value string
}

// Document is the result of one parse pass.
type Document struct {
	Items        []Item
	FirstHeading string // empty when the source has no heading
	Preface      []KeyValue
	Warnings     []string // non-fatal parse ambiguities, already resolved
}
