package report

import (
	"strings"
	"testing"
)

func TestParseMarkdown_Basic(t *testing.T) {
	// WHAT: Headings, paragraphs, lists, quotes, and dividers come out in
	// source order with the right kinds.
	src := `# Title

Some paragraph
continued on a second line.

## Section

- first bullet
- second bullet
1. numbered
> quoted text

---
`
	doc := ParseMarkdown(src)
	want := []Kind{KindHeading, KindParagraph, KindHeading, KindBulleted, KindBulleted, KindNumbered, KindQuote, KindDivider}
	if len(doc.Items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(doc.Items), len(want), doc.Items)
	}
	for i, k := range want {
		if doc.Items[i].Kind != k {
			t.Errorf("item[%d]: kind=%s, want %s", i, doc.Items[i].Kind, k)
		}
	}
	if doc.FirstHeading != "Title" {
		t.Errorf("first heading = %q, want Title", doc.FirstHeading)
	}
	if doc.Items[1].Text != "Some paragraph continued on a second line." {
		t.Errorf("paragraph accumulation broke: %q", doc.Items[1].Text)
	}
}

func TestParseMarkdown_Preface(t *testing.T) {
	// WHAT: Leading key:value lines before the first heading become preface
	// metadata, not paragraphs.
	src := `Generated by: diffscope 2.1
Run date: 2026-08-20

# Report

Body text.
`
	doc := ParseMarkdown(src)
	if len(doc.Preface) != 2 {
		t.Fatalf("preface: got %d entries, want 2: %+v", len(doc.Preface), doc.Preface)
	}
	if doc.Preface[0].Key != "Generated by" || doc.Preface[0].Value != "diffscope 2.1" {
		t.Errorf("preface[0] = %+v", doc.Preface[0])
	}
	for _, it := range doc.Items {
		if it.Kind == KindParagraph && strings.Contains(it.Text, "Generated by") {
			t.Error("preface line leaked into a paragraph item")
		}
	}
}

func TestParseMarkdown_PrefaceStopsAfterContent(t *testing.T) {
	// WHAT: key:value lines after real content are ordinary paragraphs.
	src := "# H\nnote: this is prose with a colon\n"
	doc := ParseMarkdown(src)
	if len(doc.Preface) != 0 {
		t.Errorf("preface should be empty, got %+v", doc.Preface)
	}
}

func TestParseMarkdown_CodeFence(t *testing.T) {
	// WHAT: Fenced blocks buffer verbatim, keeping blank lines and markers
	// that would otherwise be structural.
	src := "```go\nfunc main() {\n\n\t// # not a heading\n}\n```\ntail para\n"
	doc := ParseMarkdown(src)
	if len(doc.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(doc.Items))
	}
	code := doc.Items[0]
	if code.Kind != KindCode || code.Language != "go" {
		t.Fatalf("code item = %+v", code)
	}
	if !strings.Contains(code.Text, "# not a heading") {
		t.Errorf("code text lost content: %q", code.Text)
	}
}

func TestParseMarkdown_UnterminatedFence(t *testing.T) {
	// WHAT: An unclosed fence still emits its content plus a warning.
	doc := ParseMarkdown("```\ndangling")
	if len(doc.Items) != 1 || doc.Items[0].Kind != KindCode {
		t.Fatalf("items = %+v", doc.Items)
	}
	if len(doc.Warnings) == 0 {
		t.Error("expected a warning for the unterminated fence")
	}
}

func TestParseMarkdown_Table(t *testing.T) {
	// WHAT: Header + separator + pipe rows assemble into one table item with
	// the nearest preceding heading as title.
	src := `## Field Comparison

| Name | Done | Count |
|------|:----:|------:|
| A    | yes  | 3     |
| B    | no   | 4     |

after table
`
	doc := ParseMarkdown(src)
	var tbl *Table
	for _, it := range doc.Items {
		if it.Kind == KindTable {
			tbl = it.Table
		}
	}
	if tbl == nil {
		t.Fatal("no table item produced")
	}
	if tbl.Title != "Field Comparison" {
		t.Errorf("table title = %q", tbl.Title)
	}
	if len(tbl.Headers) != 3 || tbl.Headers[1] != "Done" {
		t.Errorf("headers = %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[1][2] != "4" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}

func TestParseMarkdown_TableZeroRows(t *testing.T) {
	// WHAT: Header + separator with no data still yields a table item.
	// WHY: Downstream must render "no data", never drop the section.
	src := "| A | B |\n|---|---|\n\nnext\n"
	doc := ParseMarkdown(src)
	if len(doc.Items) == 0 || doc.Items[0].Kind != KindTable {
		t.Fatalf("items = %+v", doc.Items)
	}
	tbl := doc.Items[0].Table
	if len(tbl.Headers) != 2 || len(tbl.Rows) != 0 {
		t.Errorf("headers=%v rows=%v", tbl.Headers, tbl.Rows)
	}
}

func TestParseMarkdown_TableSyntheticHeaders(t *testing.T) {
	// WHAT: When no row matches the header width, headers are synthesized
	// from the modal row width and the original header becomes data.
	src := "| only |\n|------|\n| a | b | c |\n| d | e | f |\n"
	doc := ParseMarkdown(src)
	tbl := doc.Items[0].Table
	if len(tbl.Headers) != 3 || tbl.Headers[0] != "Column 1" {
		t.Fatalf("headers = %v", tbl.Headers)
	}
	if len(tbl.Rows) != 3 || tbl.Rows[0][0] != "only" {
		t.Errorf("original header should be demoted to a row: %v", tbl.Rows)
	}
	if len(doc.Warnings) == 0 {
		t.Error("expected a synthetic-headers warning")
	}
}

func TestParseMarkdown_ToDo(t *testing.T) {
	doc := ParseMarkdown("- [ ] open task\n- [x] closed task\n")
	if len(doc.Items) != 2 {
		t.Fatalf("items = %+v", doc.Items)
	}
	if doc.Items[0].Kind != KindToDo || doc.Items[0].Checked {
		t.Errorf("item[0] = %+v", doc.Items[0])
	}
	if doc.Items[1].Kind != KindToDo || !doc.Items[1].Checked {
		t.Errorf("item[1] = %+v", doc.Items[1])
	}
}

func TestParseJSON_Inline(t *testing.T) {
	// WHAT: Small JSON becomes a single fenced code item.
	doc, err := ParseJSON(`{"a":1,"b":[2,3]}`, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Items) != 1 || doc.Items[0].Kind != KindCode || doc.Items[0].Language != "json" {
		t.Fatalf("items = %+v", doc.Items)
	}
}

func TestParseJSON_Oversize(t *testing.T) {
	// WHAT: JSON over the inline threshold becomes summary + preview + file
	// reference instead of inline code.
	// WHY: Readability over completeness is the documented trade-off.
	var sb strings.Builder
	sb.WriteString(`{"entries":[`)
	for i := 0; i < 500; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"k":"value"}`)
	}
	sb.WriteString(`]}`)

	doc, err := ParseJSON(sb.String(), "diff.json")
	if err != nil {
		t.Fatal(err)
	}
	kinds := []Kind{}
	for _, it := range doc.Items {
		kinds = append(kinds, it.Kind)
	}
	want := []Kind{KindParagraph, KindCode, KindFile}
	if len(kinds) != 3 || kinds[0] != want[0] || kinds[1] != want[1] || kinds[2] != want[2] {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	if doc.Items[2].Text != "diff.json" {
		t.Errorf("file name = %q", doc.Items[2].Text)
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, err := ParseJSON("{nope", ""); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseHTML(t *testing.T) {
	// WHAT: Sanitized HTML converts to Markdown and parses; script content
	// never survives.
	doc, err := ParseHTML(`<h1>Findings</h1><script>alert(1)</script><p>body text</p>`)
	if err != nil {
		t.Fatal(err)
	}
	if doc.FirstHeading != "Findings" {
		t.Errorf("first heading = %q", doc.FirstHeading)
	}
	for _, it := range doc.Items {
		if strings.Contains(it.Text, "alert(") {
			t.Error("script content survived sanitization")
		}
	}
}

func TestDetect(t *testing.T) {
	cases := []struct {
		src  string
		want ContentType
	}{
		{`{"a":1}`, ContentJSON},
		{`[1,2]`, ContentJSON},
		{`<!DOCTYPE html><html></html>`, ContentHTML},
		{`# heading`, ContentMarkdown},
	}
	for _, c := range cases {
		if got := Detect(c.src); got != c.want {
			t.Errorf("Detect(%.20q) = %s, want %s", c.src, got, c.want)
		}
	}
}
