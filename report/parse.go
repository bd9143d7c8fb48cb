// CLAUDE:SUMMARY Single-pass Markdown line scanner with fence/table modes, preface capture, ambiguity repair.
package report

import (
	"fmt"
	"strings"
)

// ParseMarkdown scans src once, left to right, and produces the ordered
// content model. Parse ambiguities never fail the parse; they are resolved
// by documented heuristics and surfaced in Document.Warnings.
func ParseMarkdown(src string) *Document {
	doc := &Document{}
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	var (
		para        []string
		inCode      bool
		codeLang    string
		codeBuf     []string
		lastHeading string
		prefaceOpen = true
	)

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		doc.Items = append(doc.Items, Item{Kind: KindParagraph, Text: strings.Join(para, " ")})
		para = para[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		// Fenced code: the delimiter toggles code mode; the closing fence
		// emits one code item with the buffered text.
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				doc.Items = append(doc.Items, Item{
					Kind:     KindCode,
					Language: codeLang,
					Text:     strings.Join(codeBuf, "\n"),
				})
				inCode = false
				codeBuf = codeBuf[:0]
			} else {
				flushPara()
				prefaceOpen = false
				inCode = true
				codeLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		if inCode {
			codeBuf = append(codeBuf, line)
			continue
		}

		// Table mode: a pipe line whose successor is a dash separator starts
		// a table; consecutive pipe lines are consumed as rows.
		if strings.Contains(trimmed, "|") && i+1 < len(lines) && isTableSeparator(strings.TrimSpace(lines[i+1])) {
			flushPara()
			prefaceOpen = false

			headers := splitRow(trimmed)
			var rows [][]string
			j := i + 2
			for ; j < len(lines); j++ {
				rowLine := strings.TrimSpace(lines[j])
				if !strings.Contains(rowLine, "|") {
					break
				}
				rows = append(rows, splitRow(rowLine))
			}
			i = j - 1

			tbl := &Table{Title: lastHeading, Headers: headers, Rows: rows}
			normalizeTable(tbl, doc)
			doc.Items = append(doc.Items, Item{Kind: KindTable, Table: tbl})
			continue
		}

		if trimmed == "" {
			flushPara()
			continue
		}

		// ATX heading.
		if strings.HasPrefix(trimmed, "#") {
			flushPara()
			prefaceOpen = false
			level := 0
			for _, ch := range trimmed {
				if ch != '#' {
					break
				}
				level++
			}
			if level > 3 {
				level = 3
			}
			text := strings.TrimSpace(strings.Trim(trimmed, "# "))
			if text == "" {
				continue
			}
			if doc.FirstHeading == "" {
				doc.FirstHeading = text
			}
			lastHeading = text
			doc.Items = append(doc.Items, Item{Kind: KindHeading, Level: level, Text: text})
			continue
		}

		if isDivider(trimmed) {
			flushPara()
			prefaceOpen = false
			doc.Items = append(doc.Items, Item{Kind: KindDivider})
			continue
		}

		if rest, checked, ok := parseToDo(trimmed); ok {
			flushPara()
			prefaceOpen = false
			doc.Items = append(doc.Items, Item{Kind: KindToDo, Text: rest, Checked: checked})
			continue
		}

		if rest, ok := parseBullet(trimmed); ok {
			flushPara()
			prefaceOpen = false
			doc.Items = append(doc.Items, Item{Kind: KindBulleted, Text: rest})
			continue
		}

		if rest, ok := parseNumbered(trimmed); ok {
			flushPara()
			prefaceOpen = false
			doc.Items = append(doc.Items, Item{Kind: KindNumbered, Text: rest})
			continue
		}

		if strings.HasPrefix(trimmed, ">") {
			flushPara()
			prefaceOpen = false
			doc.Items = append(doc.Items, Item{Kind: KindQuote, Text: strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))})
			continue
		}

		// Leading "key: value" lines before any other content are preface
		// metadata, rendered downstream as a list rather than paragraphs.
		if prefaceOpen {
			if kv, ok := parsePrefaceKV(trimmed); ok {
				doc.Preface = append(doc.Preface, kv)
				continue
			}
			prefaceOpen = false
		}

		para = append(para, trimmed)
	}

	if inCode {
		// Unterminated fence: keep the content instead of dropping it.
		doc.Items = append(doc.Items, Item{Kind: KindCode, Language: codeLang, Text: strings.Join(codeBuf, "\n")})
		doc.Warnings = append(doc.Warnings, "unterminated code fence at end of input")
	}
	flushPara()

	return doc
}

// isTableSeparator reports whether line is a header separator: pipe-delimited
// cells of dashes, each optionally colon-flanked.
func isTableSeparator(line string) bool {
	if !strings.Contains(line, "-") {
		return false
	}
	cells := splitRow(line)
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		c = strings.TrimPrefix(c, ":")
		c = strings.TrimSuffix(c, ":")
		if c == "" || strings.Count(c, "-") != len(c) {
			return false
		}
	}
	return true
}

// splitRow splits a pipe row into trimmed cells, dropping the outer empty
// cells produced by leading/trailing pipes.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// normalizeTable reconciles header and row widths. When no data row matches
// the header width, the modal row width wins: headers are synthesized and the
// original header line is kept as data.
func normalizeTable(t *Table, doc *Document) {
	if len(t.Rows) == 0 {
		return
	}

	counts := map[int]int{}
	for _, r := range t.Rows {
		counts[len(r)]++
	}
	modal, best := len(t.Headers), 0
	for w, n := range counts {
		if n > best || (n == best && w > modal) {
			modal, best = w, n
		}
	}

	headerMatches := false
	for _, r := range t.Rows {
		if len(r) == len(t.Headers) {
			headerMatches = true
			break
		}
	}
	if !headerMatches && modal != len(t.Headers) {
		doc.Warnings = append(doc.Warnings,
			fmt.Sprintf("table %q: no row matches the header width; synthesized %d headers", t.Title, modal))
		old := t.Headers
		t.Headers = make([]string, modal)
		for i := range t.Headers {
			t.Headers[i] = fmt.Sprintf("Column %d", i+1)
		}
		t.Rows = append([][]string{padRow(old, modal)}, t.Rows...)
	}

	for i, r := range t.Rows {
		t.Rows[i] = padRow(r, len(t.Headers))
	}
}

func padRow(r []string, width int) []string {
	if len(r) == width {
		return r
	}
	out := make([]string, width)
	copy(out, r)
	return out
}

func isDivider(line string) bool {
	if len(line) < 3 {
		return false
	}
	for _, set := range []byte{'-', '*', '_'} {
		ok := true
		for i := 0; i < len(line); i++ {
			if line[i] != set {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func parseToDo(line string) (text string, checked bool, ok bool) {
	for _, prefix := range []string{"- [ ] ", "* [ ] "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), false, true
		}
	}
	for _, prefix := range []string{"- [x] ", "- [X] ", "* [x] ", "* [X] "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true, true
		}
	}
	return "", false, false
}

func parseBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

func parseNumbered(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) || line[i] != '.' || line[i+1] != ' ' {
		return "", false
	}
	return strings.TrimSpace(line[i+2:]), true
}

// parsePrefaceKV recognizes "key: value" metadata lines. Keys are short and
// must not look like prose (no pipes, no trailing colon-only lines).
func parsePrefaceKV(line string) (KeyValue, bool) {
	idx := strings.Index(line, ": ")
	if idx <= 0 || idx > 64 {
		return KeyValue{}, false
	}
	key := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+2:])
	if key == "" || value == "" || strings.ContainsAny(key, "|#>") {
		return KeyValue{}, false
	}
	return KeyValue{Key: key, Value: value}, true
}
