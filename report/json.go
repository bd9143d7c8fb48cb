// CLAUDE:SUMMARY JSON ingestion: pretty-print small payloads inline, large ones become summary + attachment reference.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Inline thresholds for JSON payloads. Anything larger trades completeness
// for readability: a structural summary plus an attachment reference instead
// of pages of fenced code. This fallback is deliberate and load-bearing.
const (
	jsonInlineMaxLines = 120
	jsonInlineMaxBytes = 8 * 1024

	jsonPreviewLines = 40
)

// ParseJSON converts a raw JSON report into the content model. Small payloads
// become fenced code items; payloads over the inline thresholds become a
// summary paragraph, a truncated structural preview, and a file reference.
func ParseJSON(src, name string) (*Document, error) {
	if name == "" {
		name = "report.json"
	}

	var v any
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		return nil, fmt.Errorf("report: invalid JSON: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(src), "", "  "); err != nil {
		return nil, fmt.Errorf("report: indent JSON: %w", err)
	}
	text := pretty.String()
	lineCount := strings.Count(text, "\n") + 1

	doc := &Document{FirstHeading: "JSON report"}

	if lineCount <= jsonInlineMaxLines && len(text) <= jsonInlineMaxBytes {
		doc.Items = append(doc.Items, Item{Kind: KindCode, Language: "json", Text: text})
		return doc, nil
	}

	previewParts := strings.SplitN(text, "\n", jsonPreviewLines+1)
	if len(previewParts) > jsonPreviewLines {
		previewParts = previewParts[:jsonPreviewLines]
	}
	preview := strings.Join(previewParts, "\n")
	doc.Items = append(doc.Items,
		Item{Kind: KindParagraph, Text: fmt.Sprintf(
			"Payload too large to render inline (%d lines, %d bytes): %s. Attached as %s.",
			lineCount, len(text), describeJSON(v), name)},
		Item{Kind: KindCode, Language: "json", Text: preview + "\n…"},
		Item{Kind: KindFile, Text: name},
	)
	return doc, nil
}

// describeJSON returns a one-line structural summary of the decoded value.
func describeJSON(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 8 {
			keys = append(keys[:8], "…")
		}
		return fmt.Sprintf("object with %d keys (%s)", len(t), strings.Join(keys, ", "))
	case []any:
		return fmt.Sprintf("array of %d items", len(t))
	case string:
		return "single string value"
	case float64:
		return "single number value"
	case bool:
		return "single boolean value"
	default:
		return "null value"
	}
}
