// CLAUDE:SUMMARY Boundary adapter converting raw legacy blocks to typed ones, repairing or replacing malformed input.
package block

import "fmt"

// Outcome classifies what Repair had to do.
type Outcome string

const (
	// OutcomeValid: payload present and convertible as-is.
	OutcomeValid Outcome = "valid"
	// OutcomeRepaired: declared type kept, default payload injected.
	OutcomeRepaired Outcome = "repaired"
	// OutcomeReplaced: block not salvageable, substituted by a fallback
	// paragraph with an explicit error marker.
	OutcomeReplaced Outcome = "replaced"
)

// Repair converts an externally supplied raw block (legacy/partial input)
// into a typed Block. A raw block whose payload key is missing gets a
// default payload matching its declared type; an unrecognizable block is
// replaced by a fallback paragraph. Content is never dropped.
func Repair(raw map[string]any) (Block, Outcome) {
	typ, _ := raw["type"].(string)
	t := Type(typ)
	if typ == "" || !Known(t) {
		return Notice(fmt.Sprintf("[content lost: unrecognized block type %q]", typ)), OutcomeReplaced
	}

	payload, ok := raw[typ].(map[string]any)
	if !ok {
		return repaired(t), OutcomeRepaired
	}

	b, ok := fromRawPayload(t, payload)
	if !ok {
		return repaired(t), OutcomeRepaired
	}
	return b, OutcomeValid
}

// repaired builds a valid block of the declared type carrying a placeholder
// notice instead of the missing payload.
func repaired(t Type) Block {
	notice := Spans("[restored: original block payload was missing]")
	switch t {
	case TypeParagraph:
		return Paragraph(notice)
	case TypeHeading1, TypeHeading2, TypeHeading3:
		level := 1
		if t == TypeHeading2 {
			level = 2
		} else if t == TypeHeading3 {
			level = 3
		}
		return Heading(level, notice)
	case TypeBulleted:
		return Bulleted(notice)
	case TypeNumbered:
		return Numbered(notice)
	case TypeToDo:
		return ToDo(notice, false)
	case TypeQuote:
		return Quote(notice)
	case TypeCode:
		return Code("plain text", notice)
	case TypeDivider:
		return Divider()
	default:
		// Structured kinds (table, table_row, file) have no meaningful
		// default; a marked paragraph preserves the slot.
		return Notice(fmt.Sprintf("[restored: %s block payload was missing]", t))
	}
}

// fromRawPayload rebuilds a typed block from a raw payload map, re-chunking
// text so span limits hold even for out-of-contract input.
func fromRawPayload(t Type, payload map[string]any) (Block, bool) {
	switch t {
	case TypeParagraph:
		return Paragraph(rawSpans(payload)), true
	case TypeHeading1:
		return Heading(1, rawSpans(payload)), true
	case TypeHeading2:
		return Heading(2, rawSpans(payload)), true
	case TypeHeading3:
		return Heading(3, rawSpans(payload)), true
	case TypeBulleted:
		return Bulleted(rawSpans(payload)), true
	case TypeNumbered:
		return Numbered(rawSpans(payload)), true
	case TypeQuote:
		return Quote(rawSpans(payload)), true
	case TypeToDo:
		checked, _ := payload["checked"].(bool)
		return ToDo(rawSpans(payload), checked), true
	case TypeCode:
		lang, _ := payload["language"].(string)
		return Code(lang, rawSpans(payload)), true
	case TypeDivider:
		return Divider(), true
	case TypeTableRow:
		rawCells, ok := payload["cells"].([]any)
		if !ok {
			return Block{}, false
		}
		cells := make([][]RichText, len(rawCells))
		for i, rc := range rawCells {
			arr, _ := rc.([]any)
			cells[i] = Spans(plainFromRaw(arr))
		}
		return TableRow(cells), true
	default:
		// table and file carry nested structure this adapter does not
		// reconstruct; callers get a repair instead.
		return Block{}, false
	}
}

// rawSpans extracts and re-chunks the rich_text array of a raw payload.
func rawSpans(payload map[string]any) []RichText {
	arr, _ := payload["rich_text"].([]any)
	return Spans(plainFromRaw(arr))
}

// plainFromRaw flattens a raw rich_text array to its concatenated content.
func plainFromRaw(arr []any) string {
	var s string
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if txt, ok := m["text"].(map[string]any); ok {
			if c, ok := txt["content"].(string); ok {
				s += c
			}
		} else if c, ok := m["plain_text"].(string); ok {
			s += c
		}
	}
	return s
}
