// CLAUDE:SUMMARY Column type inference (checkbox > number > date > select > rich_text) and name sanitization.
// Package tabular infers a typed schema from parsed table rows.
//
// The schema is the single source of truth for the column-name-to-type
// mapping: every later row-insertion call must key its properties by the
// sanitized names produced here.
package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the inferred remote property type for one column.
type ColumnType string

const (
	TypeTitle    ColumnType = "title"
	TypeRichText ColumnType = "rich_text"
	TypeNumber   ColumnType = "number"
	TypeCheckbox ColumnType = "checkbox"
	TypeDate     ColumnType = "date"
	TypeSelect   ColumnType = "select"
)

// MaxNameLen caps sanitized property names, ellipsis included.
const MaxNameLen = 80

// maxSelectOptions is the distinct-value ceiling for select inference.
const maxSelectOptions = 100

// Column is one inferred schema column in source order.
type Column struct {
	Index int
	Name  string // sanitized, unique
	Type  ColumnType
}

// Schema is the inferred table schema. Columns[0] is always the title column.
type Schema struct {
	Columns       []Column
	SelectOptions map[string][]string // column name -> options in first-seen order
}

// Title returns the title column.
func (s *Schema) Title() Column { return s.Columns[0] }

// Infer scans all rows and classifies each column. Column 0 is forced to
// title regardless of its values. Classification short-circuits at the first
// match: checkbox, number, date, select, rich_text.
func Infer(headers []string, rows [][]string) *Schema {
	s := &Schema{SelectOptions: make(map[string][]string)}

	names := sanitizeNames(headers)
	for i, name := range names {
		col := Column{Index: i, Name: name}
		if i == 0 {
			col.Type = TypeTitle
		} else {
			col.Type, s.SelectOptions[name] = classify(column(rows, i))
			if col.Type != TypeSelect {
				delete(s.SelectOptions, name)
			}
		}
		s.Columns = append(s.Columns, col)
	}
	return s
}

// column collects the non-empty values of column i.
func column(rows [][]string, i int) []string {
	var vals []string
	for _, r := range rows {
		if i < len(r) {
			if v := strings.TrimSpace(r[i]); v != "" {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

func classify(vals []string) (ColumnType, []string) {
	if len(vals) == 0 {
		return TypeRichText, nil
	}

	if all(vals, IsBool) {
		return TypeCheckbox, nil
	}
	if all(vals, IsNumber) {
		return TypeNumber, nil
	}
	if all(vals, IsDate) {
		return TypeDate, nil
	}

	var distinct []string
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	if len(distinct) <= maxSelectOptions {
		return TypeSelect, distinct
	}
	return TypeRichText, nil
}

func all(vals []string, pred func(string) bool) bool {
	for _, v := range vals {
		if !pred(v) {
			return false
		}
	}
	return true
}

// IsBool reports whether v is a boolean token. Digits are deliberately not
// boolean so binary numeric columns classify as number.
func IsBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "yes", "no", "y", "n", "checked", "unchecked", "done":
		return true
	}
	return false
}

// TruthyBool converts a boolean token to its value. Unknown tokens are false.
func TruthyBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "checked", "done":
		return true
	}
	return false
}

// IsNumber reports whether v parses as a float, commas-as-thousands allowed.
func IsNumber(v string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	return err == nil
}

// ParseNumber converts a numeric cell. Returns 0 for unparseable input; the
// caller decides on empty cells before calling.
func ParseNumber(v string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
	return f
}

// IsDate reports whether v is an ISO date (YYYY-MM-DD) or RFC3339 timestamp.
func IsDate(v string) bool {
	if _, err := time.Parse("2006-01-02", v); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339, v); err == nil {
		return true
	}
	return false
}

// sanitizeNames trims, caps, and de-duplicates header names. Empty headers
// become positional names; collisions get " (2)", " (3)" suffixes.
func sanitizeNames(headers []string) []string {
	taken := make(map[string]bool, len(headers))
	names := make([]string, len(headers))
	for i, h := range headers {
		name := Sanitize(h)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		base := name
		for n := 2; taken[name]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			b := base
			if r := []rune(b); len(r)+len(suffix) > MaxNameLen {
				b = string(r[:MaxNameLen-len(suffix)])
			}
			name = b + suffix
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// Sanitize trims whitespace and caps the name at MaxNameLen runes, appending
// an ellipsis when truncated.
func Sanitize(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	runes := []rune(name)
	if len(runes) <= MaxNameLen {
		return name
	}
	return string(runes[:MaxNameLen-1]) + "…"
}
