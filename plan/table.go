// CLAUDE:SUMMARY Two-phase table build: title-only create, reverse-order property patches, per-row inserts.
package plan

import (
	"fmt"

	"github.com/hazyhaar/depeche/block"
	"github.com/hazyhaar/depeche/report"
	"github.com/hazyhaar/depeche/tabular"
)

// compileTable emits the two-phase database protocol for one parsed table.
//
// Phase one locks the schema: the database is created with only the title
// property so the title column's position is fixed, then every remaining
// property is added by one patch each, in REVERSE inference order. The remote
// UI shows later-added properties first, so the reversal makes the final
// visible order match the source column order. Do not "fix" this.
//
// Phase two inserts one row per data row. A table with zero data rows still
// completes phase one and emits a single "no data" notice instead of rows.
func (c *compiler) compileTable(t *report.Table) {
	c.dbCount++
	db := DBID(c.dbCount)

	schema := tabular.Infer(t.Headers, t.Rows)
	title := t.Title
	if title == "" {
		title = fmt.Sprintf("Table %d", c.dbCount)
	}

	for _, col := range schema.Columns {
		if col.Type == tabular.TypeSelect {
			c.plan.Notes = append(c.plan.Notes,
				fmt.Sprintf("column %q inferred as select with %d values", col.Name, len(schema.SelectOptions[col.Name])))
		} else {
			c.plan.Notes = append(c.plan.Notes,
				fmt.Sprintf("column %q inferred as %s", col.Name, col.Type))
		}
	}

	c.add(Request{
		Kind:   KindCreateDatabase,
		Method: "POST",
		Path:   "/v1/databases",
		Body: map[string]any{
			"parent": map[string]any{"type": "page_id", "page_id": RootID},
			"title":  block.Spans(title),
			"properties": map[string]any{
				schema.Title().Name: map[string]any{"title": map[string]any{}},
			},
		},
		Produces:       db,
		Consumes:       []Placeholder{RootID},
		Note:           fmt.Sprintf("Create database %q with title column %q", title, schema.Title().Name),
		FallbackNotice: fmt.Sprintf("[content lost] table %q could not be created — no differences recorded", title),
	})

	// Reverse inference order, title column excluded.
	for i := len(schema.Columns) - 1; i >= 1; i-- {
		col := schema.Columns[i]
		c.add(Request{
			Kind:   KindPatchDatabase,
			Method: "PATCH",
			Path:   "/v1/databases/" + string(db),
			Body: map[string]any{
				"properties": map[string]any{col.Name: propertySchema(col, schema)},
			},
			Consumes: []Placeholder{db},
			Note:     fmt.Sprintf("Add column %q (%s) to %q", col.Name, col.Type, title),
		})
	}

	if len(t.Rows) == 0 {
		c.appendNotice(fmt.Sprintf("No differences found in %q.", title))
		return
	}

	for i, row := range t.Rows {
		c.add(Request{
			Kind:   KindCreateRow,
			Method: "POST",
			Path:   "/v1/pages",
			Body: map[string]any{
				"parent":     map[string]any{"type": "database_id", "database_id": db},
				"properties": rowProperties(schema, row),
			},
			Consumes: []Placeholder{db},
			Note:     fmt.Sprintf("Insert row %d/%d into %q", i+1, len(t.Rows), title),
		})
	}
}

// propertySchema builds the property definition payload for one column.
func propertySchema(col tabular.Column, s *tabular.Schema) map[string]any {
	switch col.Type {
	case tabular.TypeNumber:
		return map[string]any{"number": map[string]any{"format": "number"}}
	case tabular.TypeCheckbox:
		return map[string]any{"checkbox": map[string]any{}}
	case tabular.TypeDate:
		return map[string]any{"date": map[string]any{}}
	case tabular.TypeSelect:
		opts := s.SelectOptions[col.Name]
		options := make([]map[string]any, len(opts))
		for i, o := range opts {
			options[i] = map[string]any{"name": o}
		}
		return map[string]any{"select": map[string]any{"options": options}}
	default:
		return map[string]any{"rich_text": map[string]any{}}
	}
}

// rowProperties maps one data row to a property payload keyed by the
// sanitized schema names. Empty cells coerce to the type-appropriate
// null/false/empty value, never to a type error.
func rowProperties(s *tabular.Schema, row []string) map[string]any {
	props := make(map[string]any, len(s.Columns))
	for _, col := range s.Columns {
		var cell string
		if col.Index < len(row) {
			cell = row[col.Index]
		}
		props[col.Name] = propertyValue(col, cell)
	}
	return props
}

func propertyValue(col tabular.Column, cell string) map[string]any {
	switch col.Type {
	case tabular.TypeTitle:
		return map[string]any{"title": block.Spans(cell)}
	case tabular.TypeNumber:
		if cell == "" {
			return map[string]any{"number": nil}
		}
		return map[string]any{"number": tabular.ParseNumber(cell)}
	case tabular.TypeCheckbox:
		return map[string]any{"checkbox": tabular.TruthyBool(cell)}
	case tabular.TypeDate:
		if cell == "" {
			return map[string]any{"date": nil}
		}
		return map[string]any{"date": map[string]any{"start": cell}}
	case tabular.TypeSelect:
		if cell == "" {
			return map[string]any{"select": nil}
		}
		return map[string]any{"select": map[string]any{"name": cell}}
	default:
		return map[string]any{"rich_text": block.Spans(cell)}
	}
}
