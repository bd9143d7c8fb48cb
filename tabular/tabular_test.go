package tabular

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestInfer_SpecExample(t *testing.T) {
	// WHAT: Name/Done/Count classify as title/checkbox/number.
	// WHY: The canonical inference contract.
	s := Infer(
		[]string{"Name", "Done", "Count"},
		[][]string{{"A", "yes", "3"}, {"B", "no", "4"}},
	)
	want := []ColumnType{TypeTitle, TypeCheckbox, TypeNumber}
	for i, w := range want {
		if s.Columns[i].Type != w {
			t.Errorf("column %q: type=%s, want %s", s.Columns[i].Name, s.Columns[i].Type, w)
		}
	}
	if s.Title().Name != "Name" {
		t.Errorf("title column = %q, want Name", s.Title().Name)
	}
}

func TestInfer_FirstColumnForcedTitle(t *testing.T) {
	// WHAT: Column 0 is title even when its values look numeric.
	s := Infer([]string{"ID", "V"}, [][]string{{"1", "x"}, {"2", "y"}})
	if s.Columns[0].Type != TypeTitle {
		t.Errorf("column 0 type = %s, want title", s.Columns[0].Type)
	}
}

func TestInfer_DateAndSelect(t *testing.T) {
	s := Infer(
		[]string{"Name", "When", "State"},
		[][]string{
			{"a", "2026-01-02", "open"},
			{"b", "2026-03-04T10:00:00Z", "closed"},
			{"c", "2026-05-06", "open"},
		},
	)
	if s.Columns[1].Type != TypeDate {
		t.Errorf("When: type=%s, want date", s.Columns[1].Type)
	}
	if s.Columns[2].Type != TypeSelect {
		t.Fatalf("State: type=%s, want select", s.Columns[2].Type)
	}
	opts := s.SelectOptions["State"]
	if len(opts) != 2 || opts[0] != "open" || opts[1] != "closed" {
		t.Errorf("select options = %v, want first-seen order [open closed]", opts)
	}
}

func TestInfer_SelectCap(t *testing.T) {
	// WHAT: Over 100 distinct values falls through to rich_text.
	rows := make([][]string, 150)
	for i := range rows {
		rows[i] = []string{"t", fmt.Sprintf("value-%d", i)}
	}
	s := Infer([]string{"T", "V"}, rows)
	if s.Columns[1].Type != TypeRichText {
		t.Errorf("V: type=%s, want rich_text", s.Columns[1].Type)
	}
	if _, ok := s.SelectOptions["V"]; ok {
		t.Error("rich_text column should carry no select options")
	}
}

func TestInfer_EmptyCellsIgnored(t *testing.T) {
	// WHAT: Empty cells don't break an otherwise uniform classification.
	s := Infer([]string{"T", "N"}, [][]string{{"a", "1"}, {"b", ""}, {"c", "2.5"}})
	if s.Columns[1].Type != TypeNumber {
		t.Errorf("N: type=%s, want number", s.Columns[1].Type)
	}
}

func TestInfer_AllEmptyColumn(t *testing.T) {
	s := Infer([]string{"T", "E"}, [][]string{{"a", ""}, {"b", ""}})
	if s.Columns[1].Type != TypeRichText {
		t.Errorf("E: type=%s, want rich_text", s.Columns[1].Type)
	}
}

func TestSanitize_CapWithEllipsis(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := Sanitize(long)
	if utf8.RuneCountInString(got) != MaxNameLen {
		t.Errorf("len=%d, want %d", utf8.RuneCountInString(got), MaxNameLen)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-3:])
	}
}

func TestInfer_DuplicateNames(t *testing.T) {
	// WHAT: Colliding headers get " (2)", " (3)" suffixes.
	s := Infer([]string{"X", "X", "X"}, nil)
	want := []string{"X", "X (2)", "X (3)"}
	for i, w := range want {
		if s.Columns[i].Name != w {
			t.Errorf("column[%d].Name = %q, want %q", i, s.Columns[i].Name, w)
		}
	}
}

func TestInfer_EmptyHeader(t *testing.T) {
	s := Infer([]string{"", ""}, nil)
	if s.Columns[0].Name != "Column 1" || s.Columns[1].Name != "Column 2" {
		t.Errorf("names = %q, %q", s.Columns[0].Name, s.Columns[1].Name)
	}
}

func TestTruthyBool(t *testing.T) {
	truthy := []string{"yes", "TRUE", "y", "Done", "checked"}
	for _, v := range truthy {
		if !TruthyBool(v) {
			t.Errorf("TruthyBool(%q) = false, want true", v)
		}
	}
	falsy := []string{"no", "false", "n", "unchecked", "", "whatever"}
	for _, v := range falsy {
		if TruthyBool(v) {
			t.Errorf("TruthyBool(%q) = true, want false", v)
		}
	}
}

func TestBinaryNumericIsNumber(t *testing.T) {
	// WHAT: A column of 0/1 is number, not checkbox.
	s := Infer([]string{"T", "Flag"}, [][]string{{"a", "0"}, {"b", "1"}})
	if s.Columns[1].Type != TypeNumber {
		t.Errorf("Flag: type=%s, want number", s.Columns[1].Type)
	}
}
