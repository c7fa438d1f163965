package table

import (
	"fmt"
	"slices"
)

// FormatColumn marks the end of the annotation block; every column after it is a sample.
const FormatColumn = "FORMAT"

// Fixed leading columns: chromosome, start, end, reference, observed.
const (
	colChrom = iota
	colStart
	colEnd
	colRef
	colAlt
	numKeyColumns
)

// Column is a resolved header column.
type Column struct {
	Name  string
	Index int
}

// Schema describes the header of an annotation table.
// It is resolved once at load time.
type Schema struct {
	columns []string
	index   map[string]int
	format  int
}

// NewSchema resolves a header line into a Schema.
// The FORMAT marker must be present and preceded by the fixed leading columns.
func NewSchema(header []string) (*Schema, error) {
	s := &Schema{
		columns: header,
		index:   make(map[string]int, len(header)),
		format:  -1,
	}
	for i, name := range header {
		if _, dup := s.index[name]; !dup {
			s.index[name] = i
		}
	}

	format, ok := s.index[FormatColumn]
	if !ok {
		return nil, &SchemaError{Column: FormatColumn, Message: "marker column not found in header"}
	}
	if format < numKeyColumns {
		return nil, &SchemaError{
			Column:  FormatColumn,
			Message: fmt.Sprintf("expected at least %d leading columns before marker, found %d", numKeyColumns, format),
		}
	}
	s.format = format

	return s, nil
}

// Columns returns the header in its original order.
func (s *Schema) Columns() []string {
	return s.columns
}

// Width returns the number of header columns.
func (s *Schema) Width() int {
	return len(s.columns)
}

// FormatIndex returns the position of the FORMAT marker column.
func (s *Schema) FormatIndex() int {
	return s.format
}

// HasColumn reports whether the header contains name.
func (s *Schema) HasColumn(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Column resolves a named column.
func (s *Schema) Column(name string) (Column, error) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, &SchemaError{Column: name, Message: "column not found in header"}
	}
	return Column{Name: name, Index: i}, nil
}

// FirstColumn resolves the first of names present in the header.
// It is used for columns that were renamed between annotation releases.
func (s *Schema) FirstColumn(names ...string) (Column, error) {
	for _, name := range names {
		if c, err := s.Column(name); err == nil {
			return c, nil
		}
	}
	if len(names) == 0 {
		return Column{}, &SchemaError{Message: "no column name given"}
	}
	return s.Column(names[0])
}

// Samples returns the sample IDs: every column after FORMAT.
func (s *Schema) Samples() []string {
	return s.columns[s.format+1:]
}

// Sample resolves the genotype column of a sample.
func (s *Schema) Sample(id string) (Column, error) {
	i := slices.Index(s.Samples(), id)
	if i < 0 {
		return Column{}, &SchemaError{Column: id, Message: "sample column not found after " + FormatColumn}
	}
	return Column{Name: id, Index: s.format + 1 + i}, nil
}

// SampleColumns resolves several samples, failing on the first missing one.
func (s *Schema) SampleColumns(ids []string) ([]Column, error) {
	cols := make([]Column, 0, len(ids))
	for _, id := range ids {
		c, err := s.Sample(id)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// SchemaError reports a header that does not fit the expected layout.
type SchemaError struct {
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return "schema error: " + e.Message
	}
	return fmt.Sprintf("schema error: %q: %s", e.Column, e.Message)
}
