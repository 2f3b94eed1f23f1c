package store

// Record is a hydration target for typed reads. Columns maps result column
// names to pointers into the record; each row is scanned through those
// pointers. Columns without an entry are skipped.
type Record interface {
	Columns() map[string]any
}

// Row is an untyped result row that keeps the result-set column order.
type Row struct {
	columns []string
	values  []any
}

// NewRow builds a Row from parallel column and value slices.
func NewRow(columns []string, values []any) *Row {
	return &Row{
		columns: append([]string(nil), columns...),
		values:  append([]any(nil), values...),
	}
}

// Columns returns the column names in result-set order.
func (r *Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Values returns the column values in result-set order.
func (r *Row) Values() []any {
	return append([]any(nil), r.values...)
}

// At returns the value of the i-th column.
func (r *Row) At(i int) any {
	return r.values[i]
}

// Get returns the value of the named column. When a result has several
// columns with the same name the last one wins.
func (r *Row) Get(column string) (any, bool) {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the row as a column name to value map.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, col := range r.columns {
		m[col] = r.values[i]
	}
	return m
}
