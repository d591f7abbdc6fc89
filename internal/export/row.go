package export

import "fmt"

// Row is one output line, keyed by the columns of its Schema.
type Row struct {
	schema *Schema
	values []string
}

// Set assigns a column. Unknown columns panic: the column set is fixed before
// rows are built, so a miss is a programming error.
func (r Row) Set(column, value string) {
	i, ok := r.schema.index[column]
	if !ok {
		panic(fmt.Sprintf("export: unknown column %q", column))
	}
	r.values[i] = value
}

func (r Row) get(column string) string {
	i, ok := r.schema.index[column]
	if !ok {
		return ""
	}
	return r.values[i]
}

// Values returns the fields in schema order.
func (r Row) Values() []string {
	return append([]string(nil), r.values...)
}
