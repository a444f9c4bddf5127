// Package measure maps selectable measurement names to the dataset that
// supplies them.
package measure

import (
	"github.com/pkg/errors"

	"ovenprofile/internal/table"
)

// ErrUnknownMeasurement is returned when a name is not a key of the index.
// It is a caller error, distinct from a query that matched no rows.
var ErrUnknownMeasurement = errors.New("unknown measurement")

var reserved = map[string]bool{
	table.ColDateTime: true,
	table.ColCW:       true,
	table.ColDate:     true,
	table.ColLCL:      true,
	table.ColUCL:      true,
}

// IsReserved reports whether name is a structural column.
func IsReserved(name string) bool {
	return reserved[name]
}

// Index maps measurement name to owning dataset name. It is read-only
// once Build returns.
type Index struct {
	names []string
	owner map[string]string
}

// Build walks datasets in load order and columns in schema order. A name
// found in more than one dataset belongs to the last one walked; it keeps
// the position where it was first seen.
func Build(store *table.Store) *Index {
	idx := &Index{owner: make(map[string]string)}
	for _, ds := range store.Datasets() {
		for _, col := range ds.Headers {
			if col == "" || IsReserved(col) {
				continue
			}
			if _, seen := idx.owner[col]; !seen {
				idx.names = append(idx.names, col)
			}
			idx.owner[col] = ds.Name
		}
	}
	return idx
}

// Lookup returns the dataset that supplies name.
func (x *Index) Lookup(name string) (string, bool) {
	ds, ok := x.owner[name]
	return ds, ok
}

// Resolve is Lookup with an error for a miss.
func (x *Index) Resolve(name string) (string, error) {
	ds, ok := x.owner[name]
	if !ok {
		return "", errors.Wrapf(ErrUnknownMeasurement, "%q", name)
	}
	return ds, nil
}

// Names returns every measurement in index order.
func (x *Index) Names() []string {
	out := make([]string, len(x.names))
	copy(out, x.names)
	return out
}

// ByDataset returns the measurements owned by dataset, in index order.
func (x *Index) ByDataset(dataset string) []string {
	var out []string
	for _, n := range x.names {
		if x.owner[n] == dataset {
			out = append(out, n)
		}
	}
	return out
}

func (x *Index) Len() int {
	return len(x.names)
}
