package table

import (
	"github.com/pkg/errors"
)

// Store holds the datasets of one session in the order they were loaded.
type Store struct {
	order  []*Dataset
	byName map[string]*Dataset
}

// NewStore builds a Store from datasets in load order. Dataset names must
// be unique.
func NewStore(datasets ...*Dataset) (*Store, error) {
	s := &Store{
		order:  make([]*Dataset, 0, len(datasets)),
		byName: make(map[string]*Dataset, len(datasets)),
	}
	for _, ds := range datasets {
		if ds == nil {
			return nil, errors.New("nil dataset")
		}
		if _, dup := s.byName[ds.Name]; dup {
			return nil, errors.Errorf("duplicate dataset name %q", ds.Name)
		}
		s.order = append(s.order, ds)
		s.byName[ds.Name] = ds
	}
	return s, nil
}

// Get returns the dataset with the given name.
func (s *Store) Get(name string) (*Dataset, bool) {
	ds, ok := s.byName[name]
	return ds, ok
}

// Datasets returns the datasets in load order.
func (s *Store) Datasets() []*Dataset {
	out := make([]*Dataset, len(s.order))
	copy(out, s.order)
	return out
}

// Names returns dataset names in load order.
func (s *Store) Names() []string {
	names := make([]string, len(s.order))
	for i, ds := range s.order {
		names[i] = ds.Name
	}
	return names
}

func (s *Store) Len() int {
	return len(s.order)
}
