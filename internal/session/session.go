// Package session owns the per-user state machine that takes a measurement
// selection and a date range to a filtered view.
package session

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"ovenprofile/internal/measure"
	"ovenprofile/internal/metrics"
	"ovenprofile/internal/query"
	"ovenprofile/internal/table"
)

var (
	// ErrNoSelection is returned when an operation needs a measurement
	// selection and there is none.
	ErrNoSelection = errors.New("no measurement selected")
	// ErrNoRange is returned when the selection's dataset has no usable
	// date range, typically after a coercion failure.
	ErrNoRange = errors.New("no date range available")
	// ErrRangeOutOfBounds is returned for a range end outside the dataset's
	// first and last DATE.
	ErrRangeOutOfBounds = errors.New("date outside dataset range")
)

// State is a step of the selection state machine.
type State int

const (
	NoSelection State = iota
	MeasurementSelected
	RangeChosen
	Resolved
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "no_selection"
	case MeasurementSelected:
		return "measurement_selected"
	case RangeChosen:
		return "range_chosen"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Outcome of a resolved query.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeEmpty
	OutcomeNonEmpty
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeNonEmpty:
		return "nonempty"
	}
	return "none"
}

// Session is one user's view of the datasets. Its Store and Index are built
// once in New and never change; the selection and range move through the
// state machine. A Session is safe for concurrent use.
type Session struct {
	ID      string
	Created time.Time

	store *table.Store
	index *measure.Index

	mu       sync.Mutex
	lastSeen time.Time
	state    State
	outcome  Outcome
	selected []string
	dataset  *table.Dataset
	bounds   query.Range
	rng      query.Range
}

// New starts a session in NoSelection over store.
func New(id string, store *table.Store, now time.Time) *Session {
	return &Session{
		ID:       id,
		Created:  now,
		store:    store,
		index:    measure.Build(store),
		lastSeen: now,
	}
}

// Measurements lists the selectable measurement names.
func (s *Session) Measurements() []string {
	return s.index.Names()
}

// Index returns the session's measurement index.
func (s *Session) Index() *measure.Index {
	return s.index
}

// Store returns the session's datasets.
func (s *Session) Store() *table.Store {
	return s.store
}

// Select replaces the selection. An empty list goes back to NoSelection.
// Every name must be a known measurement; the first one decides the dataset
// and the default range is that dataset's full span. Other names are not
// checked against the dataset here.
func (s *Session) Select(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(names) == 0 {
		s.reset()
		return nil
	}
	for _, n := range names {
		if _, err := s.index.Resolve(n); err != nil {
			return err
		}
	}

	dsName, _ := s.index.Lookup(names[0])
	ds, ok := s.store.Get(dsName)
	if !ok {
		// the index is built from the store, so this is a bug
		return errors.Errorf("dataset %q of measurement %q not loaded", dsName, names[0])
	}

	s.selected = append([]string(nil), names...)
	s.dataset = ds
	s.state = MeasurementSelected
	s.outcome = OutcomeNone
	s.bounds, s.rng = query.Range{}, query.Range{}

	bounds, err := query.Bounds(ds)
	if err != nil {
		return err
	}
	s.bounds = bounds
	s.rng = bounds
	s.state = RangeChosen
	return nil
}

// SetRange narrows the range. Both ends must lie within the dataset's
// bounds; start after end is accepted and resolves to an empty result.
func (s *Session) SetRange(start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case NoSelection:
		return ErrNoSelection
	case MeasurementSelected:
		return ErrNoRange
	}

	r := query.NewRange(start, end)
	for _, d := range []time.Time{r.Start, r.End} {
		if !s.bounds.Contains(d) {
			return errors.Wrapf(ErrRangeOutOfBounds, "%s not in %s", d.Format(query.DateLayout), s.bounds)
		}
	}
	s.rng = r
	s.state = RangeChosen
	s.outcome = OutcomeNone
	return nil
}

// Resolve runs the range query for the current selection. The view is
// computed afresh on every call.
func (s *Session) Resolve() (*query.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case NoSelection:
		return nil, ErrNoSelection
	case MeasurementSelected:
		return nil, ErrNoRange
	}

	v, err := query.QueryRange(s.dataset, s.rng)
	if err != nil {
		metrics.CounterQueries.WithLabelValues("error").Inc()
		return nil, err
	}
	s.state = Resolved
	if v.Empty() {
		s.outcome = OutcomeEmpty
	} else {
		s.outcome = OutcomeNonEmpty
	}
	metrics.CounterQueries.WithLabelValues(s.outcome.String()).Inc()
	return v, nil
}

// Status is a point-in-time copy of the session's state.
type Status struct {
	ID        string
	State     State
	Outcome   Outcome
	Selected  []string
	Dataset   string
	Bounds    query.Range
	Range     query.Range
	HasBounds bool
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:        s.ID,
		State:     s.state,
		Outcome:   s.outcome,
		Selected:  append([]string(nil), s.selected...),
		Bounds:    s.bounds,
		Range:     s.rng,
		HasBounds: s.state >= RangeChosen,
	}
	if s.dataset != nil {
		st.Dataset = s.dataset.Name
	}
	return st
}

func (s *Session) reset() {
	s.state = NoSelection
	s.outcome = OutcomeNone
	s.selected = nil
	s.dataset = nil
	s.bounds, s.rng = query.Range{}, query.Range{}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
