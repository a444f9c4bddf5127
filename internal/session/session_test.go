package session

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovenprofile/internal/measure"
	"ovenprofile/internal/query"
	"ovenprofile/internal/table"
)

func testStore(t *testing.T) *table.Store {
	t.Helper()
	store, err := table.NewStore(
		table.NewDataset("dataset1",
			[]string{"DATETIME", "DATE", "OvenA", "OvenB", "LCL", "UCL"},
			[][]string{
				{"2025-01-01 08:00", "2025-01-01", "180.1", "175", "170", "190"},
				{"2025-01-02 08:00", "2025-01-02", "180.2", "176", "170", "190"},
				{"2025-01-03 08:00", "2025-01-03", "180.3", "177", "170", "190"},
				{"2025-01-04 08:00", "2025-01-04", "180.4", "178", "170", "190"},
				{"2025-01-05 08:00", "2025-01-05", "180.5", "179", "170", "190"},
			}),
		table.NewDataset("dataset2",
			[]string{"DATETIME", "DATE", "MEM#01"},
			[][]string{
				{"2025-02-01 08:00", "2025-02-01", "1"},
				{"2025-02-03 08:00", "bad", "2"},
			}),
	)
	require.NoError(t, err)
	return store
}

func day(s string) time.Time {
	t, err := query.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSessionStartsWithNoSelection(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	st := s.Status()
	assert.Equal(t, NoSelection, st.State)
	assert.Equal(t, OutcomeNone, st.Outcome)
	assert.Equal(t, []string{"OvenA", "OvenB", "MEM#01"}, s.Measurements())

	_, err := s.Resolve()
	assert.True(t, errors.Is(err, ErrNoSelection))
	assert.True(t, errors.Is(s.SetRange(day("2025-01-01"), day("2025-01-02")), ErrNoSelection))
}

func TestSelectDefaultsRangeToFullSpan(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	require.NoError(t, s.Select([]string{"OvenA", "OvenB"}))

	st := s.Status()
	assert.Equal(t, RangeChosen, st.State)
	assert.Equal(t, "dataset1", st.Dataset)
	assert.Equal(t, []string{"OvenA", "OvenB"}, st.Selected)
	assert.Equal(t, day("2025-01-01"), st.Bounds.Start)
	assert.Equal(t, day("2025-01-05"), st.Bounds.End)
	assert.Equal(t, st.Bounds, st.Range)
	assert.True(t, st.HasBounds)

	v, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, Resolved, s.Status().State)
	assert.Equal(t, OutcomeNonEmpty, s.Status().Outcome)
}

func TestSelectUnknownMeasurementKeepsState(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	require.NoError(t, s.Select([]string{"OvenA"}))

	err := s.Select([]string{"OvenA", "Nope"})
	assert.True(t, errors.Is(err, measure.ErrUnknownMeasurement))

	st := s.Status()
	assert.Equal(t, RangeChosen, st.State)
	assert.Equal(t, []string{"OvenA"}, st.Selected)
}

func TestSelectEmptyResets(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	require.NoError(t, s.Select([]string{"OvenA"}))
	require.NoError(t, s.Select(nil))

	st := s.Status()
	assert.Equal(t, NoSelection, st.State)
	assert.Empty(t, st.Selected)
	assert.Empty(t, st.Dataset)
}

func TestSelectCoercionFailure(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	err := s.Select([]string{"MEM#01"})

	var ce *query.CoercionError
	require.True(t, errors.As(err, &ce))

	st := s.Status()
	assert.Equal(t, MeasurementSelected, st.State)
	assert.Equal(t, "dataset2", st.Dataset)
	assert.False(t, st.HasBounds)

	_, err = s.Resolve()
	assert.True(t, errors.Is(err, ErrNoRange))
	assert.True(t, errors.Is(s.SetRange(day("2025-02-01"), day("2025-02-01")), ErrNoRange))
}

func TestSetRangeNarrowsAndResolves(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	require.NoError(t, s.Select([]string{"OvenA"}))
	require.NoError(t, s.SetRange(day("2025-01-02"), day("2025-01-03")))
	assert.Equal(t, RangeChosen, s.Status().State)

	v, err := s.Resolve()
	require.NoError(t, err)
	require.Equal(t, 2, v.Len())
	assert.Equal(t, "180.2", v.Rows[0][2])
	assert.Equal(t, "180.3", v.Rows[1][2])
}

func TestSetRangeOutOfBounds(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	require.NoError(t, s.Select([]string{"OvenA"}))

	err := s.SetRange(day("2024-12-31"), day("2025-01-03"))
	assert.True(t, errors.Is(err, ErrRangeOutOfBounds))
	err = s.SetRange(day("2025-01-02"), day("2025-01-06"))
	assert.True(t, errors.Is(err, ErrRangeOutOfBounds))

	// unchanged
	assert.Equal(t, day("2025-01-01"), s.Status().Range.Start)
}

func TestStartAfterEndResolvesEmpty(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	require.NoError(t, s.Select([]string{"OvenA"}))
	require.NoError(t, s.SetRange(day("2025-01-04"), day("2025-01-02")))

	v, err := s.Resolve()
	require.NoError(t, err)
	assert.True(t, v.Empty())
	assert.Equal(t, OutcomeEmpty, s.Status().Outcome)
}

func TestChangingSelectionReturnsToRangeChosen(t *testing.T) {
	s := New("id", testStore(t), time.Now())
	require.NoError(t, s.Select([]string{"OvenA"}))
	require.NoError(t, s.SetRange(day("2025-01-02"), day("2025-01-02")))
	_, err := s.Resolve()
	require.NoError(t, err)

	require.NoError(t, s.Select([]string{"OvenB"}))
	st := s.Status()
	assert.Equal(t, RangeChosen, st.State)
	assert.Equal(t, OutcomeNone, st.Outcome)
	assert.Equal(t, st.Bounds, st.Range)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "no_selection", NoSelection.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "none", OutcomeNone.String())
}
