package measure

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovenprofile/internal/table"
)

func newStore(t *testing.T, datasets ...*table.Dataset) *table.Store {
	t.Helper()
	s, err := table.NewStore(datasets...)
	require.NoError(t, err)
	return s
}

func TestBuildSkipsReservedColumns(t *testing.T) {
	store := newStore(t,
		table.NewDataset("dataset1", []string{"DATETIME", "DATE", "CW", "OvenA", "OvenB", "LCL", "UCL"}, nil),
		table.NewDataset("dataset2", []string{"DATETIME", "DATE", "MEM#01"}, nil),
	)
	idx := Build(store)

	assert.Equal(t, []string{"OvenA", "OvenB", "MEM#01"}, idx.Names())
	assert.Equal(t, 3, idx.Len())
	for _, col := range []string{"DATETIME", "DATE", "CW", "LCL", "UCL"} {
		_, ok := idx.Lookup(col)
		assert.False(t, ok, col)
		assert.True(t, IsReserved(col))
	}
}

func TestBuildEveryColumnIsIndexed(t *testing.T) {
	datasets := []*table.Dataset{
		table.NewDataset("a", []string{"DATETIME", "DATE", "X1", "X2"}, nil),
		table.NewDataset("b", []string{"DATE", "Y1", "DATETIME", "UCL"}, nil),
		table.NewDataset("c", []string{"DATETIME", "DATE"}, nil),
	}
	idx := Build(newStore(t, datasets...))

	for _, ds := range datasets {
		for _, col := range ds.Headers {
			if IsReserved(col) {
				continue
			}
			_, ok := idx.Lookup(col)
			assert.True(t, ok, "%s/%s", ds.Name, col)
		}
	}
}

func TestBuildLastWriteWins(t *testing.T) {
	store := newStore(t,
		table.NewDataset("dataset1", []string{"DATETIME", "DATE", "Shared", "OvenA"}, nil),
		table.NewDataset("dataset2", []string{"DATETIME", "DATE", "OvenB"}, nil),
		table.NewDataset("dataset3", []string{"DATETIME", "DATE", "Shared"}, nil),
	)
	idx := Build(store)

	owner, ok := idx.Lookup("Shared")
	require.True(t, ok)
	assert.Equal(t, "dataset3", owner)
	// position is where the name was first seen
	assert.Equal(t, []string{"Shared", "OvenA", "OvenB"}, idx.Names())
	assert.Equal(t, []string{"OvenA"}, idx.ByDataset("dataset1"))
	assert.Equal(t, []string{"Shared"}, idx.ByDataset("dataset3"))
}

func TestResolve(t *testing.T) {
	idx := Build(newStore(t,
		table.NewDataset("dataset1", []string{"DATETIME", "DATE", "OvenA", "OvenB", "LCL", "UCL"}, nil),
	))

	ds, err := idx.Resolve("OvenA")
	require.NoError(t, err)
	assert.Equal(t, "dataset1", ds)

	_, err = idx.Resolve("OvenZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMeasurement))
	assert.Contains(t, err.Error(), "OvenZ")

	_, err = idx.Resolve("LCL")
	assert.True(t, errors.Is(err, ErrUnknownMeasurement))
}

func TestNamesReturnsCopy(t *testing.T) {
	idx := Build(newStore(t, table.NewDataset("d", []string{"A"}, nil)))
	names := idx.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"A"}, idx.Names())
}

func TestBuildNamesBlankAndDuplicateColumns(t *testing.T) {
	store := newStore(t,
		table.NewDataset("dataset1", []string{"DATETIME", "DATE", "", "OvenA", "  ", "OvenA"}, nil),
	)
	idx := Build(store)

	assert.Equal(t, []string{"Unnamed: 2", "OvenA", "Unnamed: 4", "OvenA.1"}, idx.Names())
	_, ok := idx.Lookup("")
	assert.False(t, ok)
	owner, ok := idx.Lookup("OvenA.1")
	require.True(t, ok)
	assert.Equal(t, "dataset1", owner)
}
