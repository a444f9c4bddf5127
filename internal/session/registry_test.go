package session

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovenprofile/internal/table"
)

func TestRegistryCreateGetDelete(t *testing.T) {
	loads := 0
	r := NewRegistry(func(ctx context.Context) (*table.Store, error) {
		loads++
		return testStore(t), nil
	}, 0)

	a, err := r.Create(context.Background())
	require.NoError(t, err)
	b, err := r.Create(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, loads, "each session loads its own store")
	assert.NotSame(t, a.Store(), b.Store())
	assert.Equal(t, 2, r.Len())

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	assert.True(t, r.Delete(a.ID))
	assert.False(t, r.Delete(a.ID))
	_, err = r.Get(a.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistryLoadFailure(t *testing.T) {
	loadErr := &table.LoadError{Source: "dataset1", Path: "x.xlsx", Err: table.ErrMissingSheet}
	r := NewRegistry(func(ctx context.Context) (*table.Store, error) {
		return nil, loadErr
	}, 0)

	s, err := r.Create(context.Background())
	assert.Nil(t, s)
	var le *table.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(func(ctx context.Context) (*table.Store, error) {
		return testStore(t), nil
	}, 10*time.Minute)
	r.now = func() time.Time { return now }

	idle, err := r.Create(context.Background())
	require.NoError(t, err)
	busy, err := r.Create(context.Background())
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	_, err = r.Get(busy.ID)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Expire())

	_, err = r.Get(idle.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = r.Get(busy.ID)
	assert.NoError(t, err)
}

func TestRegistryRunStopsOnCancel(t *testing.T) {
	r := NewRegistry(func(ctx context.Context) (*table.Store, error) {
		return testStore(t), nil
	}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
