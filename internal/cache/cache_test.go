package cache

import (
	"context"
	"testing"
	"time"

	"guesstimate/internal/datasets"
	"guesstimate/internal/stats"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	r, err := NewRedis(context.Background(), mr.Addr(), ttl)
	require.NoError(t, err)

	return r, mr
}

func sampleEntry(key string) Entry {
	return Entry{
		Key: key,
		Datasets: &datasets.Datasets{
			All:        []datasets.Bubble{{X: 2, Y: 3, R: 6}},
			Throughput: stats.Summary{Count: 4, Sum: 10, Average: 2.5, Median: 2.5},
		},
		StoredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// exerciseSlot checks the single-slot contract shared by every Store.
func exerciseSlot(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got, "empty store should miss")

	require.NoError(t, s.Save(ctx, sampleEntry("a")))

	got, err = s.Load(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Key)
	assert.Equal(t, 2.5, got.Datasets.Throughput.Median)
	assert.Equal(t, 6, got.Datasets.All[0].R)

	got, err = s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got, "different key should miss")

	require.NoError(t, s.Save(ctx, sampleEntry("b")))
	got, err = s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got, "saving b should evict a")

	require.NoError(t, s.Reset(ctx))
	got, err = s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got, "reset should clear the slot")
}

func TestMemory(t *testing.T) {
	exerciseSlot(t, NewMemory())
}

func TestMemory_LoadReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, sampleEntry("a")))

	got, _ := m.Load(ctx, "a")
	got.Key = "mutated"

	again, _ := m.Load(ctx, "a")
	require.NotNil(t, again)
	assert.Equal(t, "a", again.Key)
}

func TestRedis(t *testing.T) {
	r, mr := setupTestRedis(t, time.Hour)
	defer mr.Close()
	defer func() { _ = r.Close() }()

	exerciseSlot(t, r)
}

func TestRedis_Expires(t *testing.T) {
	r, mr := setupTestRedis(t, time.Minute)
	defer mr.Close()
	defer func() { _ = r.Close() }()

	ctx := context.Background()
	require.NoError(t, r.Save(ctx, sampleEntry("a")))

	mr.FastForward(2 * time.Minute)

	got, err := r.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_ErrorEntry(t *testing.T) {
	r, mr := setupTestRedis(t, 0)
	defer mr.Close()
	defer func() { _ = r.Close() }()

	ctx := context.Background()
	msg := "Field 'foo' does not exist"
	require.NoError(t, r.Save(ctx, Entry{Key: "a", Error: &msg}))

	got, err := r.Load(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Error)
	assert.Equal(t, msg, *got.Error)
	assert.Nil(t, got.Datasets)
}

func TestNewRedis_InvalidAddress(t *testing.T) {
	_, err := NewRedis(context.Background(), "invalid:99999", 0)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.NotEqual(t, Key("me@a", "project = X"), Key("me@b", "project = X"))
	assert.Equal(t, Key("me@a", "project = X"), Key("me@a", "project = X"))
}
