package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-apps/internal/models"
	"todo-apps/internal/repositories"
	"todo-apps/internal/services"
	"todo-apps/internal/todo"
)

const testKey = "TODO_APPS"

type recorder struct {
	calls [][]models.Task
}

func (r *recorder) OnListChanged(tasks []models.Task) {
	r.calls = append(r.calls, tasks)
}

func newPersistence(t *testing.T, kv repositories.KVStore, recoverMalformed bool) (*services.Persistence, *recorder) {
	t.Helper()
	p, err := services.NewPersistence(kv, testKey, recoverMalformed)
	require.NoError(t, err)
	rec := &recorder{}
	p.Subscribe(rec)
	return p, rec
}

func TestPersistence_SaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := repositories.NewMemoryKVStore()
	p, rec := newPersistence(t, kv, false)

	tasks := []models.Task{
		{ID: 3, Title: "Buy milk", DueDate: "2024-01-01", Completed: false},
		{ID: 1, Title: "Pay rent", DueDate: "2024-02-01", Completed: true},
		{ID: 2, Title: "Call mom", DueDate: "2024-03-01", Completed: false},
	}
	require.NoError(t, p.Save(ctx, tasks))
	require.Len(t, rec.calls, 1, "save should notify once")

	store := todo.NewStore()
	require.NoError(t, p.Load(ctx, store))
	assert.Equal(t, tasks, store.List())
	require.Len(t, rec.calls, 2, "load should notify once")
	assert.Equal(t, tasks, rec.calls[1])
}

func TestPersistence_SaveUsesOriginalWireFormat(t *testing.T) {
	ctx := context.Background()
	kv := repositories.NewMemoryKVStore()
	p, _ := newPersistence(t, kv, false)

	require.NoError(t, p.Save(ctx, []models.Task{{ID: 1704067200000, Title: "Buy milk", DueDate: "2024-01-01"}}))

	raw, ok, err := kv.Get(ctx, testKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":1704067200000,"task":"Buy milk","timestamp":"2024-01-01","isCompleted":false}]`, raw)
}

func TestPersistence_SaveEmptyListWritesArray(t *testing.T) {
	ctx := context.Background()
	kv := repositories.NewMemoryKVStore()
	p, _ := newPersistence(t, kv, false)

	require.NoError(t, p.Save(ctx, nil))
	raw, _, err := kv.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestPersistence_LoadAbsentKeyIsEmpty(t *testing.T) {
	p, rec := newPersistence(t, repositories.NewMemoryKVStore(), false)
	store := todo.NewStore()

	require.NoError(t, p.Load(context.Background(), store))
	assert.Equal(t, 0, store.Len())
	require.Len(t, rec.calls, 1)
	assert.Empty(t, rec.calls[0])
}

func TestPersistence_LoadNullIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := repositories.NewMemoryKVStore()
	require.NoError(t, kv.Set(ctx, testKey, "null"))
	p, _ := newPersistence(t, kv, false)
	store := todo.NewStore()

	require.NoError(t, p.Load(ctx, store))
	assert.Equal(t, 0, store.Len())
}

func TestPersistence_LoadMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `{oops`,
		"not an array":     `{"id":1}`,
		"missing field":    `[{"id":1,"task":"a","timestamp":"2024-01-01"}]`,
		"wrong type":       `[{"id":"1","task":"a","timestamp":"2024-01-01","isCompleted":false}]`,
		"fractional id":    `[{"id":1.5,"task":"a","timestamp":"2024-01-01","isCompleted":false}]`,
		"duplicate ids":    `[{"id":1,"task":"a","timestamp":"x","isCompleted":false},{"id":1,"task":"b","timestamp":"y","isCompleted":true}]`,
		"completed as 0/1": `[{"id":1,"task":"a","timestamp":"2024-01-01","isCompleted":0}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := repositories.NewMemoryKVStore()
			require.NoError(t, kv.Set(ctx, testKey, raw))

			p, rec := newPersistence(t, kv, false)
			store := todo.NewStore()
			err := p.Load(ctx, store)
			require.ErrorIs(t, err, services.ErrMalformedData)
			assert.Empty(t, rec.calls, "no notification on failed load")

			recovering, rec2 := newPersistence(t, kv, true)
			store = todo.NewStore()
			require.NoError(t, recovering.Load(ctx, store))
			assert.Equal(t, 0, store.Len())
			assert.Len(t, rec2.calls, 1)
		})
	}
}

func TestPersistence_SaveWithoutStorageStillNotifies(t *testing.T) {
	p, rec := newPersistence(t, nil, false)

	err := p.Save(context.Background(), []models.Task{{ID: 1, Title: "a", DueDate: "b"}})
	require.ErrorIs(t, err, repositories.ErrStorageUnavailable)
	require.Len(t, rec.calls, 1)
	assert.Len(t, rec.calls[0], 1)
	assert.False(t, p.Available(context.Background()))
}

func TestPersistence_SaveWhileOffline(t *testing.T) {
	ctx := context.Background()
	kv := repositories.NewMemoryKVStore()
	p, rec := newPersistence(t, kv, false)
	kv.SetOffline(true)

	err := p.Save(ctx, []models.Task{{ID: 1}})
	require.ErrorIs(t, err, repositories.ErrStorageUnavailable)
	assert.Len(t, rec.calls, 1)

	kv.SetOffline(false)
	_, ok, err := kv.Get(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, ok, "nothing should have been written")
}

func TestPersistence_ListenerFunc(t *testing.T) {
	p, err := services.NewPersistence(repositories.NewMemoryKVStore(), testKey, false)
	require.NoError(t, err)

	var got int
	p.Subscribe(services.ListenerFunc(func(tasks []models.Task) { got = len(tasks) }))
	require.NoError(t, p.Save(context.Background(), []models.Task{{ID: 1}, {ID: 2}}))
	assert.Equal(t, 2, got)
}

func TestPersistence_ReadFailureIsStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	kv := &unreadableKV{MemoryKVStore: repositories.NewMemoryKVStore(), getErr: errors.New("read timeout")}
	p, rec := newPersistence(t, kv, false)

	require.True(t, p.Available(ctx))
	_, err := p.Fetch(ctx)
	assert.ErrorIs(t, err, repositories.ErrStorageUnavailable)

	store := todo.NewStore()
	assert.ErrorIs(t, p.Load(ctx, store), repositories.ErrStorageUnavailable)
	assert.Empty(t, rec.calls)
}

func TestPersistence_FetchDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	kv := repositories.NewMemoryKVStore()
	require.NoError(t, kv.Set(ctx, testKey, `[{"id":1,"task":"a","timestamp":"2024-01-01","isCompleted":false}]`))
	p, rec := newPersistence(t, kv, false)

	tasks, err := p.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Task{{ID: 1, Title: "a", DueDate: "2024-01-01"}}, tasks)
	assert.Empty(t, rec.calls)
}
