package todo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-apps/internal/models"
	"todo-apps/internal/todo"
)

func TestStore_AddPreservesInsertionOrder(t *testing.T) {
	s := todo.NewStore()
	ids := []int64{30, 10, 20}
	for _, id := range ids {
		require.NoError(t, s.Add(models.Task{ID: id, Title: "t", DueDate: "2024-01-01"}))
	}

	list := s.List()
	require.Len(t, list, 3)
	for i, id := range ids {
		assert.Equal(t, id, list[i].ID)
	}
}

func TestStore_AddRejectsDuplicateID(t *testing.T) {
	s := todo.NewStore()
	require.NoError(t, s.Add(models.Task{ID: 1, Title: "a"}))

	err := s.Add(models.Task{ID: 1, Title: "b"})
	require.ErrorIs(t, err, todo.ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_FindByID(t *testing.T) {
	s := todo.NewStore()
	require.NoError(t, s.Add(models.Task{ID: 1, Title: "Buy milk", DueDate: "2024-01-01"}))
	require.NoError(t, s.Add(models.Task{ID: 2, Title: "Walk dog", DueDate: "2024-01-02"}))

	task, ok := s.FindByID(2)
	require.True(t, ok)
	assert.Equal(t, "Walk dog", task.Title)

	idx, ok := s.FindIndexByID(2)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = s.FindByID(99)
	assert.False(t, ok)
	idx, ok = s.FindIndexByID(99)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestStore_SetCompletedRoundTrip(t *testing.T) {
	s := todo.NewStore()
	original := models.Task{ID: 7, Title: "Buy milk", DueDate: "2024-01-01"}
	require.NoError(t, s.Add(original))

	assert.Equal(t, todo.Applied, s.SetCompleted(7, true))
	task, _ := s.FindByID(7)
	assert.True(t, task.Completed)

	assert.Equal(t, todo.Applied, s.SetCompleted(7, false))
	task, _ = s.FindByID(7)
	assert.Equal(t, original, task)
}

func TestStore_MissingIDIsNoOp(t *testing.T) {
	s := todo.NewStore()
	require.NoError(t, s.Add(models.Task{ID: 1, Title: "a"}))
	before := s.List()

	assert.Equal(t, todo.NotFound, s.SetCompleted(42, true))
	assert.Equal(t, todo.NotFound, s.Remove(42))
	assert.Equal(t, before, s.List())
}

func TestStore_Remove(t *testing.T) {
	s := todo.NewStore()
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.Add(models.Task{ID: id}))
	}

	assert.Equal(t, todo.Applied, s.Remove(2))

	_, ok := s.FindByID(2)
	assert.False(t, ok)
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := todo.NewStore()
	require.NoError(t, s.Add(models.Task{ID: 1, Title: "a"}))

	list := s.List()
	list[0].Title = "changed"

	task, _ := s.FindByID(1)
	assert.Equal(t, "a", task.Title)
}

func TestPartitionTasks(t *testing.T) {
	pending, completed := todo.PartitionTasks([]models.Task{
		{ID: 1, Completed: false},
		{ID: 2, Completed: true},
		{ID: 3, Completed: false},
	})
	require.Len(t, pending, 2)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(1), pending[0].ID)
	assert.Equal(t, int64(3), pending[1].ID)
	assert.Equal(t, int64(2), completed[0].ID)

	pending, completed = todo.PartitionTasks(nil)
	assert.NotNil(t, pending)
	assert.NotNil(t, completed)
}

func TestStore_ReplaceRejectsDuplicates(t *testing.T) {
	s := todo.NewStore()
	require.NoError(t, s.Add(models.Task{ID: 5}))

	err := s.Replace([]models.Task{{ID: 1}, {ID: 1}})
	require.ErrorIs(t, err, todo.ErrDuplicateID)
	assert.Equal(t, []models.Task{{ID: 5}}, s.List())
}

func TestIDGenerator_SameMillisecondStaysUnique(t *testing.T) {
	frozen := time.UnixMilli(1704067200000)
	g := todo.NewIDGenerator(func() time.Time { return frozen })

	first := g.Next()
	second := g.Next()
	third := g.Next()

	assert.Equal(t, int64(1704067200000), first)
	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
}

func TestIDGenerator_ClockGoingBackwards(t *testing.T) {
	now := time.UnixMilli(2000)
	g := todo.NewIDGenerator(func() time.Time { return now })

	a := g.Next()
	now = time.UnixMilli(1000)
	b := g.Next()

	assert.Greater(t, b, a)
}

func TestIDGenerator_ObserveRaisesFloor(t *testing.T) {
	g := todo.NewIDGenerator(func() time.Time { return time.UnixMilli(100) })
	g.Observe(500)

	assert.Equal(t, int64(501), g.Next())

	g.Observe(10)
	assert.Equal(t, int64(502), g.Next())
}

func TestStore_AddsWithGeneratedIDsAreUnique(t *testing.T) {
	g := todo.NewIDGenerator(func() time.Time { return time.UnixMilli(1) })
	s := todo.NewStore()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Add(models.Task{ID: g.Next(), Title: "same ms"}))
	}

	seen := map[int64]bool{}
	for _, task := range s.List() {
		assert.False(t, seen[task.ID], "duplicate id %d", task.ID)
		seen[task.ID] = true
	}
	assert.Len(t, seen, 50)
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "applied", todo.Applied.String())
	assert.Equal(t, "not_found", todo.NotFound.String())
	assert.Equal(t, "not_completed", todo.NotCompleted.String())
}
