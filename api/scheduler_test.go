package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/core/store"
)

func TestStatusOn(t *testing.T) {
	task := core.Task{Start: core.NewDate(2025, time.March, 1), End: core.NewDate(2025, time.March, 31)}

	tests := []struct {
		today core.Date
		want  core.TaskStatus
	}{
		{core.NewDate(2025, time.February, 28), core.TaskPlanned},
		{core.NewDate(2025, time.March, 1), core.TaskOngoing},
		{core.NewDate(2025, time.March, 31), core.TaskOngoing},
		{core.NewDate(2025, time.April, 1), core.TaskDone},
	}
	for _, tt := range tests {
		got, ok := StatusOn(task, tt.today)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, tt.today.String())
	}

	_, ok := StatusOn(core.Task{Start: task.Start}, tests[0].today)
	assert.False(t, ok, "no end date")
}

func TestStatusScheduler_RunNow(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	for _, task := range []core.Task{
		{ID: "done", Start: core.NewDate(2025, time.January, 6), End: core.NewDate(2025, time.January, 31), Status: core.TaskOngoing},
		{ID: "running", Start: core.NewDate(2025, time.March, 1), End: core.NewDate(2025, time.March, 31), Status: core.TaskPlanned},
		{ID: "later", Start: core.NewDate(2025, time.August, 1), End: core.NewDate(2025, time.August, 31), Status: core.TaskPlanned},
		{ID: "undated", Status: core.TaskPlanned},
	} {
		require.NoError(t, m.SaveTask(ctx, task))
	}

	s := NewStatusScheduler(m, nil)
	s.Today = func() core.Date { return core.NewDate(2025, time.March, 15) }

	changed, err := s.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	want := map[core.TaskID]core.TaskStatus{
		"done":    core.TaskDone,
		"running": core.TaskOngoing,
		"later":   core.TaskPlanned,
		"undated": core.TaskPlanned,
	}
	for id, status := range want {
		task, err := m.GetTask(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, task.Status, string(id))
	}

	// Second pass has nothing to do
	changed, err = s.RunNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestStatusScheduler_StartStop(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.SaveTask(context.Background(), core.Task{
		ID: "t1", Start: core.NewDate(2020, time.January, 1), End: core.NewDate(2020, time.January, 31), Status: core.TaskPlanned,
	}))

	s := NewStatusScheduler(m, nil)
	s.CheckInterval = time.Hour
	s.Start()
	s.Stop()
	s.Stop()

	// The immediate pass on Start ran before Stop returned
	task, err := m.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, core.TaskDone, task.Status)
}
