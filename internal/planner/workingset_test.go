package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplan/core/internal/domain/entities"
)

func TestWorkingSet_GetAndOccurrence(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	set := NewWorkingSet(BuildCollection([]*entities.Task{tpl}, 3))

	require.Equal(t, 4, set.Len())

	got, ok := set.Get(tpl.ID)
	require.True(t, ok)
	assert.Equal(t, tpl.ID, got.ID)

	occ, ok := set.Occurrence(tpl.ID, "2026-02-04")
	require.True(t, ok)
	assert.Equal(t, "2026-02-04", entities.DateString(*occ.DueDate))

	_, ok = set.Occurrence(tpl.ID, "2026-02-05")
	assert.False(t, ok)
}

func TestWorkingSet_PutLastWriteWins(t *testing.T) {
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "first", Type: entities.TaskTypeBasic}
	set := NewWorkingSet([]*entities.Task{plain})

	upd := plain.Clone()
	upd.Title = "second"
	set.Put(upd)

	require.Equal(t, 1, set.Len())
	got, _ := set.Get(plain.ID)
	assert.Equal(t, "second", got.Title)
}

func TestWorkingSet_Remove(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	set := NewWorkingSet(BuildCollection([]*entities.Task{tpl}, 3))

	inst, ok := set.Occurrence(tpl.ID, "2026-02-02")
	require.True(t, ok)

	removed, ok := set.Remove(inst.ID)
	require.True(t, ok)
	assert.Equal(t, inst.ID, removed.ID)

	_, ok = set.Get(inst.ID)
	assert.False(t, ok)
	_, ok = set.Occurrence(tpl.ID, "2026-02-02")
	assert.False(t, ok)
}

func TestWorkingSet_Replace_KeepsPositionAndReindexes(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	set := NewWorkingSet(BuildCollection([]*entities.Task{tpl}, 3))

	inst, ok := set.Occurrence(tpl.ID, "2026-02-02")
	require.True(t, ok)

	var pos int
	for i, task := range set.Tasks() {
		if task.ID == inst.ID {
			pos = i
		}
	}

	promoted := overrideOf(tpl, date(2026, time.February, 2), "edited once")
	set.Replace(inst.ID, promoted)

	tasks := set.Tasks()
	assert.Equal(t, promoted.ID, tasks[pos].ID)

	_, ok = set.Get(inst.ID)
	assert.False(t, ok)

	occ, ok := set.Occurrence(tpl.ID, "2026-02-02")
	require.True(t, ok)
	assert.Equal(t, promoted.ID, occ.ID)
}

func TestWorkingSet_ChildrenOf(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "edited")

	parent := tpl.ID
	related := &entities.Task{
		ID:           entities.NewTaskID(),
		Title:        "follow-up",
		Type:         entities.TaskTypeRelated,
		ParentTaskID: &parent,
	}

	set := NewWorkingSet(BuildCollection([]*entities.Task{tpl, ov, related}, 3))

	children := set.ChildrenOf(tpl.ID)
	assert.Len(t, children, 4) // two virtuals, one override, one related

	virtuals := set.VirtualInstancesOf(tpl.ID)
	assert.Len(t, virtuals, 2)
	for _, v := range virtuals {
		assert.True(t, entities.IsSynthetic(v.ID))
	}
}

func TestWorkingSet_PlainRowsNotOccurrenceIndexed(t *testing.T) {
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic}
	parent := plain.ID
	related := &entities.Task{
		ID:           entities.NewTaskID(),
		Title:        "follow-up",
		Type:         entities.TaskTypeRelated,
		ParentTaskID: &parent,
	}

	due := date(2026, time.February, 2)
	related.DueDate = &due
	set := NewWorkingSet([]*entities.Task{plain, related})

	_, ok := set.Occurrence(plain.ID, "2026-02-02")
	assert.False(t, ok)
}
