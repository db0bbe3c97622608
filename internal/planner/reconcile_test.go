package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplan/core/internal/domain/entities"
)

func overrideOf(tpl *entities.Task, day time.Time, title string) *entities.Task {
	parent := tpl.ID
	due := day
	return &entities.Task{
		ID:           entities.NewTaskID(),
		UserID:       tpl.UserID,
		Title:        title,
		Type:         tpl.Type,
		DueDate:      &due,
		ParentTaskID: &parent,
	}
}

func TestPartition(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	ov := overrideOf(tpl, date(2026, time.February, 2), "edited")
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic}

	parent := plain.ID
	related := &entities.Task{
		ID:           entities.NewTaskID(),
		Title:        "follow-up",
		Type:         entities.TaskTypeRelated,
		ParentTaskID: &parent,
	}

	p := Partition([]*entities.Task{tpl, ov, plain, related})
	assert.Equal(t, []*entities.Task{tpl}, p.Templates)
	assert.Equal(t, []*entities.Task{ov}, p.Overrides)
	// Related tasks carry a parent but are never overrides.
	assert.Equal(t, []*entities.Task{plain, related}, p.Plain)
}

func TestOverrideIndex_Lookup(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	ov := overrideOf(tpl, date(2026, time.February, 2), "edited")

	idx := NewOverrideIndex([]*entities.Task{ov})

	got, ok := idx.Lookup(tpl.ID, "2026-02-02")
	require.True(t, ok)
	assert.Equal(t, ov.ID, got.ID)

	_, ok = idx.Lookup(tpl.ID, "2026-02-09")
	assert.False(t, ok)
}

func TestOverrideIndex_SkipsUnaddressableRows(t *testing.T) {
	orphan := &entities.Task{ID: entities.NewTaskID(), Title: "no parent"}
	idx := NewOverrideIndex([]*entities.Task{orphan})
	assert.Empty(t, idx)
}

func TestReconcile_SubstitutesOverride(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "moved meeting")
	idx := NewOverrideIndex([]*entities.Task{ov})

	got := Reconcile(tpl, idx, 3)
	require.Len(t, got, 3)

	assert.True(t, entities.IsSynthetic(got[0].ID))
	assert.Equal(t, ov.ID, got[1].ID)
	assert.Equal(t, "moved meeting", got[1].Title)
	assert.True(t, entities.IsSynthetic(got[2].ID))
}

func TestReconcile_Idempotent(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "moved meeting")
	idx := NewOverrideIndex([]*entities.Task{ov})

	first := Reconcile(tpl, idx, 3)
	second := Reconcile(tpl, idx, 3)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestBuildCollection_OnePerOccurrence(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "moved meeting")
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic}

	got := BuildCollection([]*entities.Task{tpl, ov, plain}, 3)

	// plain + template + three occurrences, never the override twice.
	require.Len(t, got, 5)

	var overrideHits, feb4Hits int
	for _, task := range got {
		if task.ID == ov.ID {
			overrideHits++
		}
		if !task.IsTemplate && task.DueDate != nil && entities.DateString(*task.DueDate) == "2026-02-04" {
			feb4Hits++
		}
	}
	assert.Equal(t, 1, overrideHits)
	assert.Equal(t, 1, feb4Hits)
}

func TestBuildRangeCollection_FiltersAfterReconciliation(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 2), "moved meeting")

	got := BuildRangeCollection(
		[]*entities.Task{tpl, ov},
		date(2026, time.February, 3),
		date(2026, time.February, 10),
		3,
	)

	// The override occupies 02-02 and falls outside the window; no virtual
	// instance may resurface at that date in its place.
	var dueDates []string
	for _, task := range got {
		if task.IsTemplate {
			continue
		}
		dueDates = append(dueDates, entities.DateString(*task.DueDate))
		assert.NotEqual(t, ov.ID, task.ID)
	}
	assert.Equal(t, []string{"2026-02-04", "2026-02-09"}, dueDates)
}

func TestBuildRangeCollection_KeepsTemplates(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)

	got := BuildRangeCollection(
		[]*entities.Task{tpl},
		date(2026, time.June, 1),
		date(2026, time.June, 30),
		3,
	)

	require.Len(t, got, 1)
	assert.Equal(t, tpl.ID, got[0].ID)
}
