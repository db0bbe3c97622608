package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplan/core/internal/domain/entities"
	"github.com/dayplan/core/internal/infrastructure/logger"
	"github.com/dayplan/core/internal/ports"
)

var errStoreDown = errors.New("store unavailable")

func newCoordinatorUnderTest(t *testing.T, rows ...*entities.Task) (*Coordinator, *fakeStore) {
	t.Helper()
	store := newFakeStore(rows...)
	set := NewWorkingSet(BuildCollection(rows, 3))
	return NewCoordinator(set, store, logger.Nop(), 3), store
}

func strPtr(s string) *string { return &s }

func TestCoordinator_Toggle_Plain(t *testing.T) {
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic}
	coord, store := newCoordinatorUnderTest(t, plain)

	require.NoError(t, coord.Toggle(context.Background(), plain.ID))

	got, _ := coord.Set().Get(plain.ID)
	assert.True(t, got.Completed)
	assert.True(t, store.rows[plain.ID].Completed)

	require.NoError(t, coord.Toggle(context.Background(), plain.ID))
	got, _ = coord.Set().Get(plain.ID)
	assert.False(t, got.Completed)
}

func TestCoordinator_Toggle_PlainWriteFailureReverts(t *testing.T) {
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic}
	coord, store := newCoordinatorUnderTest(t, plain)
	store.fail("update", errStoreDown)

	// Write failures are logged, never surfaced.
	require.NoError(t, coord.Toggle(context.Background(), plain.ID))

	got, _ := coord.Set().Get(plain.ID)
	assert.False(t, got.Completed)
	assert.False(t, store.rows[plain.ID].Completed)
}

func TestCoordinator_Toggle_Template_NoOp(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	coord, store := newCoordinatorUnderTest(t, tpl)

	require.NoError(t, coord.Toggle(context.Background(), tpl.ID))
	assert.NotContains(t, store.calls, "update")
}

func TestCoordinator_Toggle_VirtualInstance(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	coord, store := newCoordinatorUnderTest(t, tpl)

	inst, ok := coord.Set().Occurrence(tpl.ID, "2026-02-04")
	require.True(t, ok)

	require.NoError(t, coord.Toggle(context.Background(), inst.ID))

	got, _ := coord.Set().Get(inst.ID)
	assert.True(t, got.Completed)
	// The done state lands in the owning template's completed-date set.
	assert.Equal(t, []string{"2026-02-04"}, store.rows[tpl.ID].CompletedDates)

	// Untoggling removes the entry again.
	require.NoError(t, coord.Toggle(context.Background(), inst.ID))
	got, _ = coord.Set().Get(inst.ID)
	assert.False(t, got.Completed)
	assert.Empty(t, store.rows[tpl.ID].CompletedDates)
}

func TestCoordinator_Toggle_VirtualWriteFailureRevertsBoth(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	coord, store := newCoordinatorUnderTest(t, tpl)
	store.fail("update", errStoreDown)

	inst, _ := coord.Set().Occurrence(tpl.ID, "2026-02-02")
	require.NoError(t, coord.Toggle(context.Background(), inst.ID))

	got, _ := coord.Set().Get(inst.ID)
	assert.False(t, got.Completed)
	tplNow, _ := coord.Set().Get(tpl.ID)
	assert.Empty(t, tplNow.CompletedDates)
	assert.Empty(t, store.rows[tpl.ID].CompletedDates)
}

func TestCoordinator_Toggle_UnknownID(t *testing.T) {
	coord, _ := newCoordinatorUnderTest(t)
	err := coord.Toggle(context.Background(), entities.NewTaskID())
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestCoordinator_Update_Plain(t *testing.T) {
	due := date(2026, time.March, 1)
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic, DueDate: &due}
	coord, store := newCoordinatorUnderTest(t, plain)

	newDue := date(2026, time.March, 5)
	req := ports.UpdateTaskRequest{Title: strPtr("renamed"), DueDate: &newDue}
	require.NoError(t, coord.Update(context.Background(), plain.ID, req))

	got, _ := coord.Set().Get(plain.ID)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, newDue, *got.DueDate)
	assert.Equal(t, "renamed", store.rows[plain.ID].Title)
}

func TestCoordinator_Update_Promotion(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	coord, store := newCoordinatorUnderTest(t, tpl)

	inst, ok := coord.Set().Occurrence(tpl.ID, "2026-02-04")
	require.True(t, ok)
	syntheticID := inst.ID

	req := ports.UpdateTaskRequest{Title: strPtr("moved meeting")}
	require.NoError(t, coord.Update(context.Background(), syntheticID, req))

	// The synthetic id is gone; the occurrence now resolves to a persisted
	// row under a fresh real id.
	_, ok = coord.Set().Get(syntheticID)
	assert.False(t, ok)

	promoted, ok := coord.Set().Occurrence(tpl.ID, "2026-02-04")
	require.True(t, ok)
	assert.False(t, entities.IsSynthetic(promoted.ID))
	assert.Equal(t, "moved meeting", promoted.Title)
	assert.Equal(t, entities.KindPersistedOverride, entities.Classify(promoted))

	// Same calendar date, same parent.
	assert.Equal(t, "2026-02-04", entities.DateString(*promoted.DueDate))
	require.NotNil(t, promoted.ParentTaskID)
	assert.Equal(t, tpl.ID, *promoted.ParentTaskID)

	stored, ok := store.rows[promoted.ID]
	require.True(t, ok)
	assert.Equal(t, "moved meeting", stored.Title)
}

func TestCoordinator_Update_PromotionKeepsCalendarDate(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	coord, _ := newCoordinatorUnderTest(t, tpl)

	inst, _ := coord.Set().Occurrence(tpl.ID, "2026-02-02")

	// A due-date patch pointing at another day only contributes its time of
	// day; the occurrence stays keyed to 02-02.
	moved := time.Date(2026, time.February, 20, 16, 30, 0, 0, time.Local)
	require.NoError(t, coord.Update(context.Background(), inst.ID, ports.UpdateTaskRequest{DueDate: &moved}))

	promoted, ok := coord.Set().Occurrence(tpl.ID, "2026-02-02")
	require.True(t, ok)
	assert.Equal(t, "2026-02-02", entities.DateString(*promoted.DueDate))
	assert.Equal(t, 16, promoted.DueDate.Hour())
	assert.Equal(t, 30, promoted.DueDate.Minute())
}

func TestCoordinator_Update_PromotionInsertFailureRestoresInstance(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	coord, store := newCoordinatorUnderTest(t, tpl)
	store.fail("insert", errStoreDown)

	inst, _ := coord.Set().Occurrence(tpl.ID, "2026-02-02")
	require.NoError(t, coord.Update(context.Background(), inst.ID, ports.UpdateTaskRequest{Title: strPtr("edited")}))

	back, ok := coord.Set().Occurrence(tpl.ID, "2026-02-02")
	require.True(t, ok)
	assert.Equal(t, inst.ID, back.ID)
	assert.Equal(t, tpl.Title, back.Title)
	assert.Len(t, store.rows, 1)
}

func TestCoordinator_Update_TemplateTitlePropagates(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "my own wording")
	coord, store := newCoordinatorUnderTest(t, tpl, ov)

	require.NoError(t, coord.Update(context.Background(), tpl.ID, ports.UpdateTaskRequest{Title: strPtr("Evening review")}))

	tplNow, _ := coord.Set().Get(tpl.ID)
	assert.Equal(t, "Evening review", tplNow.Title)
	assert.Equal(t, "Evening review", store.rows[tpl.ID].Title)

	for _, inst := range coord.Set().VirtualInstancesOf(tpl.ID) {
		assert.Equal(t, "Evening review", inst.Title)
	}

	// Overrides keep their own edited copy.
	ovNow, _ := coord.Set().Get(ov.ID)
	assert.Equal(t, "my own wording", ovNow.Title)
}

func TestCoordinator_Update_TemplateWriteFailureReverts(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	coord, store := newCoordinatorUnderTest(t, tpl)
	store.fail("update", errStoreDown)

	require.NoError(t, coord.Update(context.Background(), tpl.ID, ports.UpdateTaskRequest{Title: strPtr("renamed")}))

	tplNow, _ := coord.Set().Get(tpl.ID)
	assert.Equal(t, tpl.Title, tplNow.Title)
	for _, inst := range coord.Set().VirtualInstancesOf(tpl.ID) {
		assert.Equal(t, tpl.Title, inst.Title)
	}
}

func TestCoordinator_Update_ScheduleEditRematerializes(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	coord, _ := newCoordinatorUnderTest(t, tpl)

	req := ports.UpdateTaskRequest{DaysSelected: []time.Weekday{time.Friday}}
	require.NoError(t, coord.Update(context.Background(), tpl.ID, req))

	virtuals := coord.Set().VirtualInstancesOf(tpl.ID)
	require.Len(t, virtuals, 1)
	assert.Equal(t, time.Friday, virtuals[0].DueDate.Weekday())
	assert.Equal(t, "2026-02-06", entities.DateString(*virtuals[0].DueDate))
}

func TestCoordinator_Update_ScheduleEditDropsOrphanedOverrides(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	keep := overrideOf(tpl, date(2026, time.February, 4), "kept")
	orphan := overrideOf(tpl, date(2026, time.February, 9), "stranded")
	coord, store := newCoordinatorUnderTest(t, tpl, keep, orphan)

	// Shrink the range so 02-09 falls out of it.
	newEnd := date(2026, time.February, 5)
	require.NoError(t, coord.Update(context.Background(), tpl.ID, ports.UpdateTaskRequest{EndDate: &newEnd}))

	_, ok := coord.Set().Get(orphan.ID)
	assert.False(t, ok)
	_, ok = store.rows[orphan.ID]
	assert.False(t, ok)

	// The in-range override still occupies its occurrence.
	occ, ok := coord.Set().Occurrence(tpl.ID, "2026-02-04")
	require.True(t, ok)
	assert.Equal(t, keep.ID, occ.ID)
}

func TestCoordinator_Update_UnknownID(t *testing.T) {
	coord, _ := newCoordinatorUnderTest(t)
	err := coord.Update(context.Background(), entities.NewTaskID(), ports.UpdateTaskRequest{})
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestCoordinator_Delete_PlainUnlinksRelated(t *testing.T) {
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic}
	parent := plain.ID
	related := &entities.Task{
		ID:           entities.NewTaskID(),
		Title:        "follow-up",
		Type:         entities.TaskTypeRelated,
		ParentTaskID: &parent,
	}
	coord, store := newCoordinatorUnderTest(t, plain, related)

	require.NoError(t, coord.Delete(context.Background(), plain.ID))

	_, ok := coord.Set().Get(plain.ID)
	assert.False(t, ok)
	_, ok = store.rows[plain.ID]
	assert.False(t, ok)

	// The related task survives without a parent.
	rel, ok := coord.Set().Get(related.ID)
	require.True(t, ok)
	assert.Nil(t, rel.ParentTaskID)
	assert.Nil(t, store.rows[related.ID].ParentTaskID)
}

func TestCoordinator_Delete_PlainWriteFailureReverts(t *testing.T) {
	plain := &entities.Task{ID: entities.NewTaskID(), Title: "one-off", Type: entities.TaskTypeBasic}
	coord, store := newCoordinatorUnderTest(t, plain)
	store.fail("delete", errStoreDown)

	require.NoError(t, coord.Delete(context.Background(), plain.ID))

	_, ok := coord.Set().Get(plain.ID)
	assert.True(t, ok)
	_, ok = store.rows[plain.ID]
	assert.True(t, ok)
}

func TestCoordinator_Delete_TemplateCascades(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "edited")
	parent := tpl.ID
	related := &entities.Task{
		ID:           entities.NewTaskID(),
		Title:        "follow-up",
		Type:         entities.TaskTypeRelated,
		ParentTaskID: &parent,
	}
	coord, store := newCoordinatorUnderTest(t, tpl, ov, related)

	require.NoError(t, coord.Delete(context.Background(), tpl.ID))

	_, ok := coord.Set().Get(tpl.ID)
	assert.False(t, ok)
	_, ok = coord.Set().Get(ov.ID)
	assert.False(t, ok)
	assert.Empty(t, coord.Set().VirtualInstancesOf(tpl.ID))

	_, ok = store.rows[tpl.ID]
	assert.False(t, ok)
	_, ok = store.rows[ov.ID]
	assert.False(t, ok)

	rel, ok := coord.Set().Get(related.ID)
	require.True(t, ok)
	assert.Nil(t, rel.ParentTaskID)
}

func TestCoordinator_Delete_OverrideExcludesDate(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "edited")
	coord, store := newCoordinatorUnderTest(t, tpl, ov)

	require.NoError(t, coord.Delete(context.Background(), ov.ID))

	_, ok := coord.Set().Get(ov.ID)
	assert.False(t, ok)
	_, ok = store.rows[ov.ID]
	assert.False(t, ok)

	// The exclusion stops expansion from regenerating the occurrence.
	tplNow, _ := coord.Set().Get(tpl.ID)
	assert.Equal(t, []string{"2026-02-04"}, tplNow.ExcludedDates)
	assert.Equal(t, []string{"2026-02-04"}, store.rows[tpl.ID].ExcludedDates)

	_, ok = coord.Set().Occurrence(tpl.ID, "2026-02-04")
	assert.False(t, ok)
}

func TestCoordinator_Delete_OverrideExclusionFailureLeavesRowDeleted(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	ov := overrideOf(tpl, date(2026, time.February, 4), "edited")
	coord, store := newCoordinatorUnderTest(t, tpl, ov)
	store.fail("update", errStoreDown)

	require.NoError(t, coord.Delete(context.Background(), ov.ID))

	// The row delete already happened remotely; only the exclusion step is
	// reverted locally.
	_, ok := store.rows[ov.ID]
	assert.False(t, ok)
	tplNow, _ := coord.Set().Get(tpl.ID)
	assert.Empty(t, tplNow.ExcludedDates)
}

func TestCoordinator_Delete_VirtualExcludesDate(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday, time.Wednesday)
	coord, store := newCoordinatorUnderTest(t, tpl)

	inst, _ := coord.Set().Occurrence(tpl.ID, "2026-02-02")
	require.NoError(t, coord.Delete(context.Background(), inst.ID))

	_, ok := coord.Set().Get(inst.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{"2026-02-02"}, store.rows[tpl.ID].ExcludedDates)
}

func TestCoordinator_Delete_VirtualWriteFailureReverts(t *testing.T) {
	tpl := routineTemplate(date(2026, time.February, 1), date(2026, time.February, 10), time.Monday)
	coord, store := newCoordinatorUnderTest(t, tpl)
	store.fail("update", errStoreDown)

	inst, _ := coord.Set().Occurrence(tpl.ID, "2026-02-02")
	require.NoError(t, coord.Delete(context.Background(), inst.ID))

	_, ok := coord.Set().Get(inst.ID)
	assert.True(t, ok)
	tplNow, _ := coord.Set().Get(tpl.ID)
	assert.Empty(t, tplNow.ExcludedDates)
	assert.Empty(t, store.rows[tpl.ID].ExcludedDates)
}

func TestCoordinator_Delete_UnknownID(t *testing.T) {
	coord, _ := newCoordinatorUnderTest(t)
	err := coord.Delete(context.Background(), entities.NewTaskID())
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}
