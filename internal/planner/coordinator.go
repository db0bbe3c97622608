package planner

import (
	"context"
	"time"

	"github.com/dayplan/core/internal/domain/entities"
	"github.com/dayplan/core/internal/infrastructure/logger"
	"github.com/dayplan/core/internal/ports"
)

// Coordinator routes toggle/update/delete actions to the correct write
// path based on what the target is: a plain task, a template, a persisted
// override, or a virtual instance. Every mutation is applied to the
// working set optimistically before the record-store write is issued; a
// write failure reverts the in-memory change and is logged rather than
// surfaced as a blocking error.
//
// Multi-step mutations issue sequential independent writes with no
// transaction scope. A failure partway through reverts only the in-memory
// step it belongs to; remote writes already applied stay applied.
type Coordinator struct {
	set     *WorkingSet
	store   ports.TaskStore
	log     *logger.Logger
	horizon int
}

// NewCoordinator wires a coordinator to a working set and a record store.
func NewCoordinator(set *WorkingSet, store ports.TaskStore, log *logger.Logger, horizonMonths int) *Coordinator {
	if horizonMonths <= 0 {
		horizonMonths = entities.DefaultHorizonMonths
	}
	return &Coordinator{set: set, store: store, log: log, horizon: horizonMonths}
}

// Set exposes the working set the coordinator mutates.
func (c *Coordinator) Set() *WorkingSet {
	return c.set
}

// command captures the pre-state of every in-memory record a mutation
// touches, so revert logic lives in one place instead of being duplicated
// per operation.
type command struct {
	set   *WorkingSet
	undos []func()
}

func newCommand(set *WorkingSet) *command {
	return &command{set: set}
}

// put applies an optimistic replacement or insertion.
func (c *command) put(t *entities.Task) {
	prev, existed := c.set.Get(t.ID)
	c.set.Put(t)
	if existed {
		c.undos = append(c.undos, func() { c.set.Put(prev) })
	} else {
		id := t.ID
		c.undos = append(c.undos, func() { c.set.Remove(id) })
	}
}

// remove applies an optimistic removal.
func (c *command) remove(id entities.TaskID) {
	prev, ok := c.set.Remove(id)
	if !ok {
		return
	}
	c.undos = append(c.undos, func() { c.set.Put(prev) })
}

// replace swaps a record for one under a new id, as promotion does.
func (c *command) replace(oldID entities.TaskID, t *entities.Task) {
	prev, existed := c.set.Get(oldID)
	c.set.Replace(oldID, t)
	newID := t.ID
	if existed {
		c.undos = append(c.undos, func() { c.set.Replace(newID, prev) })
	} else {
		c.undos = append(c.undos, func() { c.set.Remove(newID) })
	}
}

// rollback reverts the optimistic changes in reverse order.
func (c *command) rollback() {
	for i := len(c.undos) - 1; i >= 0; i-- {
		c.undos[i]()
	}
	c.undos = nil
}

// Toggle flips the completed state of a task.
//
// Plain tasks and persisted overrides own their completed flag, so the
// flip is written to their row. A virtual instance has no row; its done
// state lives in the owning template's completed_dates set, which is read,
// modified and written back as a whole. Templates themselves have no done
// state and toggling one is a no-op.
func (c *Coordinator) Toggle(ctx context.Context, id entities.TaskID) error {
	t, ok := c.set.Get(id)
	if !ok {
		return entities.ErrTaskNotFound
	}

	switch entities.Classify(t) {
	case entities.KindTemplate:
		return nil

	case entities.KindPlain, entities.KindPersistedOverride:
		cmd := newCommand(c.set)
		upd := t.Clone()
		upd.Completed = !t.Completed
		upd.UpdatedAt = time.Now()
		cmd.put(upd)

		if err := c.store.Update(ctx, upd); err != nil {
			cmd.rollback()
			c.log.LogWriteFailure("toggle", string(id), err)
		}
		return nil

	default: // KindVirtualInstance
		ref, ok := t.Ref()
		if !ok {
			return entities.ErrOrphanedInstance
		}
		tpl, ok := c.set.Get(ref.TemplateID)
		if !ok {
			return entities.ErrOrphanedInstance
		}

		cmd := newCommand(c.set)
		inst := t.Clone()
		inst.Completed = !t.Completed
		cmd.put(inst)

		tplUpd := tpl.Clone()
		tplUpd.CompletedDates = tpl.WithCompletedDate(ref.DateString(), inst.Completed)
		tplUpd.UpdatedAt = time.Now()
		cmd.put(tplUpd)

		if err := c.store.Update(ctx, tplUpd); err != nil {
			cmd.rollback()
			c.log.LogWriteFailure("toggle", string(id), err)
		}
		return nil
	}
}

// Update patches a task's fields.
//
// Plain tasks and overrides are written in place. A virtual instance is
// promoted: a brand-new row is persisted with the instance's fields plus
// the patch, and it replaces the instance in the working set. A template
// edit either propagates title/notes to its materialized instances or, for
// schedule-defining fields, throws the instances away and rematerializes.
func (c *Coordinator) Update(ctx context.Context, id entities.TaskID, req ports.UpdateTaskRequest) error {
	t, ok := c.set.Get(id)
	if !ok {
		return entities.ErrTaskNotFound
	}

	switch entities.Classify(t) {
	case entities.KindPlain, entities.KindPersistedOverride:
		return c.updateRow(ctx, t, req)
	case entities.KindTemplate:
		return c.updateTemplate(ctx, t, req)
	default:
		return c.promote(ctx, t, req)
	}
}

func (c *Coordinator) updateRow(ctx context.Context, t *entities.Task, req ports.UpdateTaskRequest) error {
	cmd := newCommand(c.set)
	upd := t.Clone()
	applyRowPatch(upd, req)
	upd.UpdatedAt = time.Now()
	cmd.put(upd)

	if err := c.store.Update(ctx, upd); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("update", string(t.ID), err)
	}
	return nil
}

func (c *Coordinator) updateTemplate(ctx context.Context, tpl *entities.Task, req ports.UpdateTaskRequest) error {
	cmd := newCommand(c.set)
	upd := tpl.Clone()
	applyRowPatch(upd, req)
	applySchedulePatch(upd, req)
	upd.UpdatedAt = time.Now()
	cmd.put(upd)

	if !req.TouchesSchedule() {
		// A pure title/notes edit flows into the materialized virtual
		// instances in place. Overrides keep their own edited copy; that
		// is the point of having overridden them.
		for _, inst := range c.set.VirtualInstancesOf(tpl.ID) {
			patched := inst.Clone()
			if req.Title != nil {
				patched.Title = *req.Title
			}
			if req.Notes != nil {
				n := *req.Notes
				patched.Notes = &n
			}
			cmd.put(patched)
		}
	}

	if err := c.store.Update(ctx, upd); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("update", string(tpl.ID), err)
		return nil
	}

	if req.TouchesSchedule() {
		c.rematerialize(ctx, upd)
	}
	return nil
}

// rematerialize rebuilds a template's occurrences after a schedule edit:
// current virtual instances are discarded, overrides whose date fell out
// of the new range are deleted, and expansion, materialization and
// reconciliation run again over what remains.
func (c *Coordinator) rematerialize(ctx context.Context, tpl *entities.Task) {
	for _, inst := range c.set.VirtualInstancesOf(tpl.ID) {
		c.set.Remove(inst.ID)
	}

	end := entities.Midnight(tpl.EffectiveEndDate(c.horizon))
	var start time.Time
	if tpl.StartDate != nil {
		start = entities.Midnight(*tpl.StartDate)
	}

	var overrides []*entities.Task
	for _, child := range c.set.ChildrenOf(tpl.ID) {
		if entities.Classify(child) != entities.KindPersistedOverride {
			continue
		}
		if child.DueDate != nil {
			due := entities.Midnight(*child.DueDate)
			if due.Before(start) || due.After(end) {
				// The occurrence no longer exists under the new schedule;
				// keeping the row would leave it permanently unreachable.
				c.set.Remove(child.ID)
				if err := c.store.Delete(ctx, child.ID); err != nil {
					c.log.LogWriteFailure("delete", string(child.ID), err)
				}
				continue
			}
		}
		overrides = append(overrides, child)
	}

	idx := NewOverrideIndex(overrides)
	for _, occ := range Reconcile(tpl, idx, c.horizon) {
		c.set.Put(occ)
	}
}

// promote turns a virtual instance into a persisted override. The new row
// copies the instance's current fields plus the patch under a freshly
// generated id; its calendar date and parent never change, so the
// reconciler surfaces it at the same occurrence from then on.
func (c *Coordinator) promote(ctx context.Context, inst *entities.Task, req ports.UpdateTaskRequest) error {
	ref, ok := inst.Ref()
	if !ok {
		return entities.ErrOrphanedInstance
	}

	row := inst.Clone()
	row.ID = entities.NewTaskID()
	if req.Title != nil {
		row.Title = *req.Title
	}
	if req.Notes != nil {
		n := *req.Notes
		row.Notes = &n
	}
	if req.DueDate != nil {
		// Only the time of day moves; the occurrence stays keyed to its
		// original calendar date.
		d := ref.Date
		h, m, s := req.DueDate.Clock()
		due := time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, d.Location())
		row.DueDate = &due
	}
	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now

	cmd := newCommand(c.set)
	cmd.replace(inst.ID, row)

	if err := c.store.Insert(ctx, row); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("promote", string(inst.ID), err)
	}
	return nil
}

// Delete removes a task.
//
// Deleting a template cascades to its override rows and drops its
// materialized instances; related children are unlinked, not deleted.
// Deleting an override or a virtual instance records the date in the
// owning template's excluded_dates so expansion never regenerates it.
func (c *Coordinator) Delete(ctx context.Context, id entities.TaskID) error {
	t, ok := c.set.Get(id)
	if !ok {
		return entities.ErrTaskNotFound
	}

	switch entities.Classify(t) {
	case entities.KindPlain:
		return c.deletePlain(ctx, t)
	case entities.KindTemplate:
		return c.deleteTemplate(ctx, t)
	case entities.KindPersistedOverride:
		return c.deleteOverride(ctx, t)
	default:
		return c.deleteVirtual(ctx, t)
	}
}

func (c *Coordinator) deletePlain(ctx context.Context, t *entities.Task) error {
	cmd := newCommand(c.set)
	cmd.remove(t.ID)
	for _, child := range c.set.ChildrenOf(t.ID) {
		unlinked := child.Clone()
		unlinked.ParentTaskID = nil
		cmd.put(unlinked)
	}

	if err := c.store.Delete(ctx, t.ID); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("delete", string(t.ID), err)
		return nil
	}
	if err := c.store.ClearParent(ctx, t.ID); err != nil {
		c.log.LogWriteFailure("unlink", string(t.ID), err)
	}
	return nil
}

func (c *Coordinator) deleteTemplate(ctx context.Context, tpl *entities.Task) error {
	cmd := newCommand(c.set)
	cmd.remove(tpl.ID)
	for _, child := range c.set.ChildrenOf(tpl.ID) {
		switch entities.Classify(child) {
		case entities.KindVirtualInstance, entities.KindPersistedOverride:
			cmd.remove(child.ID)
		default:
			unlinked := child.Clone()
			unlinked.ParentTaskID = nil
			cmd.put(unlinked)
		}
	}

	if err := c.store.Delete(ctx, tpl.ID); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("delete", string(tpl.ID), err)
		return nil
	}
	if err := c.store.DeleteOverrides(ctx, tpl.ID); err != nil {
		c.log.LogWriteFailure("delete_overrides", string(tpl.ID), err)
	}
	if err := c.store.ClearParent(ctx, tpl.ID); err != nil {
		c.log.LogWriteFailure("unlink", string(tpl.ID), err)
	}
	return nil
}

func (c *Coordinator) deleteOverride(ctx context.Context, ov *entities.Task) error {
	ref, _ := ov.Ref()

	cmd := newCommand(c.set)
	cmd.remove(ov.ID)
	if err := c.store.Delete(ctx, ov.ID); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("delete", string(ov.ID), err)
		return nil
	}

	// Exclusion is a second, independent write: a failure here leaves the
	// row deleted remotely and only the exclusion reverted locally.
	if tpl, ok := c.set.Get(ref.TemplateID); ok {
		c.excludeDate(ctx, tpl, ref.DateString())
	}
	return nil
}

func (c *Coordinator) deleteVirtual(ctx context.Context, inst *entities.Task) error {
	ref, ok := inst.Ref()
	if !ok {
		return entities.ErrOrphanedInstance
	}
	tpl, ok := c.set.Get(ref.TemplateID)
	if !ok {
		return entities.ErrOrphanedInstance
	}

	cmd := newCommand(c.set)
	cmd.remove(inst.ID)
	tplUpd := tpl.Clone()
	tplUpd.ExcludedDates = tpl.WithExcludedDate(ref.DateString())
	tplUpd.UpdatedAt = time.Now()
	cmd.put(tplUpd)

	if err := c.store.Update(ctx, tplUpd); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("delete", string(inst.ID), err)
	}
	return nil
}

func (c *Coordinator) excludeDate(ctx context.Context, tpl *entities.Task, dateStr string) {
	cmd := newCommand(c.set)
	tplUpd := tpl.Clone()
	tplUpd.ExcludedDates = tpl.WithExcludedDate(dateStr)
	tplUpd.UpdatedAt = time.Now()
	cmd.put(tplUpd)

	if err := c.store.Update(ctx, tplUpd); err != nil {
		cmd.rollback()
		c.log.LogWriteFailure("exclude", string(tpl.ID), err)
	}
}

func applyRowPatch(t *entities.Task, req ports.UpdateTaskRequest) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Notes != nil {
		n := *req.Notes
		t.Notes = &n
	}
	if req.DueDate != nil {
		d := *req.DueDate
		t.DueDate = &d
	}
}

func applySchedulePatch(t *entities.Task, req ports.UpdateTaskRequest) {
	if req.StartDate != nil {
		d := entities.Midnight(*req.StartDate)
		t.StartDate = &d
	}
	if req.EndDate != nil {
		d := entities.Midnight(*req.EndDate)
		t.EndDate = &d
	}
	if req.DaysSelected != nil {
		t.DaysSelected = append([]time.Weekday(nil), req.DaysSelected...)
	}
	if req.RecurrenceInterval != nil {
		i := *req.RecurrenceInterval
		t.RecurrenceInterval = &i
	}
}
