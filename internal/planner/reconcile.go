package planner

import (
	"time"

	"github.com/dayplan/core/internal/domain/entities"
)

// occurrenceKey addresses one occurrence of one template by calendar day.
type occurrenceKey struct {
	parent entities.TaskID
	date   string
}

// Partitioned splits the persisted rows of a user by variant.
type Partitioned struct {
	Templates []*entities.Task
	Plain     []*entities.Task
	Overrides []*entities.Task
}

// Partition classifies every persisted row once. Related tasks fall into
// Plain even though they carry a parent_task_id.
func Partition(rows []*entities.Task) Partitioned {
	var p Partitioned
	for _, row := range rows {
		switch entities.Classify(row) {
		case entities.KindTemplate:
			p.Templates = append(p.Templates, row)
		case entities.KindPersistedOverride:
			p.Overrides = append(p.Overrides, row)
		default:
			p.Plain = append(p.Plain, row)
		}
	}
	return p
}

// OverrideIndex looks up a persisted override by (template, day) in O(1).
type OverrideIndex map[occurrenceKey]*entities.Task

// NewOverrideIndex indexes override rows by their occurrence reference.
// Overrides without a parent or due date cannot be addressed and are skipped.
func NewOverrideIndex(overrides []*entities.Task) OverrideIndex {
	idx := make(OverrideIndex, len(overrides))
	for _, ov := range overrides {
		ref, ok := ov.Ref()
		if !ok {
			continue
		}
		idx[occurrenceKey{parent: ref.TemplateID, date: ref.DateString()}] = ov
	}
	return idx
}

// Lookup returns the override for a template occurrence, if one exists.
func (idx OverrideIndex) Lookup(parent entities.TaskID, dateStr string) (*entities.Task, bool) {
	ov, ok := idx[occurrenceKey{parent: parent, date: dateStr}]
	return ov, ok
}

// Reconcile expands and materializes one template, substituting persisted
// overrides for synthesized instances date by date. The result holds at
// most one occurrence per eligible date: the override where one exists, the
// virtual instance otherwise.
func Reconcile(tpl *entities.Task, idx OverrideIndex, horizonMonths int) []*entities.Task {
	instances := Materialize(tpl, ExpandTemplate(tpl, horizonMonths))
	for i, inst := range instances {
		if ov, ok := idx.Lookup(tpl.ID, entities.DateString(*inst.DueDate)); ok {
			instances[i] = ov
		}
	}
	return instances
}

// BuildCollection turns the full set of persisted rows into the unified
// in-memory collection: template rows, plain tasks, and one occurrence per
// template per eligible date.
func BuildCollection(rows []*entities.Task, horizonMonths int) []*entities.Task {
	p := Partition(rows)
	idx := NewOverrideIndex(p.Overrides)

	out := make([]*entities.Task, 0, len(rows))
	out = append(out, p.Plain...)
	for _, tpl := range p.Templates {
		out = append(out, tpl)
		out = append(out, Reconcile(tpl, idx, horizonMonths)...)
	}
	return out
}

// BuildRangeCollection builds the unified collection for a bounded date
// range. Reconciliation runs over the template's full schedule first and
// only then discards occurrences outside [from, to]; filtering candidate
// dates up front would let an override surface at the wrong date.
func BuildRangeCollection(rows []*entities.Task, from, to time.Time, horizonMonths int) []*entities.Task {
	from = entities.Midnight(from)
	to = entities.Midnight(to)

	full := BuildCollection(rows, horizonMonths)
	out := make([]*entities.Task, 0, len(full))
	for _, t := range full {
		if t.IsTemplate {
			out = append(out, t)
			continue
		}
		if t.DueDate != nil {
			due := entities.Midnight(*t.DueDate)
			if due.Before(from) || due.After(to) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
