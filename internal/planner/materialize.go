package planner

import (
	"time"

	"github.com/dayplan/core/internal/domain/entities"
)

// Materialize turns expanded dates into virtual instance records for a
// template. Dates in the template's excluded set produce nothing. Each
// instance copies the template's descriptive fields, takes the expanded
// date as its due date, and answers "done" from the template's
// completed-date set.
//
// Instances are synthesized fresh on every call; their synthetic ids are
// recomputed identically each time and are never persisted.
func Materialize(tpl *entities.Task, dates []time.Time) []*entities.Task {
	out := make([]*entities.Task, 0, len(dates))
	for _, date := range dates {
		dateStr := entities.DateString(date)
		if tpl.HasExcludedDate(dateStr) {
			continue
		}
		out = append(out, newInstance(tpl, date, dateStr))
	}
	return out
}

func newInstance(tpl *entities.Task, date time.Time, dateStr string) *entities.Task {
	ref := entities.InstanceRef{TemplateID: tpl.ID, Date: date}
	due := date
	parent := tpl.ID

	inst := &entities.Task{
		ID:           ref.TaskID(),
		UserID:       tpl.UserID,
		Title:        tpl.Title,
		Type:         tpl.Type,
		DueDate:      &due,
		Completed:    tpl.HasCompletedDate(dateStr),
		IsTemplate:   false,
		ParentTaskID: &parent,
		CreatedAt:    tpl.CreatedAt,
		UpdatedAt:    tpl.UpdatedAt,
	}
	if tpl.Notes != nil {
		n := *tpl.Notes
		inst.Notes = &n
	}
	return inst
}
