package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskKind is the explicit variant a task row resolves to. Classification
// happens exactly once per record through Classify; call sites never poke
// at id substrings themselves.
type TaskKind int

const (
	// KindPlain is an independent one-off task. Related tasks land here
	// too: they carry a parent_task_id but are never overrides.
	KindPlain TaskKind = iota
	// KindTemplate is a recurring-task definition.
	KindTemplate
	// KindPersistedOverride is a durably edited single occurrence of a
	// template, persisted under its own row id.
	KindPersistedOverride
	// KindVirtualInstance is a synthesized occurrence that exists only in
	// the in-memory working set.
	KindVirtualInstance
)

func (k TaskKind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindTemplate:
		return "template"
	case KindPersistedOverride:
		return "persisted_override"
	case KindVirtualInstance:
		return "virtual_instance"
	default:
		return "unknown"
	}
}

// InstanceRef names one occurrence of a template by (template, day). It is
// the only identity a virtual instance has; keeping it a distinct type from
// TaskID stops synthetic ids from leaking into foreign keys.
type InstanceRef struct {
	TemplateID TaskID
	Date       time.Time
}

// TaskID renders the synthetic in-memory id "{templateID}_{YYYY-MM-DD}".
func (r InstanceRef) TaskID() TaskID {
	return TaskID(fmt.Sprintf("%s_%s", r.TemplateID, DateString(r.Date)))
}

// DateString returns the occurrence day in canonical form.
func (r InstanceRef) DateString() string {
	return DateString(r.Date)
}

// ParseInstanceID splits a synthetic id back into its InstanceRef. The
// second return is false for any id that is not of the synthetic form,
// persisted UUIDs included.
func ParseInstanceID(id TaskID) (InstanceRef, bool) {
	tpl, day, ok := strings.Cut(string(id), "_")
	if !ok {
		return InstanceRef{}, false
	}
	if _, err := uuid.Parse(tpl); err != nil {
		return InstanceRef{}, false
	}
	date, err := ParseDateString(day)
	if err != nil {
		return InstanceRef{}, false
	}
	return InstanceRef{TemplateID: TaskID(tpl), Date: date}, true
}

// IsSynthetic reports whether id has the virtual-instance shape.
func IsSynthetic(id TaskID) bool {
	_, ok := ParseInstanceID(id)
	return ok
}

// Classify resolves a task row to its variant.
//
// Related tasks share the parent_task_id field with overrides, so the type
// check comes before any parent inspection.
func Classify(t *Task) TaskKind {
	if t.IsTemplate {
		return KindTemplate
	}
	if t.ParentTaskID == nil || t.Type == TaskTypeRelated {
		return KindPlain
	}
	if IsSynthetic(t.ID) {
		return KindVirtualInstance
	}
	return KindPersistedOverride
}

// Ref returns the occurrence reference for a virtual instance or override.
// ok is false when the task has no parent or no due date.
func (t *Task) Ref() (InstanceRef, bool) {
	if t.ParentTaskID == nil || t.DueDate == nil {
		return InstanceRef{}, false
	}
	return InstanceRef{TemplateID: *t.ParentTaskID, Date: Midnight(*t.DueDate)}, true
}
