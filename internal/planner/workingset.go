package planner

import (
	"github.com/dayplan/core/internal/domain/entities"
)

// WorkingSet is the unified in-memory task collection a client session
// operates on. It is indexed by id and by (parent_task_id, day) so the
// coordinator resolves any occurrence without scanning.
//
// The set is not safe for concurrent use. Execution is event-driven and
// single-threaded; in particular, toggles and deletes that read-modify-write
// a template's date sets must be serialized per template by the caller.
type WorkingSet struct {
	order        []entities.TaskID
	byID         map[entities.TaskID]*entities.Task
	byOccurrence map[occurrenceKey]entities.TaskID
}

// NewWorkingSet builds a working set from a materialized collection.
func NewWorkingSet(tasks []*entities.Task) *WorkingSet {
	ws := &WorkingSet{
		byID:         make(map[entities.TaskID]*entities.Task, len(tasks)),
		byOccurrence: make(map[occurrenceKey]entities.TaskID, len(tasks)),
	}
	for _, t := range tasks {
		ws.Put(t)
	}
	return ws
}

// Get returns the task with the given id.
func (ws *WorkingSet) Get(id entities.TaskID) (*entities.Task, bool) {
	t, ok := ws.byID[id]
	return t, ok
}

// Occurrence returns the single representation of a template occurrence,
// virtual instance or override, whichever is currently in the set.
func (ws *WorkingSet) Occurrence(parent entities.TaskID, dateStr string) (*entities.Task, bool) {
	id, ok := ws.byOccurrence[occurrenceKey{parent: parent, date: dateStr}]
	if !ok {
		return nil, false
	}
	t, ok := ws.byID[id]
	return t, ok
}

// Put inserts or replaces a task. The most recent Put for an id wins.
func (ws *WorkingSet) Put(t *entities.Task) {
	if _, exists := ws.byID[t.ID]; !exists {
		ws.order = append(ws.order, t.ID)
	} else {
		ws.dropOccurrenceIndex(ws.byID[t.ID])
	}
	ws.byID[t.ID] = t
	if key, ok := occurrenceKeyOf(t); ok {
		ws.byOccurrence[key] = t.ID
	}
}

// Remove deletes a task from the set and returns it.
func (ws *WorkingSet) Remove(id entities.TaskID) (*entities.Task, bool) {
	t, ok := ws.byID[id]
	if !ok {
		return nil, false
	}
	delete(ws.byID, id)
	ws.dropOccurrenceIndex(t)
	for i, oid := range ws.order {
		if oid == id {
			ws.order = append(ws.order[:i], ws.order[i+1:]...)
			break
		}
	}
	return t, true
}

// Replace swaps one record for another under a new id, keeping the
// position of the old record. Promotion uses it to substitute a freshly
// persisted override for the virtual instance it grew out of.
func (ws *WorkingSet) Replace(oldID entities.TaskID, t *entities.Task) {
	old, ok := ws.byID[oldID]
	if !ok {
		ws.Put(t)
		return
	}
	delete(ws.byID, oldID)
	ws.dropOccurrenceIndex(old)
	for i, oid := range ws.order {
		if oid == oldID {
			ws.order[i] = t.ID
			break
		}
	}
	ws.byID[t.ID] = t
	if key, ok := occurrenceKeyOf(t); ok {
		ws.byOccurrence[key] = t.ID
	}
}

// Tasks returns the collection in insertion order.
func (ws *WorkingSet) Tasks() []*entities.Task {
	out := make([]*entities.Task, 0, len(ws.order))
	for _, id := range ws.order {
		if t, ok := ws.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of tasks in the set.
func (ws *WorkingSet) Len() int {
	return len(ws.byID)
}

// ChildrenOf returns every non-template task pointing at parent: virtual
// instances, overrides and related tasks alike.
func (ws *WorkingSet) ChildrenOf(parent entities.TaskID) []*entities.Task {
	var out []*entities.Task
	for _, id := range ws.order {
		t, ok := ws.byID[id]
		if !ok || t.IsTemplate {
			continue
		}
		if t.ParentTaskID != nil && *t.ParentTaskID == parent {
			out = append(out, t)
		}
	}
	return out
}

// VirtualInstancesOf returns the currently materialized virtual instances
// of a template.
func (ws *WorkingSet) VirtualInstancesOf(parent entities.TaskID) []*entities.Task {
	var out []*entities.Task
	for _, t := range ws.ChildrenOf(parent) {
		if entities.Classify(t) == entities.KindVirtualInstance {
			out = append(out, t)
		}
	}
	return out
}

func (ws *WorkingSet) dropOccurrenceIndex(t *entities.Task) {
	key, ok := occurrenceKeyOf(t)
	if !ok {
		return
	}
	if id, exists := ws.byOccurrence[key]; exists && id == t.ID {
		delete(ws.byOccurrence, key)
	}
}

// occurrenceKeyOf indexes only occurrence representations: virtual
// instances and persisted overrides. Plain, related and template rows have
// no (parent, day) identity.
func occurrenceKeyOf(t *entities.Task) (occurrenceKey, bool) {
	switch entities.Classify(t) {
	case entities.KindVirtualInstance, entities.KindPersistedOverride:
		ref, ok := t.Ref()
		if !ok {
			return occurrenceKey{}, false
		}
		return occurrenceKey{parent: ref.TemplateID, date: ref.DateString()}, true
	default:
		return occurrenceKey{}, false
	}
}
