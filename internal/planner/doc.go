// Package planner implements the recurrence engine behind DayPlan: it
// expands recurring-task templates into concrete calendar dates,
// materializes virtual instances for those dates, reconciles persisted
// per-occurrence overrides into the result, and routes user mutations
// (toggle, edit, delete) to the correct write path through an optimistic
// coordinator.
//
// The pipeline is pure and deterministic: rows in, unified collection out.
// Virtual instances are synthesized on every load and never persisted;
// state lives entirely in template rows, override rows and plain task
// rows held by the record store.
package planner
