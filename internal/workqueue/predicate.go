// Package workqueue defines the named work queues that drive registration
// office screens, as filters over the record state projection.
//
// A queue is a declarative predicate, not a stored list: membership is
// recomputed from current state on every read, so a record can never be
// stuck in a queue its status no longer justifies.
package workqueue

import "github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"

// Predicate represents a filter condition over record state.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the SQL compiler.
//
// Predicate types:
//   - StatusIn: status is one of the listed values
//   - EventTypeIs: record is of one event type
//   - HasFlag / NotFlag: flag presence tests
//   - AssignedToActor: assignee equals the requesting user
//   - Unassigned: no assignee
//   - And: all predicates must be true
//
// The fragment deliberately excludes OR and negation of arbitrary
// predicates; a screen needing OR semantics gets two queues.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// StatusIn matches records whose status is one of the listed values.
type StatusIn struct {
	Statuses []record.Status
}

func (StatusIn) predicateNode() {}

// EventTypeIs matches records of a single event type.
type EventTypeIs struct {
	Type record.EventType
}

func (EventTypeIs) predicateNode() {}

// HasFlag matches records carrying the flag.
type HasFlag struct {
	Flag record.Flag
}

func (HasFlag) predicateNode() {}

// NotFlag matches records not carrying the flag.
type NotFlag struct {
	Flag record.Flag
}

func (NotFlag) predicateNode() {}

// AssignedToActor matches records assigned to the requesting user.
// The user is bound at query time, not when the queue is defined.
type AssignedToActor struct{}

func (AssignedToActor) predicateNode() {}

// Unassigned matches records with no assignee.
type Unassigned struct{}

func (Unassigned) predicateNode() {}

// And matches when all child predicates match.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
