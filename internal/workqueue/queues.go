package workqueue

import (
	"context"
	"fmt"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

// Queue is a named, declarative view over record state.
type Queue struct {
	// Slug is the stable identifier used in URLs and CLI arguments.
	Slug string

	// Title is the human-readable queue name.
	Title string

	// Filter selects queue members from current state.
	Filter Predicate

	// ActorRelative marks queues whose filter binds the requesting user.
	ActorRelative bool
}

// Queues lists every defined work queue, in display order.
//
// ARCHIVED and REVOKED records appear in no queue: they are reachable by
// direct lookup only, which is what keeps closed records off office
// screens without deleting anything.
var Queues = []Queue{
	{
		Slug:   "pending-declaration",
		Title:  "Pending declaration",
		Filter: StatusIn{Statuses: []record.Status{record.StatusInProgress, record.StatusNotified}},
	},
	{
		Slug:  "ready-for-review",
		Title: "Ready for review",
		Filter: And{Predicates: []Predicate{
			StatusIn{Statuses: []record.Status{record.StatusDeclared}},
			NotFlag{Flag: record.FlagPotentialDuplicate},
		}},
	},
	{
		Slug:   "ready-to-register",
		Title:  "Ready to register",
		Filter: StatusIn{Statuses: []record.Status{record.StatusValidated}},
	},
	{
		Slug:   "requires-updates",
		Title:  "Requires updates",
		Filter: StatusIn{Statuses: []record.Status{record.StatusRejected}},
	},
	{
		Slug:  "waiting-for-approval",
		Title: "Waiting for late-registration approval",
		Filter: And{Predicates: []Predicate{
			StatusIn{Statuses: []record.Status{record.StatusDeclared, record.StatusValidated}},
			HasFlag{Flag: record.FlagRequiresLateApproval},
		}},
	},
	{
		Slug:   "potential-duplicates",
		Title:  "Potential duplicates",
		Filter: HasFlag{Flag: record.FlagPotentialDuplicate},
	},
	{
		Slug:   "correction-requests",
		Title:  "Correction requests",
		Filter: HasFlag{Flag: record.FlagCorrectionRequested},
	},
	{
		Slug:   "ready-to-print",
		Title:  "Ready to print",
		Filter: StatusIn{Statuses: []record.Status{record.StatusRegistered}},
	},
	{
		Slug:   "pending-issuance",
		Title:  "Pending issuance",
		Filter: StatusIn{Statuses: []record.Status{record.StatusCertified}},
	},
	{
		Slug:          "assigned-to-me",
		Title:         "Assigned to me",
		Filter:        AssignedToActor{},
		ActorRelative: true,
	},
}

// BySlug looks up a queue definition.
func BySlug(slug string) (Queue, bool) {
	for _, q := range Queues {
		if q.Slug == slug {
			return q, true
		}
	}
	return Queue{}, false
}

// List evaluates a queue against the store and returns its current
// members. actorID is required for actor-relative queues and ignored
// otherwise.
func List(ctx context.Context, s *store.Store, q Queue, actorID string) ([]store.StateRow, error) {
	c := &Compiler{ActorID: actorID}
	where, params, err := c.Compile(q.Filter)
	if err != nil {
		return nil, fmt.Errorf("queue %s: %w", q.Slug, err)
	}
	rows, err := s.QueryStates(ctx, where, params...)
	if err != nil {
		return nil, fmt.Errorf("queue %s: %w", q.Slug, err)
	}
	return rows, nil
}
