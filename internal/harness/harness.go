// Package harness executes YAML conformance scenarios against the
// lifecycle engine.
//
// Scenarios run with a fresh logical clock, a deterministic timeline,
// and alias-derived event IDs, so the same scenario always produces a
// byte-identical trace. Golden files pin those traces down.
package harness

import (
	"fmt"
	"time"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/schema"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/testutil"
)

// BaseTime is the timestamp of the first action in every scenario run.
var BaseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes a scenario and returns its trace and expectation
// results. An error means the scenario itself is broken (unknown
// actor, bad declaration value); expectation mismatches are reported
// through Result.Errors instead.
func Run(s *Scenario) (*Result, error) {
	reg, err := schema.Load()
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}

	timeline := testutil.NewTimeline(BaseTime, time.Second)
	eng := engine.New(reg,
		engine.WithClock(engine.NewClock()),
		engine.WithNow(timeline.Next),
	)

	actors := testutil.StandardActors()
	for name, spec := range s.Actors {
		actor := record.ActorContext{UserID: name, Role: spec.Role}
		for _, sc := range spec.Scopes {
			actor.Scopes = append(actor.Scopes, record.Scope(sc))
		}
		actors[name] = actor
	}

	result := NewResult()
	records := result.Records

	for i, step := range s.Steps {
		stepNo := i + 1

		actor, ok := actors[step.Actor]
		if !ok {
			return nil, fmt.Errorf("step %d: unknown actor %q", stepNo, step.Actor)
		}

		alias := step.Record
		if alias == "" {
			alias = "main"
		}
		rec := records[alias]

		in, err := buildInput(step, stepNo, alias, rec)
		if err != nil {
			return nil, err
		}

		out, applyErr := eng.Apply(rec, in, actor)

		event := TraceEvent{
			Step:   stepNo,
			Record: alias,
			Action: step.Action,
			Actor:  step.Actor,
		}
		switch {
		case applyErr != nil:
			event.Outcome = OutcomeRejected
			event.Error = string(engine.CodeOf(applyErr))
			event.Status = string(rec.Status)
		case rec.ID != "" && out.Version() == rec.Version():
			event.Outcome = OutcomeNoop
			event.Status = string(out.Status)
			records[alias] = out
		default:
			event.Outcome = OutcomeAccepted
			event.Seq = out.History[len(out.History)-1].Seq
			event.Status = string(out.Status)
			for _, fl := range out.Flags {
				event.Flags = append(event.Flags, string(fl))
			}
			records[alias] = out
		}

		result.Trace = append(result.Trace, event)
		checkExpect(result, stepNo, step.Expect, event, applyErr)
	}

	return result, nil
}

// buildInput converts a scenario step into an engine input.
//
// Event IDs derive from the record alias and transaction IDs from the
// step number, so identity stays stable across runs without any UUIDs.
func buildInput(step Step, stepNo int, alias string, rec record.Record) (engine.ActionInput, error) {
	decl, err := record.DeclarationFromAny(step.Declaration)
	if err != nil {
		return engine.ActionInput{}, fmt.Errorf("step %d: declaration: %w", stepNo, err)
	}
	meta, err := record.DeclarationFromAny(step.Metadata)
	if err != nil {
		return engine.ActionInput{}, fmt.Errorf("step %d: metadata: %w", stepNo, err)
	}

	txn := step.Txn
	if txn == "" {
		txn = fmt.Sprintf("txn-%03d", stepNo)
	}

	base := rec.Version()
	if step.BaseVersion != nil {
		base = *step.BaseVersion
	}

	in := engine.ActionInput{
		Type:          record.ActionType(step.Action),
		TransactionID: txn,
		BaseVersion:   base,
		Declaration:   decl,
		Metadata:      record.Metadata(meta),
		EventType:     record.EventType(step.EventType),
	}
	if in.Type == record.ActionCreate {
		in.EventID = "evt-" + alias
	}
	return in, nil
}

// checkExpect compares a step's outcome against its expect clause.
func checkExpect(result *Result, stepNo int, exp *ExpectClause, event TraceEvent, applyErr error) {
	if exp == nil {
		if applyErr != nil {
			result.AddError(fmt.Sprintf("step %d: unexpected rejection: %v", stepNo, applyErr))
		}
		return
	}

	switch {
	case exp.Error != "":
		if event.Error != exp.Error {
			result.AddError(fmt.Sprintf("step %d: expected rejection %s, got outcome %s (%s)",
				stepNo, exp.Error, event.Outcome, event.Error))
		}
	case applyErr != nil:
		result.AddError(fmt.Sprintf("step %d: unexpected rejection: %v", stepNo, applyErr))
	}

	if exp.Noop && event.Outcome != OutcomeNoop {
		result.AddError(fmt.Sprintf("step %d: expected duplicate no-op, got %s", stepNo, event.Outcome))
	}
	if exp.Status != "" && event.Status != exp.Status {
		result.AddError(fmt.Sprintf("step %d: expected status %s, got %s", stepNo, exp.Status, event.Status))
	}
}
