package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// RunWithGolden executes a scenario and compares its trace against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are canonical JSON, the same serialization used for
// action identity, so a trace diff is always a semantic diff.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s failed:\n%s", scenario.Name, strings.Join(result.Errors, "\n"))
	}

	traceJSON, err := record.MarshalCanonical(snapshotMap(scenario.Name, result.Trace))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}

// snapshotMap flattens a trace into plain maps for canonical
// serialization. Optional fields are omitted rather than zeroed so the
// golden stays minimal.
func snapshotMap(name string, trace []TraceEvent) map[string]any {
	events := make([]any, len(trace))
	for i, e := range trace {
		m := map[string]any{
			"step":    e.Step,
			"record":  e.Record,
			"action":  e.Action,
			"actor":   e.Actor,
			"outcome": e.Outcome,
			"status":  e.Status,
		}
		if e.Error != "" {
			m["error"] = e.Error
		}
		if e.Seq != 0 {
			m["seq"] = e.Seq
		}
		if len(e.Flags) > 0 {
			flags := make([]any, len(e.Flags))
			for j, fl := range e.Flags {
				flags[j] = fl
			}
			m["flags"] = flags
		}
		events[i] = m
	}

	return map[string]any{
		"scenario": name,
		"trace":    events,
	}
}
