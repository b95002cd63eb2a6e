package harness

import "github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"

// Step outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeNoop     = "noop"
)

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Step    int      `json:"step"`
	Record  string   `json:"record"`
	Action  string   `json:"action"`
	Actor   string   `json:"actor"`
	Outcome string   `json:"outcome"`
	Error   string   `json:"error,omitempty"` // rejection code, rejected steps only
	Seq     int64    `json:"seq,omitempty"`   // accepted steps only
	Status  string   `json:"status"`          // record status after the step
	Flags   []string `json:"flags,omitempty"` // derived flags after the step
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause matched.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Records holds the final state of every record the scenario
	// touched, keyed by alias.
	Records map[string]record.Record `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Records: make(map[string]record.Record),
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
