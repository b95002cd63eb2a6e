package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// Scenario defines a conformance test scenario.
// Scenarios drive a record (or several) through a sequence of lifecycle
// actions and assert on each step's outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Actors declares scenario-specific actors, keyed by user ID.
	// The standard cast (agent, registration-agent, registrar, admin)
	// is always available; entries here override or extend it.
	Actors map[string]ActorSpec `yaml:"actors,omitempty"`

	// Steps is the sequence of actions to apply.
	Steps []Step `yaml:"steps"`
}

// ActorSpec declares a scenario-specific actor.
type ActorSpec struct {
	Role   string   `yaml:"role"`
	Scopes []string `yaml:"scopes"`
}

// Step applies one action to a record.
type Step struct {
	// Actor names who performs the action.
	Actor string `yaml:"actor"`

	// Action is the action type (CREATE, DECLARE, REGISTER, ...).
	Action string `yaml:"action"`

	// Record is an alias naming which record the step targets.
	// Defaults to "main"; scenarios touching several records give each
	// its own alias.
	Record string `yaml:"record,omitempty"`

	// EventType is required for CREATE steps.
	EventType string `yaml:"event_type,omitempty"`

	// Txn is the transaction ID. Defaults to "txn-<step number>";
	// idempotency scenarios set it explicitly to collide on purpose.
	Txn string `yaml:"txn,omitempty"`

	// BaseVersion overrides the optimistic concurrency check input.
	// Unset means "the record's current version", which always passes.
	BaseVersion *int `yaml:"base_version,omitempty"`

	// Declaration holds field-path keyed values for the action.
	Declaration map[string]any `yaml:"declaration,omitempty"`

	// Metadata holds action metadata (approval notes, revoke reasons).
	Metadata map[string]any `yaml:"metadata,omitempty"`

	// Expect validates the step's outcome. Nil means the step is
	// assumed to be accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Status is the expected record status after the step.
	Status string `yaml:"status,omitempty"`

	// Error is the expected rejection code (INVALID_TRANSITION, ...).
	// Empty means the step must be accepted.
	Error string `yaml:"error,omitempty"`

	// Noop is true when the step must be absorbed as a duplicate
	// transaction without appending to history.
	Noop bool `yaml:"noop,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "step:" vs "steps:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario under dir, sorted by filename.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for name, actor := range s.Actors {
		if actor.Role == "" {
			return fmt.Errorf("actors[%s]: role is required", name)
		}
	}

	for i, step := range s.Steps {
		if step.Actor == "" {
			return fmt.Errorf("steps[%d]: actor is required", i)
		}
		if step.Action == "" {
			return fmt.Errorf("steps[%d]: action is required", i)
		}
		if record.ActionType(step.Action) == record.ActionCreate && step.EventType == "" {
			return fmt.Errorf("steps[%d]: event_type is required for CREATE", i)
		}
		if step.Expect != nil && step.Expect.Noop && step.Expect.Error != "" {
			return fmt.Errorf("steps[%d].expect: noop and error are mutually exclusive", i)
		}
	}

	return nil
}
