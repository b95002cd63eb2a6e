package workqueue

import (
	"fmt"
	"strings"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// Compiler compiles queue predicates to parameterized SQL over the
// record_state projection (aliased rs).
//
// CRITICAL: All values are parameterized (never interpolated).
// Ordering is owned by the store layer, which appends a deterministic
// ORDER BY to every state query.
type Compiler struct {
	// ActorID holds the user bound to AssignedToActor predicates.
	// Must be set before compiling actor-relative queues.
	ActorID string
}

// Compile converts a predicate into a WHERE fragment and its parameters.
func (c *Compiler) Compile(p Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("cannot compile nil predicate")
	}

	switch pred := p.(type) {
	case StatusIn:
		return c.compileStatusIn(pred)
	case *StatusIn:
		return c.compileStatusIn(*pred)
	case EventTypeIs:
		return "rs.event_type = ?", []any{string(pred.Type)}, nil
	case *EventTypeIs:
		return "rs.event_type = ?", []any{string(pred.Type)}, nil
	case HasFlag:
		return c.compileFlag(pred.Flag, true)
	case *HasFlag:
		return c.compileFlag(pred.Flag, true)
	case NotFlag:
		return c.compileFlag(pred.Flag, false)
	case *NotFlag:
		return c.compileFlag(pred.Flag, false)
	case AssignedToActor:
		return c.compileAssigned()
	case *AssignedToActor:
		return c.compileAssigned()
	case Unassigned:
		return "rs.assignee = ''", nil, nil
	case *Unassigned:
		return "rs.assignee = ''", nil, nil
	case And:
		return c.compileAnd(pred)
	case *And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *Compiler) compileStatusIn(p StatusIn) (string, []any, error) {
	if len(p.Statuses) == 0 {
		return "", nil, fmt.Errorf("StatusIn requires at least one status")
	}
	placeholders := make([]string, len(p.Statuses))
	params := make([]any, len(p.Statuses))
	for i, s := range p.Statuses {
		placeholders[i] = "?"
		params[i] = string(s)
	}
	return fmt.Sprintf("rs.status IN (%s)", strings.Join(placeholders, ", ")), params, nil
}

// compileFlag tests flag membership in the JSON array column. The flag is
// matched as a quoted JSON string so substring collisions between flag
// names are impossible.
func (c *Compiler) compileFlag(f record.Flag, present bool) (string, []any, error) {
	needle := fmt.Sprintf("%q", string(f))
	if present {
		return "instr(rs.flags, ?) > 0", []any{needle}, nil
	}
	return "instr(rs.flags, ?) = 0", []any{needle}, nil
}

func (c *Compiler) compileAssigned() (string, []any, error) {
	if c.ActorID == "" {
		return "", nil, fmt.Errorf("AssignedToActor requires a bound actor")
	}
	return "rs.assignee = ?", []any{c.ActorID}, nil
}

func (c *Compiler) compileAnd(p And) (string, []any, error) {
	if len(p.Predicates) == 0 {
		return "", nil, fmt.Errorf("And requires at least one predicate")
	}

	clauses := make([]string, 0, len(p.Predicates))
	var params []any
	for _, child := range p.Predicates {
		sql, childParams, err := c.Compile(child)
		if err != nil {
			return "", nil, fmt.Errorf("compile And child: %w", err)
		}
		clauses = append(clauses, "("+sql+")")
		params = append(params, childParams...)
	}
	return strings.Join(clauses, " AND "), params, nil
}
