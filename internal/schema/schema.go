// Package schema validates declaration field paths against per-event-type
// schemas defined in CUE.
//
// The schemas are data, not code: declarations.cue enumerates every known
// field path and its value kind for each event type. Country deployments
// adjust the CUE file; the Go code only compiles and enforces it.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

//go:embed declarations.cue
var declarationsCUE string

// Kind is the declared value kind of a field path.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
)

// FieldError reports a single rejected declaration field.
type FieldError struct {
	Path   string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Path, e.Reason)
}

// Registry holds the compiled field schemas for all event types.
type Registry struct {
	fields map[record.EventType]map[string]Kind
}

// Load compiles the embedded CUE schemas into a Registry.
// Called once at startup; a malformed schema file is a programmer error
// and fails loudly rather than degrading to accept-everything.
func Load() (*Registry, error) {
	return LoadSource(declarationsCUE)
}

// LoadSource compiles CUE schema source. Split out from Load so tests and
// country-config overrides can supply their own schema text.
func LoadSource(src string) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile declaration schemas: %w", err)
	}

	reg := &Registry{fields: make(map[record.EventType]map[string]Kind)}
	sections := map[record.EventType]string{
		record.EventBirth:    "birth",
		record.EventDeath:    "death",
		record.EventMarriage: "marriage",
	}

	for eventType, label := range sections {
		section := v.LookupPath(cue.ParsePath(label))
		if !section.Exists() {
			return nil, fmt.Errorf("declaration schemas: missing %q section", label)
		}
		fields, err := parseSection(label, section)
		if err != nil {
			return nil, err
		}
		reg.fields[eventType] = fields
	}

	return reg, nil
}

// parseSection iterates the concrete path->kind pairs of one event section.
func parseSection(label string, v cue.Value) (map[string]Kind, error) {
	fields := make(map[string]Kind)

	iter, err := v.Fields(cue.Concrete(true))
	if err != nil {
		return nil, fmt.Errorf("declaration schemas: %s: %w", label, err)
	}
	for iter.Next() {
		path := iter.Selector().Unquoted()
		kindStr, err := iter.Value().String()
		if err != nil {
			return nil, fmt.Errorf("declaration schemas: %s.%s: %w", label, path, err)
		}
		kind := Kind(kindStr)
		switch kind {
		case KindString, KindInt, KindBool:
		default:
			return nil, fmt.Errorf("declaration schemas: %s.%s: unknown kind %q", label, path, kindStr)
		}
		fields[path] = kind
	}

	return fields, nil
}

// KnownPaths returns the declared field paths for an event type in no
// particular order. Returns nil for unknown event types.
func (r *Registry) KnownPaths(t record.EventType) []string {
	fields, ok := r.fields[t]
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	return paths
}

// Validate checks every field of a declaration patch against the event
// type's schema. All offending fields are reported, not just the first,
// so a caller can fix a whole form submission in one round trip.
func (r *Registry) Validate(t record.EventType, decl record.Declaration) []FieldError {
	fields, ok := r.fields[t]
	if !ok {
		return []FieldError{{Path: "", Reason: fmt.Sprintf("unknown event type %q", t)}}
	}

	var errs []FieldError
	for _, path := range decl.SortedPaths() {
		kind, known := fields[path]
		if !known {
			errs = append(errs, FieldError{Path: path, Reason: "unknown field path"})
			continue
		}
		if got := valueKind(decl[path]); got != kind {
			errs = append(errs, FieldError{
				Path:   path,
				Reason: fmt.Sprintf("expected %s, got %s", kind, got),
			})
		}
	}
	return errs
}

func valueKind(v record.FieldValue) Kind {
	switch v.(type) {
	case record.FieldString:
		return KindString
	case record.FieldInt:
		return KindInt
	case record.FieldBool:
		return KindBool
	default:
		return Kind(fmt.Sprintf("%T", v))
	}
}
