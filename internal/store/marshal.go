package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// Stored JSON columns use RFC 8785 canonical form so that byte-level
// comparison of rows is meaningful and replay verification can recompute
// action IDs straight from the stored text.

func marshalDeclaration(d record.Declaration) (string, error) {
	if d == nil {
		d = record.Declaration{}
	}
	b, err := record.MarshalCanonical(d)
	if err != nil {
		return "", fmt.Errorf("marshal declaration: %w", err)
	}
	return string(b), nil
}

func unmarshalDeclaration(s string) (record.Declaration, error) {
	var d record.Declaration
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("unmarshal declaration: %w", err)
	}
	// Empty normalizes to nil so round-tripped actions compare equal to
	// the in-memory ones that produced them.
	if len(d) == 0 {
		return nil, nil
	}
	return d, nil
}

func marshalMetadata(m record.Metadata) (string, error) {
	if m == nil {
		m = record.Metadata{}
	}
	b, err := record.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(s string) (record.Metadata, error) {
	var d record.Declaration
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if len(d) == 0 {
		return nil, nil
	}
	return record.Metadata(d), nil
}

func marshalActor(a record.ActorContext) (string, error) {
	scopes := make([]any, len(a.Scopes))
	for i, s := range a.Scopes {
		scopes[i] = string(s)
	}
	b, err := record.MarshalCanonical(map[string]any{
		"user_id": a.UserID,
		"role":    a.Role,
		"scopes":  scopes,
	})
	if err != nil {
		return "", fmt.Errorf("marshal actor: %w", err)
	}
	return string(b), nil
}

func unmarshalActor(s string) (record.ActorContext, error) {
	var a record.ActorContext
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return record.ActorContext{}, fmt.Errorf("unmarshal actor: %w", err)
	}
	return a, nil
}

func marshalFlags(flags []record.Flag) (string, error) {
	if flags == nil {
		flags = []record.Flag{}
	}
	b, err := json.Marshal(flags)
	if err != nil {
		return "", fmt.Errorf("marshal flags: %w", err)
	}
	return string(b), nil
}

func unmarshalFlags(s string) ([]record.Flag, error) {
	var flags []record.Flag
	if err := json.Unmarshal([]byte(s), &flags); err != nil {
		return nil, fmt.Errorf("unmarshal flags: %w", err)
	}
	if len(flags) == 0 {
		return nil, nil
	}
	return flags, nil
}

func marshalTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal time %q: %w", s, err)
	}
	return t.UTC(), nil
}
