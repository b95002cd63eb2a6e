package record

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// FieldValue is a sealed interface over the value types a declaration
// field may hold. Only FieldString, FieldInt, and FieldBool implement it.
// Floats and nulls are forbidden: both break deterministic canonical
// serialization, and no civil-registration form field needs either
// (dates and identifiers are strings, counts and amounts are integers).
type FieldValue interface {
	fieldValue() // sealed
}

// FieldString holds a string field value (names, dates as ISO strings,
// national IDs, free-form reasons).
type FieldString string

func (FieldString) fieldValue() {}

// FieldInt holds an integer field value. Always int64, never float64.
type FieldInt int64

func (FieldInt) fieldValue() {}

// FieldBool holds a boolean field value.
type FieldBool bool

func (FieldBool) fieldValue() {}

// Declaration maps form field paths ("child.dob", "mother.nid") to values.
// Paths are validated against the event type's schema before an action is
// accepted; unknown paths are rejected, never silently stored.
type Declaration map[string]FieldValue

// Clone returns a copy of the declaration. Values are immutable scalars,
// so a shallow map copy is a deep copy.
func (d Declaration) Clone() Declaration {
	if d == nil {
		return nil
	}
	out := make(Declaration, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns a new declaration with patch keys overwriting base keys.
// Unpatched fields persist unchanged (patch semantics per the engine's
// apply contract). Neither input is mutated.
func (d Declaration) Merge(patch Declaration) Declaration {
	out := d.Clone()
	if out == nil {
		out = make(Declaration, len(patch))
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Equal reports whether two declarations hold exactly the same paths and
// values. Used by tests asserting correction rejection leaves the
// declaration untouched.
func (d Declaration) Equal(other Declaration) bool {
	if len(d) != len(other) {
		return false
	}
	for k, v := range d {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// SortedPaths returns field paths in RFC 8785 canonical order (UTF-16
// code units). Go's sort.Strings uses UTF-8 which produces a DIFFERENT
// order for strings outside the BMP.
func (d Declaration) SortedPaths() []string {
	paths := make([]string, 0, len(d))
	for p := range d {
		paths = append(paths, p)
	}
	slices.SortFunc(paths, compareKeysRFC8785)
	return paths
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering as
// required by RFC 8785 (canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// MarshalJSON implements json.Marshaler with sorted keys so declarations
// serialize deterministically everywhere, not only on the hashing path.
func (d Declaration) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, path := range d.SortedPaths() {
		if i > 0 {
			b.WriteByte(',')
		}
		keyBytes, err := json.Marshal(path)
		if err != nil {
			return nil, fmt.Errorf("marshal path %q: %w", path, err)
		}
		b.Write(keyBytes)
		b.WriteByte(':')
		valBytes, err := MarshalFieldValue(d[path])
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", path, err)
		}
		b.Write(valBytes)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler, rejecting floats, nulls, and
// nested structures at the decoding boundary.
func (d *Declaration) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = make(Declaration, len(raw))
	for path, v := range raw {
		val, err := UnmarshalFieldValue(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", path, err)
		}
		(*d)[path] = val
	}
	return nil
}

// MarshalFieldValue marshals a field value to JSON bytes.
func MarshalFieldValue(v FieldValue) ([]byte, error) {
	switch val := v.(type) {
	case FieldString:
		return json.Marshal(string(val))
	case FieldInt:
		return json.Marshal(int64(val))
	case FieldBool:
		return json.Marshal(bool(val))
	default:
		return nil, fmt.Errorf("unknown field value type: %T", v)
	}
}

// UnmarshalFieldValue decodes a JSON scalar into a FieldValue.
// Floats, nulls, arrays, and objects are rejected.
func UnmarshalFieldValue(data []byte) (FieldValue, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return FieldString(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return FieldBool(b), nil
	case 'n':
		return nil, fmt.Errorf("null is forbidden in declarations")
	case '[', '{':
		return nil, fmt.Errorf("nested values are forbidden: declaration fields are scalars keyed by path")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are forbidden in declarations: %s", string(data))
		}
		return FieldInt(i), nil
	}
}

// FromAny converts a decoded YAML/JSON value to a FieldValue.
// YAML parses numbers as int; JSON parses them as float64, which is
// accepted only when it is an exact integer.
func FromAny(v any) (FieldValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null values are forbidden in declarations")
	case string:
		return FieldString(val), nil
	case int:
		return FieldInt(int64(val)), nil
	case int64:
		return FieldInt(val), nil
	case float64:
		if val == float64(int64(val)) {
			return FieldInt(int64(val)), nil
		}
		return nil, fmt.Errorf("floats are forbidden in declarations: %v", val)
	case bool:
		return FieldBool(val), nil
	default:
		return nil, fmt.Errorf("unsupported declaration value type %T", v)
	}
}

// DeclarationFromAny converts a generic map (YAML scenario input, HTTP
// JSON body) into a Declaration, rejecting unsupported value kinds.
func DeclarationFromAny(m map[string]any) (Declaration, error) {
	if m == nil {
		return Declaration{}, nil
	}
	out := make(Declaration, len(m))
	for path, v := range m {
		fv, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		out[path] = fv
	}
	return out, nil
}
