package doc

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Fields is the keyword-argument style input accepted by every constructor.
// Keys may be snake_case or camelCase; values are Go natives, Values or Valuers.
type Fields map[string]any

// New builds a document from fields. Every key is canonicalized with CamelCase,
// so "query_type" and "queryType" land on the same key. New does not validate;
// it only fails when a value cannot be represented or when two input keys
// collapse onto the same canonical key.
func New(fields Fields) (Object, error) {
	obj := make(Object, len(fields))
	source := make(map[string]string, len(fields))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		canonical := CamelCase(k)
		if prev, dup := source[canonical]; dup {
			return nil, fmt.Errorf("duplicate field %q (given as %q and %q)", canonical, prev, k)
		}
		v, err := FromGo(fields[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", canonical, err)
		}
		source[canonical] = k
		obj[canonical] = v
	}
	return obj, nil
}

// MustNew is like New but panics on error.
// Use only in tests or for literal fields known to be representable.
func MustNew(fields Fields) Object {
	obj, err := New(fields)
	if err != nil {
		panic(err)
	}
	return obj
}

// FromGo recursively converts a Go value to a Value.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Valuer:
		// Typed documents embed Object and so also satisfy Value; unwrap
		// them first so only the seven concrete kinds are stored.
		return val.DocValue(), nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return Int(val), nil
	case float32:
		return floatValue(float64(val))
	case float64:
		return floatValue(val)
	case json.Number:
		return numberValue(val)
	case []string:
		arr := make(Array, len(val))
		for i, s := range val {
			arr[i] = String(s)
		}
		return arr, nil
	case []int:
		arr := make(Array, len(val))
		for i, n := range val {
			arr[i] = Int(n)
		}
		return arr, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			docElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = docElem
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			docElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = docElem
		}
		return obj, nil
	case Fields:
		return FromGo(map[string]any(val))
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float: %v", f)
	}
	return Float(f), nil
}

// Get returns the value stored under key.
func (obj Object) Get(key string) (Value, bool) {
	v, ok := obj[key]
	return v, ok
}

// GetString returns the value under key when it is a String.
func (obj Object) GetString(key string) (string, bool) {
	s, ok := obj[key].(String)
	return string(s), ok
}

// GetObject returns the value under key when it is an Object.
func (obj Object) GetObject(key string) (Object, bool) {
	o, ok := obj[key].(Object)
	return o, ok
}

// Clone returns a deep copy of the document.
func (obj Object) Clone() Object {
	if obj == nil {
		return nil
	}
	return cloneValue(obj).(Object)
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return val
	}
}

// Extend returns a copy of the document with fields merged in, overwriting
// on key collision. Keys are canonicalized exactly as in New.
func (obj Object) Extend(fields Fields) (Object, error) {
	extra, err := New(fields)
	if err != nil {
		return nil, err
	}
	return obj.Merge(extra), nil
}

// Merge returns a copy of the document with other's keys laid over it.
func (obj Object) Merge(other Object) Object {
	out := obj.Clone()
	if out == nil {
		out = make(Object, len(other))
	}
	for k, v := range other {
		out[k] = cloneValue(v)
	}
	return out
}

// Without returns a copy of the document minus the given keys.
func (obj Object) Without(keys ...string) Object {
	out := obj.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Equal reports whether both documents have the same canonical content.
// Key order never matters; documents that cannot be encoded are never equal.
func (obj Object) Equal(other Object) bool {
	return Equal(obj, other)
}

// Equal reports whether two values have the same canonical encoding.
func Equal(a, b Value) bool {
	ab, err := MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := MarshalCanonical(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}
