package models

import (
	"fmt"
	"sort"
)

// enumTable is the single mapping between a closed in-code variant and its
// storage/wire string. Unknown strings are rejected on every read path.
type enumTable[T comparable] struct {
	kind   string
	names  map[T]string
	values map[string]T
}

func newEnumTable[T comparable](kind string, names map[T]string) enumTable[T] {
	values := make(map[string]T, len(names))
	for v, name := range names {
		values[name] = v
	}
	return enumTable[T]{kind: kind, names: names, values: values}
}

func (t enumTable[T]) name(v T) (string, bool) {
	name, ok := t.names[v]
	return name, ok
}

func (t enumTable[T]) parse(s string) (T, error) {
	v, ok := t.values[s]
	if !ok {
		var zero T
		return zero, fmt.Errorf("invalid %s %q", t.kind, s)
	}
	return v, nil
}

func (t enumTable[T]) scan(src any) (T, error) {
	switch s := src.(type) {
	case string:
		return t.parse(s)
	case []byte:
		return t.parse(string(s))
	default:
		var zero T
		return zero, fmt.Errorf("cannot scan %T into %s", src, t.kind)
	}
}

func (t enumTable[T]) value(v T) (string, error) {
	name, ok := t.names[v]
	if !ok {
		return "", fmt.Errorf("invalid %s value %v", t.kind, v)
	}
	return name, nil
}

// sortedNames lists the storage strings, for error messages and docs.
func (t enumTable[T]) sortedNames() []string {
	out := make([]string, 0, len(t.values))
	for name := range t.values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
