// Package chanargs implements an immutable key/value snapshot of channel
// configuration. Snapshots are copy-cheap: reads share the underlying map,
// and only With and Without produce a new copy.
package chanargs

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Args is an immutable configuration snapshot. The zero value and nil are
// both valid empty snapshots.
type Args struct {
	m map[string]any
}

// New returns an empty snapshot.
func New() *Args {
	return &Args{}
}

// With returns a new snapshot with key set to value. The receiver is not
// modified.
func (a *Args) With(key string, value any) *Args {
	n := make(map[string]any, a.len()+1)
	if a != nil {
		for k, v := range a.m {
			n[k] = v
		}
	}
	n[key] = value
	return &Args{m: n}
}

// Without returns a new snapshot with key removed.
func (a *Args) Without(key string) *Args {
	if !a.Contains(key) {
		return a
	}
	n := make(map[string]any, a.len())
	for k, v := range a.m {
		if k != key {
			n[k] = v
		}
	}
	return &Args{m: n}
}

// Value returns the raw value for key, or nil.
func (a *Args) Value(key string) any {
	if a == nil {
		return nil
	}
	return a.m[key]
}

// Contains reports whether key is present.
func (a *Args) Contains(key string) bool {
	if a == nil {
		return false
	}
	_, ok := a.m[key]
	return ok
}

// String returns the string value for key, or def if absent or of another
// type.
func (a *Args) String(key, def string) string {
	if v, ok := a.Value(key).(string); ok {
		return v
	}
	return def
}

// Int returns the int value for key, or def.
func (a *Args) Int(key string, def int) int {
	if v, ok := a.Value(key).(int); ok {
		return v
	}
	return def
}

// Bool returns the bool value for key, or def.
func (a *Args) Bool(key string, def bool) bool {
	if v, ok := a.Value(key).(bool); ok {
		return v
	}
	return def
}

// Duration returns the duration value for key, or def.
func (a *Args) Duration(key string, def time.Duration) time.Duration {
	if v, ok := a.Value(key).(time.Duration); ok {
		return v
	}
	return def
}

func (a *Args) len() int {
	if a == nil {
		return 0
	}
	return len(a.m)
}

// Format renders the snapshot with sorted keys, for logging.
func (a *Args) Format() string {
	if a.len() == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb := strings.Builder{}
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", k, a.m[k])
	}
	sb.WriteByte('}')
	return sb.String()
}
