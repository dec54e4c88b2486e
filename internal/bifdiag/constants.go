package bifdiag

import (
	"fmt"
	"math"
	"strconv"
)

// Constants is an ordered mapping of AUTO constant names to values. It backs
// both the constants file (c.xxx) and the HomCont parameter file (h.xxx).
//
// Values are int, float64, string, []any or map[string]any. Key order is the
// insertion order so that a file written back keeps the layout it was read
// with.
type Constants struct {
	keys   []string
	values map[string]any
}

// NewConstants returns an empty mapping.
func NewConstants() *Constants {
	return &Constants{values: make(map[string]any)}
}

// Len returns the number of entries.
func (c *Constants) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the entry names in order.
func (c *Constants) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the raw value for name.
func (c *Constants) Get(name string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[name]
	return v, ok
}

// Float returns a numeric constant as float64.
func (c *Constants) Float(name string) (float64, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Int returns a numeric constant truncated to int.
func (c *Constants) Int(name string) (int, bool) {
	f, ok := c.Float(name)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// String returns a constant formatted as text; string values are returned
// verbatim.
func (c *Constants) String(name string) (string, bool) {
	v, ok := c.Get(name)
	if !ok || v == nil {
		return "", false
	}
	if s, isString := v.(string); isString {
		return s, true
	}
	return FormatValue(v), true
}

// Set stores value under name, appending new names at the end.
//
// DS accepts the direction markers "+" and "-": "-" negates the current step
// size and "+" keeps it. With no current DS the markers are ignored.
func (c *Constants) Set(name string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if name == "DS" {
		if marker, ok := value.(string); ok && (marker == "+" || marker == "-") {
			current, has := c.Float("DS")
			if !has {
				return
			}
			if marker == "-" {
				current = -current
			}
			value = current
		}
	}
	if _, exists := c.values[name]; !exists {
		c.keys = append(c.keys, name)
	}
	c.values[name] = value
}

// Delete removes name if present.
func (c *Constants) Delete(name string) {
	if c == nil {
		return
	}
	if _, ok := c.values[name]; !ok {
		return
	}
	delete(c.values, name)
	for i, k := range c.keys {
		if k == name {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
}

// Merge overwrites entries of c with every entry of other, in other's order.
func (c *Constants) Merge(other *Constants) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		c.Set(k, cloneValue(other.values[k]))
	}
}

// Clone returns a deep copy. Cloning nil yields nil.
func (c *Constants) Clone() *Constants {
	if c == nil {
		return nil
	}
	out := &Constants{
		keys:   make([]string, len(c.keys)),
		values: make(map[string]any, len(c.values)),
	}
	copy(out.keys, c.keys)
	for k, v := range c.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// FormatValue renders a constant value in the syntax accepted by the
// constants file reader.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatFloat(t, 'f', 1, 64)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return strconv.Quote(t)
	case []any:
		s := "["
		for i, e := range t {
			if i > 0 {
				s += ", "
			}
			s += FormatValue(e)
		}
		return s + "]"
	case map[string]any:
		s := "{"
		for i, k := range sortedKeys(t) {
			if i > 0 {
				s += ", "
			}
			s += k + ": " + FormatValue(t[k])
		}
		return s + "}"
	}
	return fmt.Sprint(v)
}
