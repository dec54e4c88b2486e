package autofile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"autoctl/internal/bifdiag"
)

// fortranExponent matches the D exponent marker Fortran writes in doubles.
var fortranExponent = regexp.MustCompile(`([0-9.])[dD]([+-]?[0-9])`)

// ReadConstants parses the constants file at path. Errors from opening the
// file are returned unwrapped so callers can test for fs.ErrNotExist.
func ReadConstants(path string) (*bifdiag.Constants, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ParseConstants(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseConstants reads KEY = VALUE entries separated by commas or newlines.
// '#' starts a comment. Values use YAML flow syntax: numbers, quoted
// strings, [lists] and {maps}.
func ParseConstants(r io.Reader) (*bifdiag.Constants, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := bifdiag.NewConstants()
	for i, entry := range splitEntries(string(data)) {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %d %q: missing '='", i+1, entry)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("entry %d %q: empty name", i+1, entry)
		}
		v, err := ParseValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		c.Set(key, v)
	}
	return c, nil
}

// ParseValue converts the text of one constant value.
func ParseValue(text string) (any, error) {
	text = strings.TrimSpace(text)
	switch text {
	case "", "None":
		return nil, nil
	case "+", "-":
		return text, nil
	}
	text = fortranExponent.ReplaceAllString(text, "${1}E${2}")
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("bad value %q: %w", text, err)
	}
	return normalize(v), nil
}

// normalize maps yaml.v3 results onto the value types Constants holds.
func normalize(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case int64:
		return int(t)
	case uint64:
		return int(t)
	case string:
		if t == "None" {
			return nil
		}
	}
	return v
}

// splitEntries strips comments and splits on commas and newlines that are
// not nested inside brackets, braces or quotes.
func splitEntries(text string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	comment := false
	for _, r := range text {
		if comment {
			if r == '\n' {
				comment = false
				if depth == 0 {
					flush()
				}
			}
			continue
		}
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '#':
			comment = true
			continue
		case r == '[' || r == '{':
			depth++
		case r == ']' || r == '}':
			depth--
		case (r == ',' || r == '\n') && depth == 0:
			flush()
			continue
		case r == '\n':
			r = ' '
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

// EncodeConstants writes one KEY = VALUE line per entry in key order.
func EncodeConstants(w io.Writer, c *bifdiag.Constants) error {
	bw := bufio.NewWriter(w)
	for _, k := range c.Keys() {
		v, _ := c.Get(k)
		if _, err := fmt.Fprintf(bw, "%s = %s\n", k, bifdiag.FormatValue(v)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteConstants writes c to path.
func WriteConstants(path string, c *bifdiag.Constants) error {
	var buf bytes.Buffer
	if err := EncodeConstants(&buf, c); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
