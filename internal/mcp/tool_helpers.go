package mcp

import (
	"math"
	"strings"
	"unicode"

	"govinv/internal/envelope"
	"govinv/internal/errors"
)

// toolArgs reads tool arguments by their camelCase name, falling back to
// the snake_case spelling. Numbers arrive as float64.
type toolArgs map[string]any

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (a toolArgs) lookup(name string) (any, bool) {
	if v, ok := a[name]; ok && v != nil {
		return v, true
	}
	if v, ok := a[snakeCase(name)]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func (a toolArgs) str(name string) (string, error) {
	v, ok := a.lookup(name)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.NewInvalidArgument(name, "must be a string")
	}
	return s, nil
}

// strList accepts an array of strings or a single string.
func (a toolArgs) strList(name string) ([]string, error) {
	v, ok := a.lookup(name)
	if !ok {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errors.NewInvalidArgument(name, "must be an array of strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.NewInvalidArgument(name, "must be an array of strings")
	}
}

func (a toolArgs) number(name string, def float64) (float64, error) {
	v, ok := a.lookup(name)
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	default:
		return 0, errors.NewInvalidArgument(name, "must be a number")
	}
}

// integer rejects fractional numbers.
func (a toolArgs) integer(name string) (*int, error) {
	if _, ok := a.lookup(name); !ok {
		return nil, nil
	}
	f, err := a.number(name, 0)
	if err != nil {
		return nil, err
	}
	if f != math.Trunc(f) {
		return nil, errors.NewInvalidArgument(name, "must be an integer")
	}
	n := int(f)
	return &n, nil
}

func (a toolArgs) boolean(name string, def bool) (bool, error) {
	v, ok := a.lookup(name)
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.NewInvalidArgument(name, "must be a boolean")
	}
	return b, nil
}

// applied builds the meta.query map, leaving out unset values.
func applied(kv ...any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		switch v := kv[i+1].(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case []string:
			if len(v) == 0 {
				continue
			}
		case *int:
			if v == nil {
				continue
			}
			out[key] = *v
			continue
		}
		out[key] = kv[i+1]
	}
	return out
}

// respond builds a success envelope.
func respond(query map[string]any, data any) *envelope.Response {
	return envelope.New().Query(query).Data(data).Build()
}
