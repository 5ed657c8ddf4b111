package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidateArgs checks the supplied arguments against the spec's parameter
// schema and returns the coerced argument map the handler receives.
//
// Validation is strict: every required parameter must be present, every value
// must be coercible to its declared type, and argument names that do not
// appear in the schema are rejected. Defaults are applied for absent optional
// parameters that declare one.
func ValidateArgs(spec Spec, args map[string]any) (map[string]any, error) {
	problems := make([]string, 0)
	out := make(map[string]any, len(spec.Params))

	for name := range args {
		if _, ok := spec.ParamByName(name); !ok {
			problems = append(problems, fmt.Sprintf("unknown argument %q", name))
		}
	}

	for _, p := range spec.Params {
		raw, supplied := args[p.Name]
		if !supplied || raw == nil {
			if p.Required {
				problems = append(problems, fmt.Sprintf("missing required argument %q", p.Name))
				continue
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		coerced, err := coerceValue(p.Type, raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("argument %q: %v", p.Name, err))
			continue
		}
		out[p.Name] = coerced
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &ToolError{
			Code:    CodeInvalidArguments,
			Message: strings.Join(problems, "; "),
			Details: map[string]any{"tool": spec.Name},
		}
	}
	return out, nil
}

// coerceValue converts a decoded JSON value into the declared parameter type.
// JSON numbers arrive as float64 (or json.Number when the decoder is
// configured that way); integers accept them only when integral. Strings are
// never silently parsed into numbers or booleans.
func coerceValue(paramType string, value any) (any, error) {
	switch paramType {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil

	case TypeInteger:
		switch v := value.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int64(v), nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case json.Number:
			i, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v.String())
			}
			return i, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", value)
		}

	case TypeFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", v.String())
			}
			return f, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}

	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unsupported parameter type %q", paramType)
	}
}
