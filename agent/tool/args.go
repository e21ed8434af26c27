package tool

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

// Args holds normalized arguments. Values are string, int, float64, bool,
// []string or []int according to the declared type. Absent optional
// arguments without a default have no key.
type Args map[string]any

func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// OptionalString is nil when the argument was absent or blank.
func (a Args) OptionalString(name string) *string {
	s, ok := a[name].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

func (a Args) Strings(name string) []string {
	s, _ := a[name].([]string)
	return s
}

func (a Args) Ints(name string) []int {
	n, _ := a[name].([]int)
	return n
}

// normalize coerces raw model arguments against the declared params.
// Undeclared keys are dropped.
func normalize(params []Param, raw map[string]any) (Args, error) {
	out := make(Args, len(params))
	for _, p := range params {
		v, present := raw[p.Name]
		if present && v != nil {
			coerced, err := coerce(p.Type, v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be %s", contractx.ErrValidation, p.Name, describeType(p.Type))
			}
			if !isBlank(coerced) {
				if err := checkEnum(p, coerced); err != nil {
					return nil, err
				}
				out[p.Name] = coerced
				continue
			}
		}
		if p.Required {
			return nil, fmt.Errorf("%w: %s is required", contractx.ErrValidation, p.Name)
		}
		if p.Default != nil {
			d, err := coerce(p.Type, p.Default)
			if err != nil {
				return nil, fmt.Errorf("%w: default for %s: %v", contractx.ErrValidation, p.Name, err)
			}
			out[p.Name] = d
		}
	}
	return out, nil
}

func coerce(t ParamType, v any) (any, error) {
	switch t {
	case String:
		s, err := cast.ToStringE(v)
		return strings.TrimSpace(s), err
	case Integer:
		return toInt(v)
	case Number:
		if s, ok := v.(string); ok {
			return strconv.ParseFloat(strings.TrimSpace(s), 64)
		}
		return cast.ToFloat64E(v)
	case Boolean:
		return toBool(v)
	case StringArray:
		return toStrings(v)
	case IntegerArray:
		return toInts(v)
	default:
		return nil, fmt.Errorf("unsupported type %q", t)
	}
}

// toInt accepts whole numbers in any numeric or textual form. Text is parsed
// as decimal so "08" is eight.
func toInt(v any) (int, error) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, err
		}
		return wholeNumber(f)
	case float64:
		return wholeNumber(x)
	case float32:
		return wholeNumber(float64(x))
	default:
		return cast.ToIntE(v)
	}
}

func wholeNumber(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int(f), nil
}

func toBool(v any) (bool, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
	}
	return cast.ToBoolE(v)
}

func toStrings(v any) ([]string, error) {
	var items []string
	switch x := v.(type) {
	case string:
		items = strings.Split(x, ",")
	case []any:
		items = make([]string, 0, len(x))
		for _, it := range x {
			s, err := cast.ToStringE(it)
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
	default:
		var err error
		if items, err = cast.ToStringSliceE(v); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func toInts(v any) ([]int, error) {
	var items []any
	switch x := v.(type) {
	case string:
		for _, s := range strings.Split(x, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
	case []any:
		items = x
	case []int:
		return append([]int(nil), x...), nil
	default:
		return cast.ToIntSliceE(v)
	}
	out := make([]int, 0, len(items))
	for _, it := range items {
		n, err := toInt(it)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	case []int:
		return len(x) == 0
	default:
		return false
	}
}

func checkEnum(p Param, v any) error {
	if len(p.Enum) == 0 {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	for _, e := range p.Enum {
		if strings.EqualFold(e, s) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s", contractx.ErrValidation, p.Name, strings.Join(p.Enum, ", "))
}

func describeType(t ParamType) string {
	switch t {
	case Integer:
		return "a whole number"
	case Number:
		return "a number"
	case Boolean:
		return "yes or no"
	case StringArray:
		return "a list of words"
	case IntegerArray:
		return "a list of whole numbers"
	default:
		return "text"
	}
}
