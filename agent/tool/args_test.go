package tool

import (
	"errors"
	"reflect"
	"testing"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

func TestNormalizeCoercion(t *testing.T) {
	t.Parallel()

	params := []Param{
		{Name: "name", Type: String},
		{Name: "qty", Type: Integer},
		{Name: "price", Type: Number},
		{Name: "ok", Type: Boolean},
		{Name: "ids", Type: StringArray},
		{Name: "counts", Type: IntegerArray},
	}
	raw := map[string]any{
		"name":   "  Milk ",
		"qty":    float64(2),
		"price":  "12.5",
		"ok":     "no",
		"ids":    "a, b ,,c",
		"counts": []any{"1", float64(2), 3},
		"extra":  "dropped",
	}

	got, err := normalize(params, raw)
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	want := Args{
		"name":   "Milk",
		"qty":    2,
		"price":  12.5,
		"ok":     false,
		"ids":    []string{"a", "b", "c"},
		"counts": []int{1, 2, 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize() = %#v, want %#v", got, want)
	}
}

func TestNormalizeLeadingZeroIsDecimal(t *testing.T) {
	t.Parallel()

	got, err := normalize([]Param{{Name: "n", Type: Integer}}, map[string]any{"n": "08"})
	if err != nil || got.Int("n") != 8 {
		t.Fatalf("normalize() = %v, %v", got, err)
	}
}

func TestNormalizeRejectsFractionalInteger(t *testing.T) {
	t.Parallel()

	_, err := normalize([]Param{{Name: "n", Type: Integer}}, map[string]any{"n": 2.5})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("normalize() error = %v, want ErrValidation", err)
	}
}

func TestNormalizeRejectsOutOfRangeInteger(t *testing.T) {
	t.Parallel()

	for _, raw := range []any{1e19, -1e19, "1e30"} {
		_, err := normalize([]Param{{Name: "n", Type: Integer}}, map[string]any{"n": raw})
		if !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("normalize(%v) error = %v, want ErrValidation", raw, err)
		}
	}
}

func TestNormalizeBlankOptionalIsAbsent(t *testing.T) {
	t.Parallel()

	got, err := normalize([]Param{{Name: "email", Type: String}}, map[string]any{"email": "   "})
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if got.Has("email") || got.OptionalString("email") != nil {
		t.Fatalf("blank optional must be absent: %v", got)
	}
}

func TestNormalizeBlankRequired(t *testing.T) {
	t.Parallel()

	_, err := normalize([]Param{{Name: "query", Type: String, Required: true}}, map[string]any{"query": " "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("normalize() error = %v, want ErrValidation", err)
	}
}

func TestNormalizeEnum(t *testing.T) {
	t.Parallel()

	params := []Param{{Name: "status", Type: String, Enum: []string{"active", "completed"}}}
	if _, err := normalize(params, map[string]any{"status": "Active"}); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if _, err := normalize(params, map[string]any{"status": "lost"}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("normalize() error = %v, want ErrValidation", err)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	params := []Param{
		{Name: "quantity", Type: Integer, Default: 1},
		{Name: "note", Type: String},
	}
	got, err := normalize(params, nil)
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if got.Int("quantity") != 1 || got.Has("note") {
		t.Fatalf("normalize() = %v", got)
	}
}
