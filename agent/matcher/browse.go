package matcher

import "strings"

// Candidate is the browsable view of a product.
type Candidate struct {
	Name       string
	Brand      string
	Category   string
	Tags       []string
	Price      float64
	Attributes map[string]string
}

// Filter narrows a browse. Zero values disable a criterion.
type Filter struct {
	Query    string
	Category string
	MaxPrice float64
	Color    string
}

func (f Filter) normalized() Filter {
	return Filter{
		Query:    strings.ToLower(strings.TrimSpace(f.Query)),
		Category: strings.ToLower(strings.TrimSpace(f.Category)),
		MaxPrice: f.MaxPrice,
		Color:    strings.ToLower(strings.TrimSpace(f.Color)),
	}
}

// Matches reports whether c satisfies every enabled criterion. The query is a
// substring test against name, brand and tags.
func (f Filter) Matches(c Candidate) bool {
	n := f.normalized()

	if n.Query != "" && !containsQuery(c, n.Query) {
		return false
	}
	if n.Category != "" && !strings.Contains(strings.ToLower(c.Category), n.Category) {
		return false
	}
	if n.MaxPrice > 0 && c.Price > n.MaxPrice {
		return false
	}
	if n.Color != "" && !strings.EqualFold(strings.TrimSpace(attribute(c.Attributes, "color")), n.Color) {
		return false
	}
	return true
}

func containsQuery(c Candidate, q string) bool {
	if strings.Contains(strings.ToLower(c.Name), q) {
		return true
	}
	if c.Brand != "" && strings.Contains(strings.ToLower(c.Brand), q) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func attribute(attrs map[string]string, key string) string {
	for k, v := range attrs {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Browse returns up to limit items, in input order, whose candidate view
// satisfies filter. A non-positive limit uses DefaultBrowseLimit.
func Browse[T any](items []T, filter Filter, limit int, view func(T) Candidate) []T {
	if limit <= 0 {
		limit = DefaultBrowseLimit
	}
	out := make([]T, 0, limit)
	for _, item := range items {
		if !filter.Matches(view(item)) {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
