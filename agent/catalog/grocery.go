package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	matcherx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/matcher"
)

type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand,omitempty"`
	Category    string            `json:"category"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price"`
	Unit        string            `json:"unit"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Stocked     *bool             `json:"in_stock,omitempty"`
}

// InStock treats a missing in_stock flag as available.
func (p Product) InStock() bool {
	return p.Stocked == nil || *p.Stocked
}

func (p Product) Attribute(key string) string {
	for k, v := range p.Attributes {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (p Product) candidate() matcherx.Candidate {
	return matcherx.Candidate{
		Name:       p.Name,
		Brand:      p.Brand,
		Category:   p.Category,
		Tags:       p.Tags,
		Price:      p.Price,
		Attributes: p.Attributes,
	}
}

func (p Product) fields() matcherx.Fields {
	secondary := make([]string, 0, len(p.Tags)+3)
	secondary = append(secondary, p.Description, p.Brand, p.Category)
	secondary = append(secondary, p.Tags...)
	return matcherx.Fields{Primary: p.Name, Secondary: secondary}
}

type Recipe struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
}

type Grocery struct {
	Products []Product
	Recipes  []Recipe
}

type groceryDocument struct {
	Products []Product           `json:"products"`
	Recipes  map[string][]string `json:"recipes"`
}

// DecodeGrocery reads {"products": [...], "recipes": {"name": ["id", ...]}}.
// Recipes are sorted by name so lookups are deterministic.
func DecodeGrocery(data []byte) (Grocery, error) {
	var doc groceryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Grocery{}, err
	}

	seen := make(map[string]struct{}, len(doc.Products))
	for i, p := range doc.Products {
		id := strings.ToLower(strings.TrimSpace(p.ID))
		if id == "" {
			return Grocery{}, fmt.Errorf("product at index %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return Grocery{}, fmt.Errorf("duplicate product id %q", p.ID)
		}
		seen[id] = struct{}{}
	}

	recipes := make([]Recipe, 0, len(doc.Recipes))
	for name, ingredients := range doc.Recipes {
		recipes = append(recipes, Recipe{Name: name, Ingredients: ingredients})
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Name < recipes[j].Name })

	return Grocery{Products: doc.Products, Recipes: recipes}, nil
}

func NewGroceryStore(path string) *Store[Grocery] {
	return NewStore("grocery", path, DecodeGrocery, func() Grocery { return Grocery{} })
}

func (g Grocery) ProductByID(id string) (Product, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, false
	}
	for _, p := range g.Products {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Product{}, false
}

// FindProduct resolves a spoken reference: exact id, then exact name, then
// the best keyword match.
func (g Grocery) FindProduct(ref string) (Product, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Product{}, false
	}
	if p, ok := g.ProductByID(ref); ok {
		return p, true
	}
	for _, p := range g.Products {
		if strings.EqualFold(strings.TrimSpace(p.Name), ref) {
			return p, true
		}
	}
	m, ok := matcherx.Search(ref, g.Products, Product.fields)
	if !ok {
		return Product{}, false
	}
	return m.Item, true
}

func (g Grocery) Browse(filter matcherx.Filter) []Product {
	return matcherx.Browse(g.Products, filter, matcherx.DefaultBrowseLimit, Product.candidate)
}

// Recipe matches the name exactly (case-insensitive), then falls back to the
// first recipe whose name contains the query or is contained by it.
func (g Grocery) Recipe(name string) (Recipe, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return Recipe{}, false
	}
	for _, r := range g.Recipes {
		if strings.ToLower(strings.TrimSpace(r.Name)) == q {
			return r, true
		}
	}
	for _, r := range g.Recipes {
		rn := strings.ToLower(strings.TrimSpace(r.Name))
		if rn == "" {
			continue
		}
		if strings.Contains(rn, q) || strings.Contains(q, rn) {
			return r, true
		}
	}
	return Recipe{}, false
}
