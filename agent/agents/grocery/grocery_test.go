package grocery

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	persistx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/persist"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const groceryDoc = `{
  "products": [
    {"id": "bread-wh", "name": "Whole Wheat Bread", "brand": "Harvest", "category": "bakery", "price": 45, "unit": "pack", "tags": ["breakfast"]},
    {"id": "pb-crunchy", "name": "Crunchy Peanut Butter", "category": "spreads", "price": 199.5, "unit": "jar", "tags": ["breakfast", "protein"]},
    {"id": "jam-straw", "name": "Strawberry Jam", "category": "spreads", "price": 120, "unit": "jar", "attributes": {"color": "red"}},
    {"id": "eggs-12", "name": "Farm Eggs", "category": "dairy", "price": 90, "unit": "tray", "in_stock": false},
    {"id": "pasta-pen", "name": "Penne Pasta", "category": "pantry", "price": 80, "unit": "pack"}
  ],
  "recipes": {
    "peanut butter sandwich": ["bread-wh", "pb-crunchy", "jam-straw"],
    "omelette": ["eggs-12", "ghost-item"],
    "french toast": ["bread-wh", "eggs-12"]
  }
}`

var fixedNow = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

type failingSink struct{}

func (failingSink) Write(context.Context, contractx.Checkpoint) (string, error) {
	return "", contractx.ErrPersistence
}

func loadCatalog(t *testing.T) *catalogx.Store[catalogx.Grocery] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grocery.json")
	if err := os.WriteFile(path, []byte(groceryDoc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	store := catalogx.NewGroceryStore(path)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	return store
}

func newSession(t *testing.T, sink contractx.Sink) contractx.Session {
	t.Helper()
	v, err := New(Deps{
		Catalog: loadCatalog(t),
		Orders:  sink,
		Now:     func() time.Time { return fixedNow },
		NewID:   func(time.Time) string { return "01J00000000000000000ORDER1" },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v.NewSession("grocery-1")
}

func call(s contractx.Session, tool string, args map[string]any) contractx.ToolResult {
	return s.Invoke(context.Background(), contractx.ToolRequest{Tool: tool, Args: args})
}

func TestAddToCartMergesLines(t *testing.T) {
	t.Parallel()

	s := newSession(t, failingSink{})
	call(s, ToolAddToCart, map[string]any{"product": "bread-wh", "quantity": 2})
	res := call(s, ToolAddToCart, map[string]any{"product": "whole wheat bread", "quantity": "3"})

	if !strings.Contains(res.Result, "You now have 5 packs in your cart") {
		t.Fatalf("add_to_cart = %q", res.Result)
	}
	cart := call(s, ToolShowCart, nil).Result
	if strings.Count(cart, "Whole Wheat Bread") != 1 {
		t.Fatalf("show_cart = %q", cart)
	}
	if !strings.Contains(cart, "225 rupees") {
		t.Fatalf("show_cart total = %q", cart)
	}
}

func TestAddToCartRejections(t *testing.T) {
	t.Parallel()

	s := newSession(t, failingSink{})
	if got := call(s, ToolAddToCart, map[string]any{"product": "eggs-12"}).Result; !strings.Contains(got, "out of stock") {
		t.Fatalf("out of stock add = %q", got)
	}
	if got := call(s, ToolAddToCart, map[string]any{"product": "caviar"}).Result; got != "I couldn't find a product called caviar." {
		t.Fatalf("unknown add = %q", got)
	}
	if got := call(s, ToolAddToCart, map[string]any{"product": "bread-wh", "quantity": 0}).Result; got != "The quantity for Whole Wheat Bread must be at least one." {
		t.Fatalf("zero add = %q", got)
	}
	if got := call(s, ToolShowCart, nil).Result; got != ReplyEmptyCart {
		t.Fatalf("cart after rejections = %q", got)
	}
}

func TestCartQuantityLimit(t *testing.T) {
	t.Parallel()

	s := newSession(t, failingSink{})
	limit := "I can only hold up to 999 of Whole Wheat Bread in your cart."

	if got := call(s, ToolAddToCart, map[string]any{"product": "bread-wh", "quantity": 9e18}).Result; got != limit {
		t.Fatalf("huge add = %q", got)
	}
	if got := call(s, ToolAddToCart, map[string]any{"product": "bread-wh", "quantity": 1e30}).Result; !strings.HasPrefix(got, "I couldn't do that: quantity") {
		t.Fatalf("out of range add = %q", got)
	}
	call(s, ToolAddToCart, map[string]any{"product": "bread-wh", "quantity": 999})
	if got := call(s, ToolAddToCart, map[string]any{"product": "bread-wh", "quantity": 1}).Result; got != limit {
		t.Fatalf("add past limit = %q", got)
	}
	if got := call(s, ToolUpdateQuantity, map[string]any{"product": "bread-wh", "quantity": 1000}).Result; got != limit {
		t.Fatalf("update past limit = %q", got)
	}
	if got := call(s, ToolShowCart, nil).Result; !strings.Contains(got, "999 packs") || !strings.Contains(got, "44,955 rupees") {
		t.Fatalf("show_cart = %q", got)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	t.Parallel()

	s := newSession(t, failingSink{})
	call(s, ToolAddToCart, map[string]any{"product": "pasta-pen", "quantity": 2})

	if got := call(s, ToolUpdateQuantity, map[string]any{"product": "penne", "quantity": 0}).Result; !strings.HasPrefix(got, "I removed Penne Pasta") {
		t.Fatalf("update_quantity(0) = %q", got)
	}
	if got := call(s, ToolShowCart, nil).Result; got != ReplyEmptyCart {
		t.Fatalf("show_cart = %q", got)
	}
	if got := call(s, ToolUpdateQuantity, map[string]any{"product": "penne", "quantity": 1}).Result; got != "penne isn't in your cart." {
		t.Fatalf("update missing = %q", got)
	}
}

func TestAddRecipeItems(t *testing.T) {
	t.Parallel()

	s := newSession(t, failingSink{})

	got := call(s, ToolAddRecipeItems, map[string]any{"recipe": "sandwich"}).Result
	if !strings.HasPrefix(got, "I added everything for peanut butter sandwich: Whole Wheat Bread, Crunchy Peanut Butter, and Strawberry Jam.") {
		t.Fatalf("add_recipe_items = %q", got)
	}

	partial := call(s, ToolAddRecipeItems, map[string]any{"recipe": "french toast"}).Result
	if strings.Contains(partial, "everything") || !strings.HasPrefix(partial, "For french toast I added Whole Wheat Bread. Farm Eggs is out of stock.") {
		t.Fatalf("partial recipe = %q", partial)
	}

	none := call(s, ToolAddRecipeItems, map[string]any{"recipe": "Omelette"}).Result
	if !strings.Contains(none, "nothing was added") {
		t.Fatalf("unavailable recipe = %q", none)
	}
	missing := call(s, ToolAddRecipeItems, map[string]any{"recipe": "lasagna"}).Result
	if missing != "I don't have a recipe for lasagna." {
		t.Fatalf("unknown recipe = %q", missing)
	}
	if none == missing {
		t.Fatal("nothing added must differ from recipe not found")
	}
}

func TestSearchCatalog(t *testing.T) {
	t.Parallel()

	s := newSession(t, failingSink{})

	got := call(s, ToolSearchCatalog, map[string]any{"query": "breakfast"}).Result
	if !strings.Contains(got, "Harvest Whole Wheat Bread at 45 rupees per pack") || !strings.Contains(got, "Crunchy Peanut Butter") {
		t.Fatalf("search_catalog(breakfast) = %q", got)
	}
	got = call(s, ToolSearchCatalog, map[string]any{"category": "spreads", "color": "RED"}).Result
	if got != "I found Strawberry Jam at 120 rupees per jar." {
		t.Fatalf("search_catalog(color) = %q", got)
	}
	got = call(s, ToolSearchCatalog, map[string]any{"max_price": 10}).Result
	if got != ReplyNoProducts {
		t.Fatalf("search_catalog(max_price) = %q", got)
	}
}

func TestPlaceOrderWritesAndClearsCart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := persistx.NewFileSink(dir, "order")
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	s := newSession(t, sink)

	call(s, ToolAddToCart, map[string]any{"product": "bread-wh", "quantity": 2})
	res := call(s, ToolPlaceOrder, map[string]any{
		"customer_name":  "Ravi",
		"customer_email": "ravi@example.com",
		"product_ids":    []any{"pb-crunchy", "pasta-pen"},
		"quantities":     []any{2},
	})
	if res.Error != "" {
		t.Fatalf("place_order error = %s (%s)", res.Error, res.Result)
	}
	if !strings.Contains(res.Result, "5 items totaling 569 rupees") || !strings.Contains(res.Result, "Thank you, Ravi!") {
		t.Fatalf("place_order = %q", res.Result)
	}

	data, err := os.ReadFile(filepath.Join(dir, "order_01J00000000000000000ORDER1.json"))
	if err != nil {
		t.Fatalf("read order: %v", err)
	}
	var order statex.Order
	if err := json.Unmarshal(data, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	sum := 0.0
	for _, li := range order.LineItems {
		sum += li.UnitAmount * float64(li.Quantity)
	}
	if order.TotalAmount != sum || order.TotalAmount != 569 {
		t.Fatalf("total = %v, sum = %v", order.TotalAmount, sum)
	}
	if len(order.LineItems) != 3 || order.LineItems[2].Quantity != 1 {
		t.Fatalf("line items = %+v", order.LineItems)
	}
	if order.Currency != DefaultCurrency || order.Status != statex.OrderStatusPlaced {
		t.Fatalf("order header = %+v", order)
	}

	if got := call(s, ToolShowCart, nil).Result; got != ReplyEmptyCart {
		t.Fatalf("cart after order = %q", got)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, _ := persistx.NewFileSink(dir, "order")
	s := newSession(t, sink)

	if got := call(s, ToolPlaceOrder, nil).Result; got != ReplyNoOrder {
		t.Fatalf("place_order = %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("unexpected files: %v", entries)
	}
}

func TestPlaceOrderFailureKeepsCart(t *testing.T) {
	t.Parallel()

	s := newSession(t, failingSink{})
	call(s, ToolAddToCart, map[string]any{"product": "jam-straw"})

	res := call(s, ToolPlaceOrder, map[string]any{"product_ids": "pasta-pen"})
	if res.Result != toolx.ReplyPersistence {
		t.Fatalf("place_order = %q", res.Result)
	}
	cart := call(s, ToolShowCart, nil).Result
	if !strings.Contains(cart, "Strawberry Jam") || strings.Contains(cart, "Penne") {
		t.Fatalf("cart after failed order = %q", cart)
	}
}

func TestMoney(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		money(1063.5, "INR"): "1,063.50 rupees",
		money(12, "USD"):     "12 dollars",
		money(3.25, "JPY"):   "3.25 JPY",
		money(2e18, "INR"):   "2,000,000,000,000,000,000 rupees",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("money() = %q, want %q", got, want)
		}
	}
}
