package grocery

import (
	"errors"
	"strings"
	"time"

	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	persistx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/persist"
	promptx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/prompt"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const (
	ToolSearchCatalog     = "search_catalog"
	ToolGetProductDetails = "get_product_details"
	ToolAddToCart         = "add_to_cart"
	ToolAddRecipeItems    = "add_recipe_items"
	ToolUpdateQuantity    = "update_quantity"
	ToolRemoveFromCart    = "remove_from_cart"
	ToolShowCart          = "show_cart"
	ToolPlaceOrder        = "place_order"

	DefaultCurrency = "INR"
)

type Deps struct {
	Catalog  *catalogx.Store[catalogx.Grocery]
	Orders   contractx.Sink
	Currency string
	Now      func() time.Time
	NewID    func(time.Time) string
}

type Variant struct {
	deps Deps
}

var _ contractx.Variant = (*Variant)(nil)

func New(deps Deps) (*Variant, error) {
	if deps.Catalog == nil {
		return nil, errors.New("grocery catalog is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("order sink is required")
	}
	deps.Currency = strings.ToUpper(strings.TrimSpace(deps.Currency))
	if deps.Currency == "" {
		deps.Currency = DefaultCurrency
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = persistx.NewID
	}
	return &Variant{deps: deps}, nil
}

func (v *Variant) Name() contractx.AgentType { return contractx.AgentTypeGrocery }

func (v *Variant) Instructions() string {
	return promptx.MustRender(contractx.AgentTypeGrocery, promptx.Data{Currency: v.deps.Currency})
}

func (v *Variant) NewSession(sessionID string) contractx.Session {
	s := &session{deps: v.deps, cart: statex.NewCart()}
	return toolx.MustNewDispatcher(sessionID, s.tools())
}

type session struct {
	deps Deps
	cart *statex.Cart
}

func (s *session) catalog() catalogx.Grocery {
	return s.deps.Catalog.Snapshot()
}

func (s *session) tools() []toolx.Tool {
	product := toolx.Param{Name: "product", Type: toolx.String, Desc: "Product id or name", Required: true}
	return []toolx.Tool{
		{
			Name: ToolSearchCatalog,
			Desc: "Browse up to five products by keyword, category, price ceiling or color.",
			Params: []toolx.Param{
				{Name: "query", Type: toolx.String, Desc: "Keyword found in the product name, brand or tags"},
				{Name: "category", Type: toolx.String, Desc: "Category to restrict to"},
				{Name: "max_price", Type: toolx.Number, Desc: "Highest acceptable unit price"},
				{Name: "color", Type: toolx.String, Desc: "Required color attribute"},
			},
			Handler: s.searchCatalog,
		},
		{
			Name:    ToolGetProductDetails,
			Desc:    "Describe one product: price, unit, stock and attributes.",
			Params:  []toolx.Param{product},
			Handler: s.getProductDetails,
		},
		{
			Name: ToolAddToCart,
			Desc: "Add a product to the cart. Adding a product already in the cart increases its quantity.",
			Params: []toolx.Param{
				product,
				{Name: "quantity", Type: toolx.Integer, Desc: "How many units to add", Default: 1},
			},
			Handler: s.addToCart,
		},
		{
			Name: ToolAddRecipeItems,
			Desc: "Add one of each available ingredient for a dish.",
			Params: []toolx.Param{
				{Name: "recipe", Type: toolx.String, Desc: "Dish name", Required: true},
			},
			Handler: s.addRecipeItems,
		},
		{
			Name: ToolUpdateQuantity,
			Desc: "Set the quantity of a product already in the cart. Zero removes it.",
			Params: []toolx.Param{
				product,
				{Name: "quantity", Type: toolx.Integer, Desc: "New quantity", Required: true},
			},
			Handler: s.updateQuantity,
		},
		{
			Name:    ToolRemoveFromCart,
			Desc:    "Remove a product from the cart.",
			Params:  []toolx.Param{product},
			Handler: s.removeFromCart,
		},
		{
			Name:    ToolShowCart,
			Desc:    "Read back the cart contents and total.",
			Handler: s.showCart,
		},
		{
			Name: ToolPlaceOrder,
			Desc: "Place the order for the current cart. Optional product_ids and quantities are added first; missing quantities count as one.",
			Params: []toolx.Param{
				{Name: "customer_name", Type: toolx.String, Desc: "Buyer name"},
				{Name: "customer_email", Type: toolx.String, Desc: "Buyer email", Sensitive: true},
				{Name: "product_ids", Type: toolx.StringArray, Desc: "Extra product ids to include"},
				{Name: "quantities", Type: toolx.IntegerArray, Desc: "Quantities matching product_ids"},
			},
			Handler: s.placeOrder,
		},
	}
}
