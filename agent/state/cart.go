package state

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxLineQuantity caps the units of one item in a cart.
const MaxLineQuantity = 999

var (
	ErrInvalidQuantity  = errors.New("quantity must be a whole number of at least zero")
	ErrQuantityTooLarge = errors.New("quantity exceeds the per-item limit")
	ErrLineNotFound     = errors.New("item is not in the cart")
	ErrEmptyCart        = errors.New("cart is empty")
)

type CartLine struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Unit      string  `json:"unit"`
}

func (l CartLine) LineTotal() float64 {
	return roundMoney(l.UnitPrice * float64(l.Quantity))
}

// Cart keeps at most one line per item id, in the order items were first
// added. Not safe for concurrent use.
type Cart struct {
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) index(itemID string) int {
	for i, l := range c.lines {
		if strings.EqualFold(l.ItemID, itemID) {
			return i
		}
	}
	return -1
}

// Add puts quantity units of item into the cart, incrementing an existing
// line. It returns the resulting line.
func (c *Cart) Add(item CartLine, quantity int) (CartLine, error) {
	if quantity <= 0 {
		return CartLine{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if strings.TrimSpace(item.ItemID) == "" {
		return CartLine{}, errors.New("item id is empty")
	}
	if quantity > MaxLineQuantity {
		return CartLine{}, fmt.Errorf("%w: got %d, limit %d", ErrQuantityTooLarge, quantity, MaxLineQuantity)
	}
	if i := c.index(item.ItemID); i >= 0 {
		if c.lines[i].Quantity > MaxLineQuantity-quantity {
			return CartLine{}, fmt.Errorf("%w: %d more on top of %d, limit %d", ErrQuantityTooLarge, quantity, c.lines[i].Quantity, MaxLineQuantity)
		}
		c.lines[i].Quantity += quantity
		return c.lines[i], nil
	}
	item.Quantity = quantity
	c.lines = append(c.lines, item)
	return item, nil
}

// SetQuantity overwrites a line's quantity. Zero removes the line and the
// returned bool reports the removal.
func (c *Cart) SetQuantity(itemID string, quantity int) (CartLine, bool, error) {
	if quantity < 0 {
		return CartLine{}, false, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if quantity > MaxLineQuantity {
		return CartLine{}, false, fmt.Errorf("%w: got %d, limit %d", ErrQuantityTooLarge, quantity, MaxLineQuantity)
	}
	i := c.index(itemID)
	if i < 0 {
		return CartLine{}, false, fmt.Errorf("%w: %s", ErrLineNotFound, itemID)
	}
	if quantity == 0 {
		removed := c.lines[i]
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return removed, true, nil
	}
	c.lines[i].Quantity = quantity
	return c.lines[i], false, nil
}

func (c *Cart) Remove(itemID string) (CartLine, bool) {
	line, removed, err := c.SetQuantity(itemID, 0)
	if err != nil {
		return CartLine{}, false
	}
	return line, removed
}

func (c *Cart) Line(itemID string) (CartLine, bool) {
	if i := c.index(itemID); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// FindLine matches a spoken reference against item ids, then names.
func (c *Cart) FindLine(ref string) (CartLine, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return CartLine{}, false
	}
	if l, ok := c.Line(ref); ok {
		return l, true
	}
	for _, l := range c.lines {
		if strings.EqualFold(l.Name, ref) {
			return l, true
		}
	}
	lower := strings.ToLower(ref)
	for _, l := range c.lines {
		if strings.Contains(strings.ToLower(l.Name), lower) {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c *Cart) Lines() []CartLine {
	return append([]CartLine(nil), c.lines...)
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Items is the total unit count across lines.
func (c *Cart) Items() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Total() float64 {
	total := 0.0
	for _, l := range c.lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return roundMoney(total)
}

func (c *Cart) Clone() *Cart {
	return &Cart{lines: c.Lines()}
}

func (c *Cart) Reset() {
	c.lines = nil
}

type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LineItem struct {
	ItemID     string  `json:"item_id"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	UnitAmount float64 `json:"unit_amount"`
	Quantity   int     `json:"quantity"`
	LineTotal  float64 `json:"line_total"`
}

const OrderStatusPlaced = "placed"

type Order struct {
	OrderID     string     `json:"order_id"`
	CreatedAt   time.Time  `json:"created_at"`
	Buyer       Buyer      `json:"buyer"`
	LineItems   []LineItem `json:"line_items"`
	TotalAmount float64    `json:"total_amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
}

// NewOrder snapshots the cart's prices into line items.
func NewOrder(id string, now time.Time, buyer Buyer, cart *Cart, currency string) (Order, error) {
	if cart == nil || cart.IsEmpty() {
		return Order{}, ErrEmptyCart
	}
	items := make([]LineItem, 0, cart.Len())
	total := 0.0
	for _, l := range cart.lines {
		li := LineItem{
			ItemID:     l.ItemID,
			Name:       l.Name,
			Unit:       l.Unit,
			UnitAmount: l.UnitPrice,
			Quantity:   l.Quantity,
			LineTotal:  l.LineTotal(),
		}
		total += li.UnitAmount * float64(li.Quantity)
		items = append(items, li)
	}
	return Order{
		OrderID:     id,
		CreatedAt:   now.UTC(),
		Buyer:       buyer,
		LineItems:   items,
		TotalAmount: roundMoney(total),
		Currency:    currency,
		Status:      OrderStatusPlaced,
	}, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
