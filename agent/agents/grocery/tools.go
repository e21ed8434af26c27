package grocery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	matcherx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/matcher"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const (
	ReplyNoProducts = "I couldn't find any products matching that."
	ReplyEmptyCart  = "Your cart is empty."
	ReplyNoOrder    = "Your cart is empty, so there's nothing to order yet."
)

func (s *session) searchCatalog(_ context.Context, args toolx.Args) (string, error) {
	found := s.catalog().Browse(matcherx.Filter{
		Query:    args.String("query"),
		Category: args.String("category"),
		MaxPrice: args.Float("max_price"),
		Color:    args.String("color"),
	})
	if len(found) == 0 {
		return ReplyNoProducts, nil
	}
	parts := make([]string, 0, len(found))
	for _, p := range found {
		parts = append(parts, fmt.Sprintf("%s at %s per %s", displayName(p), money(p.Price, s.deps.Currency), unitOf(p)))
	}
	return "I found " + listing(parts) + ".", nil
}

func (s *session) getProductDetails(_ context.Context, args toolx.Args) (string, error) {
	p, err := s.findProduct(args.String("product"))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s costs %s per %s.", displayName(p), money(p.Price, s.deps.Currency), unitOf(p))
	if d := strings.TrimSpace(p.Description); d != "" {
		b.WriteString(" " + d)
		if !strings.HasSuffix(d, ".") {
			b.WriteString(".")
		}
	}
	if len(p.Attributes) > 0 {
		keys := make([]string, 0, len(p.Attributes))
		for k := range p.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs := make([]string, 0, len(keys))
		for _, k := range keys {
			attrs = append(attrs, fmt.Sprintf("%s %s", k, p.Attributes[k]))
		}
		b.WriteString(" It has " + listing(attrs) + ".")
	}
	if p.InStock() {
		b.WriteString(" It's in stock.")
	} else {
		b.WriteString(" It's currently out of stock.")
	}
	return b.String(), nil
}

func (s *session) addToCart(_ context.Context, args toolx.Args) (string, error) {
	p, err := s.findProduct(args.String("product"))
	if err != nil {
		return "", err
	}
	if !p.InStock() {
		return fmt.Sprintf("Sorry, %s is out of stock right now.", p.Name), nil
	}
	qty := args.Int("quantity")
	line, err := s.cart.Add(cartLine(p), qty)
	if err != nil {
		return "", toolx.ReplyCause(contractx.ErrValidation, quantityProblem(err, p.Name), err)
	}
	return fmt.Sprintf("Added %s. You now have %s in your cart, and your total is %s.",
		describeLine(statex.CartLine{Name: p.Name, Unit: p.Unit, Quantity: qty}),
		quantity(line.Quantity, line.Unit),
		money(s.cart.Total(), s.deps.Currency),
	), nil
}

// addRecipeItems adds one unit per resolvable, in-stock ingredient. Missing
// ids are skipped.
func (s *session) addRecipeItems(_ context.Context, args toolx.Args) (string, error) {
	g := s.catalog()
	name := args.String("recipe")
	recipe, ok := g.Recipe(name)
	if !ok {
		return "", toolx.Reply(contractx.ErrNotFound, fmt.Sprintf("I don't have a recipe for %s.", name))
	}

	var added, unavailable, full []string
	skipped := 0
	for _, id := range recipe.Ingredients {
		p, ok := g.ProductByID(id)
		if !ok {
			log.Warn().Str("recipe", recipe.Name).Str("ingredient", id).Msg("recipe ingredient not in catalog")
			skipped++
			continue
		}
		if !p.InStock() {
			unavailable = append(unavailable, p.Name)
			continue
		}
		if _, err := s.cart.Add(cartLine(p), 1); err != nil {
			if errors.Is(err, statex.ErrQuantityTooLarge) {
				full = append(full, p.Name)
				continue
			}
			return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
		}
		added = append(added, p.Name)
	}

	if len(added) == 0 {
		return fmt.Sprintf("I found the recipe for %s, but none of its ingredients are available right now, so nothing was added.", recipe.Name), nil
	}
	out := fmt.Sprintf("I added everything for %s: %s.", recipe.Name, listing(added))
	if skipped+len(unavailable)+len(full) > 0 {
		out = fmt.Sprintf("For %s I added %s.", recipe.Name, listing(added))
	}
	if len(unavailable) > 0 {
		out += fmt.Sprintf(" %s %s out of stock.", listing(unavailable), isAre(len(unavailable)))
	}
	if len(full) > 0 {
		out += fmt.Sprintf(" %s %s already at the limit of %d.", listing(full), isAre(len(full)), statex.MaxLineQuantity)
	}
	return out + fmt.Sprintf(" Your total is now %s.", money(s.cart.Total(), s.deps.Currency)), nil
}

// quantityProblem explains a rejected cart quantity.
func quantityProblem(err error, name string) string {
	if errors.Is(err, statex.ErrQuantityTooLarge) {
		return fmt.Sprintf("I can only hold up to %d of %s in your cart.", statex.MaxLineQuantity, name)
	}
	return fmt.Sprintf("The quantity for %s must be at least one.", name)
}

func isAre(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}

func (s *session) updateQuantity(_ context.Context, args toolx.Args) (string, error) {
	ref := args.String("product")
	line, ok := s.cart.FindLine(ref)
	if !ok {
		return "", toolx.Reply(contractx.ErrNotFound, fmt.Sprintf("%s isn't in your cart.", ref))
	}
	updated, removed, err := s.cart.SetQuantity(line.ItemID, args.Int("quantity"))
	if err != nil {
		if errors.Is(err, statex.ErrInvalidQuantity) {
			return "", toolx.ReplyCause(contractx.ErrValidation, "The quantity can't be negative.", err)
		}
		if errors.Is(err, statex.ErrQuantityTooLarge) {
			return "", toolx.ReplyCause(contractx.ErrValidation, quantityProblem(err, line.Name), err)
		}
		return "", err
	}
	if removed {
		return fmt.Sprintf("I removed %s from your cart. Your total is %s.", line.Name, money(s.cart.Total(), s.deps.Currency)), nil
	}
	return fmt.Sprintf("You now have %s. Your total is %s.", describeLine(updated), money(s.cart.Total(), s.deps.Currency)), nil
}

func (s *session) removeFromCart(_ context.Context, args toolx.Args) (string, error) {
	ref := args.String("product")
	line, ok := s.cart.FindLine(ref)
	if !ok {
		return "", toolx.Reply(contractx.ErrNotFound, fmt.Sprintf("%s isn't in your cart.", ref))
	}
	s.cart.Remove(line.ItemID)
	if s.cart.IsEmpty() {
		return fmt.Sprintf("I removed %s. Your cart is now empty.", line.Name), nil
	}
	return fmt.Sprintf("I removed %s. Your total is %s.", line.Name, money(s.cart.Total(), s.deps.Currency)), nil
}

func (s *session) showCart(context.Context, toolx.Args) (string, error) {
	if s.cart.IsEmpty() {
		return ReplyEmptyCart, nil
	}
	lines := s.cart.Lines()
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s for %s", describeLine(l), money(l.LineTotal(), s.deps.Currency)))
	}
	return fmt.Sprintf("You have %s. Your total is %s.", listing(parts), money(s.cart.Total(), s.deps.Currency)), nil
}

// placeOrder stages extra items on a copy of the cart, writes the order and
// only then clears the cart.
func (s *session) placeOrder(ctx context.Context, args toolx.Args) (string, error) {
	staged := s.cart.Clone()
	if err := s.stageExtras(staged, args.Strings("product_ids"), args.Ints("quantities")); err != nil {
		return "", err
	}

	now := s.deps.Now()
	buyer := statex.Buyer{Name: args.String("customer_name"), Email: args.String("customer_email")}
	order, err := statex.NewOrder(s.deps.NewID(now), now, buyer, staged, s.deps.Currency)
	if err != nil {
		if errors.Is(err, statex.ErrEmptyCart) {
			return "", toolx.ReplyCause(contractx.ErrValidation, ReplyNoOrder, err)
		}
		return "", err
	}

	location, err := s.deps.Orders.Write(ctx, contractx.Checkpoint{
		Kind:      "order",
		ID:        order.OrderID,
		Name:      buyer.Name,
		CreatedAt: now,
		Payload:   order,
	})
	if err != nil {
		return "", fmt.Errorf("place order %s: %w", order.OrderID, err)
	}
	s.cart.Reset()

	log.Info().
		Str("order_id", order.OrderID).
		Str("path", location).
		Int("lines", len(order.LineItems)).
		Float64("total", order.TotalAmount).
		Msg("order placed")

	thanks := "Thank you!"
	if buyer.Name != "" {
		thanks = fmt.Sprintf("Thank you, %s!", buyer.Name)
	}
	return fmt.Sprintf("Your order is placed: %s totaling %s. Your order number ends in %s. %s",
		quantity(staged.Items(), "item"),
		money(order.TotalAmount, order.Currency),
		orderTail(order.OrderID),
		thanks,
	), nil
}

// stageExtras adds product_ids to cart, pairing them with quantities. Missing
// quantities default to one and surplus quantities are ignored.
func (s *session) stageExtras(cart *statex.Cart, ids []string, qtys []int) error {
	if len(qtys) > len(ids) {
		log.Warn().Int("ids", len(ids)).Int("quantities", len(qtys)).Msg("ignoring surplus quantities")
	}
	g := s.catalog()
	for i, id := range ids {
		qty := 1
		if i < len(qtys) {
			qty = qtys[i]
		}
		p, ok := g.FindProduct(id)
		if !ok {
			return toolx.Reply(contractx.ErrNotFound, fmt.Sprintf("I couldn't find a product called %s, so I didn't place the order.", id))
		}
		if !p.InStock() {
			return toolx.Reply(contractx.ErrValidation, fmt.Sprintf("%s is out of stock, so I didn't place the order.", p.Name))
		}
		if _, err := cart.Add(cartLine(p), qty); err != nil {
			return toolx.ReplyCause(contractx.ErrValidation, quantityProblem(err, p.Name)+" I didn't place the order.", err)
		}
	}
	return nil
}

func (s *session) findProduct(ref string) (catalogx.Product, error) {
	p, ok := s.catalog().FindProduct(ref)
	if !ok {
		return catalogx.Product{}, toolx.Reply(contractx.ErrNotFound, fmt.Sprintf("I couldn't find a product called %s.", ref))
	}
	return p, nil
}

func cartLine(p catalogx.Product) statex.CartLine {
	return statex.CartLine{ItemID: p.ID, Name: p.Name, UnitPrice: p.Price, Unit: p.Unit}
}

func displayName(p catalogx.Product) string {
	if p.Brand == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(p.Brand)) {
		return p.Name
	}
	return p.Brand + " " + p.Name
}

func unitOf(p catalogx.Product) string {
	if u := strings.TrimSpace(p.Unit); u != "" {
		return u
	}
	return "item"
}

func orderTail(id string) string {
	if len(id) <= 4 {
		return strings.ToLower(id)
	}
	return strings.ToLower(id[len(id)-4:])
}
