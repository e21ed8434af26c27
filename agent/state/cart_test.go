package state

import (
	"errors"
	"math"
	"testing"
	"time"
)

func rice() CartLine {
	return CartLine{ItemID: "rice-5kg", Name: "Basmati Rice", UnitPrice: 450, Unit: "bag"}
}

func milk() CartLine {
	return CartLine{ItemID: "milk-1l", Name: "Toned Milk", UnitPrice: 54.5, Unit: "litre"}
}

func TestCartAddMergesLines(t *testing.T) {
	t.Parallel()

	c := NewCart()
	if _, err := c.Add(rice(), 2); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	line, err := c.Add(rice(), 3)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if line.Quantity != 5 {
		t.Fatalf("Quantity = %d, want 5", line.Quantity)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestCartAddRejectsNonPositive(t *testing.T) {
	t.Parallel()

	c := NewCart()
	for _, qty := range []int{0, -1} {
		if _, err := c.Add(rice(), qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("Add(%d) error = %v, want ErrInvalidQuantity", qty, err)
		}
	}
	if !c.IsEmpty() {
		t.Fatal("cart must stay empty")
	}
}

func TestCartQuantityLimit(t *testing.T) {
	t.Parallel()

	c := NewCart()
	if _, err := c.Add(rice(), MaxLineQuantity+1); !errors.Is(err, ErrQuantityTooLarge) {
		t.Fatalf("Add(limit+1) error = %v, want ErrQuantityTooLarge", err)
	}
	if _, err := c.Add(rice(), MaxLineQuantity-1); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	line, err := c.Add(rice(), 1)
	if err != nil || line.Quantity != MaxLineQuantity {
		t.Fatalf("Add() to limit = %+v, %v", line, err)
	}
	if _, err := c.Add(rice(), math.MaxInt); !errors.Is(err, ErrQuantityTooLarge) {
		t.Fatalf("Add(MaxInt) error = %v, want ErrQuantityTooLarge", err)
	}
	if _, err := c.Add(rice(), 1); !errors.Is(err, ErrQuantityTooLarge) {
		t.Fatalf("Add() past limit error = %v, want ErrQuantityTooLarge", err)
	}
	if _, _, err := c.SetQuantity(rice().ItemID, MaxLineQuantity+1); !errors.Is(err, ErrQuantityTooLarge) {
		t.Fatalf("SetQuantity(limit+1) error = %v, want ErrQuantityTooLarge", err)
	}
	if l, _ := c.Line(rice().ItemID); l.Quantity != MaxLineQuantity {
		t.Fatalf("Quantity = %d, want %d", l.Quantity, MaxLineQuantity)
	}
}

func TestCartSetQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	c := NewCart()
	_, _ = c.Add(rice(), 2)
	_, _ = c.Add(milk(), 1)

	_, removed, err := c.SetQuantity("rice-5kg", 0)
	if err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if !removed {
		t.Fatal("expected line to be removed")
	}
	if _, ok := c.Line("rice-5kg"); ok {
		t.Fatal("removed line still present")
	}
	for _, l := range c.Lines() {
		if l.Quantity == 0 {
			t.Fatalf("zero-quantity line persisted: %+v", l)
		}
	}
}

func TestCartSetQuantityUnknownItem(t *testing.T) {
	t.Parallel()

	c := NewCart()
	if _, _, err := c.SetQuantity("nope", 2); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("SetQuantity() error = %v, want ErrLineNotFound", err)
	}
}

func TestCartFindLineByName(t *testing.T) {
	t.Parallel()

	c := NewCart()
	_, _ = c.Add(milk(), 1)

	for _, ref := range []string{"milk-1l", "toned milk", "milk"} {
		if _, ok := c.FindLine(ref); !ok {
			t.Fatalf("FindLine(%q) found nothing", ref)
		}
	}
	if _, ok := c.FindLine("bread"); ok {
		t.Fatal("FindLine(bread) must not match")
	}
}

func TestNewOrderTotals(t *testing.T) {
	t.Parallel()

	c := NewCart()
	_, _ = c.Add(rice(), 2)
	_, _ = c.Add(milk(), 3)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	order, err := NewOrder("01HX", now, Buyer{Name: "Ravi"}, c, "INR")
	if err != nil {
		t.Fatalf("NewOrder() error = %v", err)
	}

	sum := 0.0
	for _, li := range order.LineItems {
		sum += li.UnitAmount * float64(li.Quantity)
	}
	if order.TotalAmount != roundMoney(sum) {
		t.Fatalf("TotalAmount = %v, want %v", order.TotalAmount, roundMoney(sum))
	}
	if order.TotalAmount != 1063.5 {
		t.Fatalf("TotalAmount = %v, want 1063.5", order.TotalAmount)
	}
	if order.Status != OrderStatusPlaced || order.Currency != "INR" {
		t.Fatalf("unexpected order header: %+v", order)
	}

	// the order is a snapshot
	_, _ = c.Add(rice(), 1)
	if order.LineItems[0].Quantity != 2 {
		t.Fatalf("order line changed with cart: %+v", order.LineItems[0])
	}
}

func TestNewOrderEmptyCart(t *testing.T) {
	t.Parallel()

	if _, err := NewOrder("x", time.Now(), Buyer{}, NewCart(), "INR"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("NewOrder() error = %v, want ErrEmptyCart", err)
	}
}

func TestCartCloneIsIndependent(t *testing.T) {
	t.Parallel()

	c := NewCart()
	_, _ = c.Add(rice(), 1)
	staged := c.Clone()
	_, _ = staged.Add(milk(), 2)

	if c.Len() != 1 || staged.Len() != 2 {
		t.Fatalf("Len() = %d/%d, want 1/2", c.Len(), staged.Len())
	}
}
