package cart

// Pricing constants applied to every cart.
const (
	// taxRate is the flat tax applied to the subtotal.
	taxRate = 0.08
	// freeShippingOver is the subtotal above which shipping is free.
	freeShippingOver = 100.0
	// shippingFee is the flat fee charged below the threshold.
	shippingFee = 10.0
)

// Totals holds the derived pricing summary of a cart. It is never
// persisted; it is recomputed from the current items on every call.
type Totals struct {
	// ItemCount is the sum of all line quantities.
	ItemCount int `json:"itemCount"`
	// Subtotal is the sum of unit price times quantity over all lines.
	Subtotal float64 `json:"subtotal"`
	// Tax is the flat-rate tax on the subtotal.
	Tax float64 `json:"tax"`
	// Shipping is zero above the free-shipping threshold, else a flat fee.
	Shipping float64 `json:"shipping"`
	// Total is subtotal plus tax plus shipping.
	Total float64 `json:"total"`
}

// Totals computes the derived pricing summary of the current items. It is
// a pure read: no remote call, no side effect.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()

	var t Totals
	for _, item := range e.items {
		t.ItemCount += item.Quantity
		t.Subtotal += item.UnitPrice * float64(item.Quantity)
	}
	t.Tax = t.Subtotal * taxRate
	if t.Subtotal <= freeShippingOver {
		t.Shipping = shippingFee
	}
	t.Total = t.Subtotal + t.Tax + t.Shipping
	return t
}
