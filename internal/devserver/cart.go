package devserver

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/internal/cart"
	pkgcheckout "github.com/angelmondragon/marketplace-client/pkg/checkout"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
)

func (b *Backend) lineFor(entry *cartEntry) cart.Line {
	p := b.products[entry.productID]
	return cart.Line{
		ID:           entry.id,
		ProductID:    p.ID,
		SellerID:     p.SellerID,
		SellerName:   b.accountName(p.SellerID),
		Name:         p.Name,
		Thumbnail:    p.Thumbnail,
		UnitPrice:    p.Price,
		Quantity:     entry.qty,
		Discount:     p.Discount,
		Tax:          p.Tax,
		ShippingCost: p.ShippingCost,
		IsLiving:     p.IsLiving,
		MinOrderQty:  p.MinOrderQty,
		CurrentStock: p.Stock,
	}
}

func (b *Backend) cartLines(buyerID int64) []cart.Line {
	entries := b.carts[buyerID]
	lines := make([]cart.Line, 0, len(entries))
	for _, entry := range entries {
		if _, ok := b.products[entry.productID]; !ok {
			continue
		}
		lines = append(lines, b.lineFor(entry))
	}
	return lines
}

func (b *Backend) checkQuantity(entry *cartEntry, qty int) error {
	p := b.products[entry.productID]
	return pkgcheckout.ValidateQuantity(pkgcheckout.QuantityInput{
		LineID:       entry.id,
		ProductName:  p.Name,
		MinOrderQty:  p.MinOrderQty,
		CurrentStock: p.Stock,
		Quantity:     qty,
	})
}

func (b *Backend) Cart(buyerID int64) []cart.Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cartLines(buyerID)
}

// CartCount is the number of lines, matching what a full fetch would show.
func (b *Backend) CartCount(buyerID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cartLines(buyerID))
}

// AddToCart merges into an existing line for the same product.
func (b *Backend) AddToCart(buyerID, productID int64, qty int) (cart.Line, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.products[productID]; !ok {
		return cart.Line{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	for _, entry := range b.carts[buyerID] {
		if entry.productID == productID {
			if err := b.checkQuantity(entry, entry.qty+qty); err != nil {
				return cart.Line{}, err
			}
			entry.qty += qty
			return b.lineFor(entry), nil
		}
	}
	entry := &cartEntry{id: b.id(), productID: productID, qty: qty}
	if err := b.checkQuantity(entry, qty); err != nil {
		return cart.Line{}, err
	}
	b.carts[buyerID] = append(b.carts[buyerID], entry)
	return b.lineFor(entry), nil
}

func (b *Backend) UpdateCartLine(buyerID, lineID int64, qty int) (cart.Line, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range b.carts[buyerID] {
		if entry.id != lineID {
			continue
		}
		if err := b.checkQuantity(entry, qty); err != nil {
			return cart.Line{}, err
		}
		entry.qty = qty
		return b.lineFor(entry), nil
	}
	return cart.Line{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func (b *Backend) RemoveCartLine(buyerID, lineID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.carts[buyerID]
	for i, entry := range entries {
		if entry.id == lineID {
			b.carts[buyerID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

// RemoveSellerLines drops every line sold by sellerID and reports how many.
func (b *Backend) RemoveSellerLines(buyerID, sellerID int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.carts[buyerID][:0:0]
	removed := 0
	for _, entry := range b.carts[buyerID] {
		if p, ok := b.products[entry.productID]; ok && p.SellerID == sellerID {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	if removed == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "no cart items for this seller")
	}
	b.carts[buyerID] = kept
	return removed, nil
}

// ShippingCost is the sum of the per-line shipping costs.
func (b *Backend) ShippingCost(buyerID int64) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, line := range b.cartLines(buyerID) {
		total = total.Add(line.ShippingCost)
	}
	return total
}
