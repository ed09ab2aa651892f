package devserver

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/internal/cart"
	"github.com/angelmondragon/marketplace-client/internal/checkout"
	pkgcheckout "github.com/angelmondragon/marketplace-client/pkg/checkout"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
)

const orderStatusPending = "pending"

func (b *Backend) ShippingMethods() []checkout.ShippingMethod {
	return append([]checkout.ShippingMethod{}, b.shippingMethods...)
}

// PaymentMethods returns every method; clients narrow the list for living goods.
func (b *Backend) PaymentMethods() []checkout.PaymentMethod {
	return append([]checkout.PaymentMethod{}, b.paymentMethods...)
}

func (b *Backend) ApplyCoupon(code string) (checkout.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	discount, ok := b.coupons[code]
	if !ok {
		return checkout.Coupon{}, pkgerrors.New(pkgerrors.CodeNotFound, "Coupon is not valid")
	}
	return checkout.Coupon{Code: code, Discount: discount}, nil
}

// PlaceOrder turns the buyer's cart into one order with a part per seller,
// reserves stock and empties the cart.
func (b *Backend) PlaceOrder(ctx context.Context, buyerID int64, in checkout.OrderInput) (checkout.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := b.cartLines(buyerID)
	if len(lines) == 0 {
		return checkout.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty")
	}
	if !b.hasAddress(buyerID, in.AddressID) {
		return checkout.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	method, ok := b.shippingMethod(in.ShippingMethodID)
	if !ok {
		return checkout.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping method is not available")
	}
	allowed := checkout.FilterPaymentMethods(lines, b.paymentMethods, b.wallet)
	if !containsPayment(allowed, in.PaymentMethodID) {
		return checkout.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "payment method is not available for this cart")
	}

	quantities := make([]pkgcheckout.QuantityInput, 0, len(lines))
	for _, line := range lines {
		quantities = append(quantities, pkgcheckout.QuantityInput{
			LineID:       line.ID,
			ProductName:  line.Name,
			MinOrderQty:  line.MinOrderQty,
			CurrentStock: line.CurrentStock,
			Quantity:     line.Quantity,
		})
	}
	if err := pkgcheckout.ValidateQuantities(quantities); err != nil {
		return checkout.Order{}, err
	}

	couponDiscount := decimal.Zero
	if strings.TrimSpace(in.CouponCode) != "" {
		coupon, err := b.ApplyCoupon(in.CouponCode)
		if err != nil {
			return checkout.Order{}, err
		}
		couponDiscount = coupon.Discount
	}

	shipping := decimal.Zero
	for _, line := range lines {
		shipping = shipping.Add(line.ShippingCost)
	}
	summary := cart.Summarize(lines, shipping, method.Cost, couponDiscount)

	record := &orderRecord{
		id:        b.id(),
		buyerID:   buyerID,
		buyerName: b.accountName(buyerID),
		status:    orderStatusPending,
		total:     summary.Total,
		items:     len(lines),
		createdAt: b.now().UTC(),
	}
	for _, group := range summary.Groups {
		t := group.Totals
		record.parts = append(record.parts, sellerPart{
			sellerID:   group.SellerID,
			sellerName: group.SellerName,
			items:      t.Items,
			total:      t.Subtotal.Add(t.Tax).Add(t.Shipping).Sub(t.Discount),
		})
	}
	for _, line := range lines {
		b.products[line.ProductID].Stock -= line.Quantity
	}
	b.orders = append(b.orders, record)
	delete(b.carts, buyerID)

	b.logg.Info(b.logg.WithFields(ctx, map[string]any{
		"order_id": record.id,
		"buyer_id": buyerID,
		"total":    record.total.String(),
	}), "devserver.order.placed")

	return checkout.Order{ID: record.id, Status: record.status, Total: record.total}, nil
}

func (b *Backend) shippingMethod(id int64) (checkout.ShippingMethod, bool) {
	for _, m := range b.shippingMethods {
		if m.ID == id {
			return m, true
		}
	}
	return checkout.ShippingMethod{}, false
}

func containsPayment(methods []checkout.PaymentMethod, id int64) bool {
	for _, m := range methods {
		if m.ID == id {
			return true
		}
	}
	return false
}
