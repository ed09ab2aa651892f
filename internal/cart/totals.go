package cart

import (
	"github.com/shopspring/decimal"
)

// Totals are monetary sums over a set of lines.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Items    int             `json:"items"`
}

// Group is the slice of a cart sold by one seller.
type Group struct {
	SellerID   int64  `json:"seller_id"`
	SellerName string `json:"seller_name"`
	Lines      []Line `json:"lines"`
	Totals     Totals `json:"totals"`
}

// ComputeTotals sums lines. Shipping is the sum of each line's own shipping cost.
func ComputeTotals(lines []Line) Totals {
	totals := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Discount: decimal.Zero,
		Shipping: decimal.Zero,
	}
	for _, line := range lines {
		totals.Subtotal = totals.Subtotal.Add(line.Subtotal())
		totals.Tax = totals.Tax.Add(line.TaxTotal())
		totals.Discount = totals.Discount.Add(line.DiscountTotal())
		totals.Shipping = totals.Shipping.Add(line.ShippingCost)
		totals.Items++
	}
	return totals
}

// GroupBySeller partitions lines by seller in order of first appearance.
func GroupBySeller(lines []Line) []Group {
	index := make(map[int64]int)
	var groups []Group
	for _, line := range lines {
		i, ok := index[line.SellerID]
		if !ok {
			i = len(groups)
			index[line.SellerID] = i
			groups = append(groups, Group{SellerID: line.SellerID, SellerName: line.SellerName})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}
	for i := range groups {
		groups[i].Totals = ComputeTotals(groups[i].Lines)
	}
	return groups
}

// Summary is the checkout view of a cart.
type Summary struct {
	Groups   []Group         `json:"groups"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Coupon   decimal.Decimal `json:"coupon_discount"`
	Total    decimal.Decimal `json:"total"`
}

// Summarize builds the checkout view. Each group's shipping is its lines'
// shipping plus an even share of methodCost (2dp, remainder on the first
// group); overall shipping is the cart-level cost plus methodCost. The total never goes below zero.
func Summarize(lines []Line, cartShipping, methodCost, couponDiscount decimal.Decimal) Summary {
	groups := GroupBySeller(lines)
	overall := ComputeTotals(lines)

	if len(groups) > 0 && !methodCost.IsZero() {
		share := methodCost.DivRound(decimal.NewFromInt(int64(len(groups))), 2)
		// the first group absorbs the rounding remainder so shares sum to methodCost
		remainder := methodCost.Sub(share.Mul(decimal.NewFromInt(int64(len(groups)))))
		for i := range groups {
			add := share
			if i == 0 {
				add = add.Add(remainder)
			}
			groups[i].Totals.Shipping = groups[i].Totals.Shipping.Add(add)
		}
	}

	shipping := cartShipping.Add(methodCost)
	total := overall.Subtotal.
		Add(overall.Tax).
		Add(shipping).
		Sub(overall.Discount).
		Sub(couponDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Summary{
		Groups:   groups,
		Subtotal: overall.Subtotal,
		Tax:      overall.Tax,
		Discount: overall.Discount,
		Shipping: shipping,
		Coupon:   couponDiscount,
		Total:    total,
	}
}
