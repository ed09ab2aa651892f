package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/pkg/checkout"
)

// Line is one cart row as returned by the backend. Discount and Tax are per
// unit; ShippingCost is for the whole line.
type Line struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	SellerID     int64           `json:"seller_id"`
	SellerName   string          `json:"seller_name"`
	Name         string          `json:"name"`
	Thumbnail    string          `json:"thumbnail"`
	UnitPrice    decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	IsLiving     bool            `json:"is_living"`
	MinOrderQty  int             `json:"minimum_order_qty"`
	CurrentStock int             `json:"current_stock"`
}

func (l Line) qty() decimal.Decimal {
	return decimal.NewFromInt(int64(l.Quantity))
}

// Subtotal is unit price × quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(l.qty())
}

func (l Line) TaxTotal() decimal.Decimal {
	return l.Tax.Mul(l.qty())
}

func (l Line) DiscountTotal() decimal.Decimal {
	return l.Discount.Mul(l.qty())
}

// ValidateQuantity rejects qty outside [MinOrderQty, CurrentStock].
func ValidateQuantity(line Line, qty int) error {
	return checkout.ValidateQuantity(checkout.QuantityInput{
		LineID:       line.ID,
		ProductName:  line.Name,
		MinOrderQty:  line.MinOrderQty,
		CurrentStock: line.CurrentStock,
		Quantity:     qty,
	})
}

// HasLiving reports whether any line is a living good.
func HasLiving(lines []Line) bool {
	for _, line := range lines {
		if line.IsLiving {
			return true
		}
	}
	return false
}

// Fingerprint identifies the cart contents (line ids and quantities) so
// cart-level shipping is fetched once per change.
func Fingerprint(lines []Line) string {
	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		keys = append(keys, fmt.Sprintf("%d:%d:%d", line.ID, line.ProductID, line.Quantity))
	}
	sort.Strings(keys)
	sum := sha256.Sum256([]byte(strings.Join(keys, ",")))
	return hex.EncodeToString(sum[:])
}
