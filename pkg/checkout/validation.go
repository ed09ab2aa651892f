package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
)

// QuantityInput describes one line whose requested quantity must fall within
// [MinOrderQty, CurrentStock].
type QuantityInput struct {
	LineID       int64
	ProductName  string
	MinOrderQty  int
	CurrentStock int
	Quantity     int
}

// QuantityViolationDetail is attached to the validation error for each offending line.
type QuantityViolationDetail struct {
	LineID       int64  `json:"line_id"`
	ProductName  string `json:"product_name,omitempty"`
	MinQty       int    `json:"min_qty"`
	MaxQty       int    `json:"max_qty"`
	RequestedQty int    `json:"requested_qty"`
}

// MinQuantity is the effective lower bound; a line can never go below one.
func (in QuantityInput) MinQuantity() int {
	if in.MinOrderQty < 1 {
		return 1
	}
	return in.MinOrderQty
}

func (in QuantityInput) violation() (QuantityViolationDetail, bool) {
	minQty := in.MinQuantity()
	if in.Quantity >= minQty && in.Quantity <= in.CurrentStock {
		return QuantityViolationDetail{}, false
	}
	return QuantityViolationDetail{
		LineID:       in.LineID,
		ProductName:  in.ProductName,
		MinQty:       minQty,
		MaxQty:       in.CurrentStock,
		RequestedQty: in.Quantity,
	}, true
}

// ValidateQuantity checks one line. The message is meant for the user.
func ValidateQuantity(in QuantityInput) error {
	v, bad := in.violation()
	if !bad {
		return nil
	}
	var msg string
	switch {
	case v.MaxQty < v.MinQty:
		msg = "This product is out of stock"
	case v.RequestedQty < v.MinQty:
		msg = fmt.Sprintf("Minimum order quantity is %d", v.MinQty)
	default:
		msg = fmt.Sprintf("Only %d left in stock", v.MaxQty)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{
		"violations": []QuantityViolationDetail{v},
	})
}

// ValidateQuantities checks every line and reports all violations at once.
func ValidateQuantities(items []QuantityInput) error {
	var violations []QuantityViolationDetail
	for _, item := range items {
		if v, bad := item.violation(); bad {
			violations = append(violations, v)
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity out of range for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
