package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/pagination"
)

// Order is one row of an order history list. Buyer lists carry the seller,
// seller lists carry the buyer.
type Order struct {
	ID         int64           `json:"id"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	SellerName string          `json:"seller_name,omitempty"`
	BuyerName  string          `json:"buyer_name,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// List is one page of orders.
type List struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// API is a gated role client.
type API interface {
	Get(ctx context.Context, path string, opts ...httpclient.RequestOption) (*httpclient.Response, error)
}

// Service reads order history for both roles. Each call goes through the
// wrapper of its own role.
type Service interface {
	BuyerOrders(ctx context.Context, params pagination.Params) (*List, error)
	SellerOrders(ctx context.Context, params pagination.Params) (*List, error)
}

type service struct {
	buyer  API
	seller API
}

func NewService(buyer, seller API) (Service, error) {
	if buyer == nil {
		return nil, fmt.Errorf("buyer client is required")
	}
	if seller == nil {
		return nil, fmt.Errorf("seller client is required")
	}
	return &service{buyer: buyer, seller: seller}, nil
}

func (s *service) BuyerOrders(ctx context.Context, params pagination.Params) (*List, error) {
	return list(ctx, s.buyer, params)
}

func (s *service) SellerOrders(ctx context.Context, params pagination.Params) (*List, error) {
	return list(ctx, s.seller, params)
}

func list(ctx context.Context, api API, params pagination.Params) (*List, error) {
	resp, err := api.Get(ctx, "orders", httpclient.WithQuery(params.Query()))
	if err != nil {
		return nil, err
	}
	out := &List{}
	if err := resp.Decode(out); err != nil {
		return nil, err
	}
	if out.Orders == nil {
		out.Orders = []Order{}
	}
	return out, nil
}
