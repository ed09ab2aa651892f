package devserver

import (
	"sort"
	"strings"

	"github.com/angelmondragon/marketplace-client/internal/orders"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/pagination"
)

// BuyerOrders pages the buyer's orders, newest first.
func (b *Backend) BuyerOrders(buyerID int64, params pagination.Params) (*orders.List, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var rows []orders.Order
	for _, rec := range b.orders {
		if rec.buyerID != buyerID {
			continue
		}
		names := make([]string, 0, len(rec.parts))
		for _, part := range rec.parts {
			names = append(names, part.sellerName)
		}
		rows = append(rows, orders.Order{
			ID:         rec.id,
			Status:     rec.status,
			Total:      rec.total,
			ItemCount:  rec.items,
			SellerName: strings.Join(names, ", "),
			CreatedAt:  rec.createdAt,
		})
	}
	return page(rows, params)
}

// SellerOrders pages the seller's share of each order that includes them.
func (b *Backend) SellerOrders(sellerID int64, params pagination.Params) (*orders.List, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var rows []orders.Order
	for _, rec := range b.orders {
		for _, part := range rec.parts {
			if part.sellerID != sellerID {
				continue
			}
			rows = append(rows, orders.Order{
				ID:        rec.id,
				Status:    rec.status,
				Total:     part.total,
				ItemCount: part.items,
				BuyerName: rec.buyerName,
				CreatedAt: rec.createdAt,
			})
		}
	}
	return page(rows, params)
}

func page(rows []orders.Order, params pagination.Params) (*orders.List, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	limit := pagination.NormalizeLimit(params.Limit)
	out := &orders.List{Orders: []orders.Order{}}
	for _, row := range rows {
		if cursor != nil && !cursor.After(row.CreatedAt, row.ID) {
			continue
		}
		if len(out.Orders) == limit {
			last := out.Orders[limit-1]
			out.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			break
		}
		out.Orders = append(out.Orders, row)
	}
	return out, nil
}
