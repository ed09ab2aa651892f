package devserver

import (
	"github.com/angelmondragon/marketplace-client/internal/address"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
)

func (b *Backend) Addresses(buyerID int64) []address.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]address.Address{}, b.addresses[buyerID]...)
}

// AddAddress makes the first address, or one flagged default, the default.
func (b *Backend) AddAddress(buyerID int64, in address.Input) address.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	existing := b.addresses[buyerID]
	isDefault := in.IsDefault || len(existing) == 0
	if isDefault {
		for i := range existing {
			existing[i].IsDefault = false
		}
	}
	created := address.Address{
		ID:         b.id(),
		Label:      in.Label,
		Recipient:  in.Recipient,
		Phone:      in.Phone,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		PostalCode: in.PostalCode,
		IsDefault:  isDefault,
	}
	b.addresses[buyerID] = append(existing, created)
	return created
}

func (b *Backend) RemoveAddress(buyerID, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.addresses[buyerID]
	for i, a := range list {
		if a.ID != id {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if a.IsDefault && len(list) > 0 {
			list[0].IsDefault = true
		}
		b.addresses[buyerID] = list
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
}

func (b *Backend) hasAddress(buyerID, id int64) bool {
	for _, a := range b.addresses[buyerID] {
		if a.ID == id {
			return true
		}
	}
	return false
}
