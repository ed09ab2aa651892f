package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/validation"
)

// Address is a saved buyer delivery address.
type Address struct {
	ID         int64  `json:"id"`
	Label      string `json:"label,omitempty"`
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	IsDefault  bool   `json:"is_default"`
}

// Input is the payload for a new address.
type Input struct {
	Label      string `json:"label,omitempty" validate:"omitempty,max=40"`
	Recipient  string `json:"recipient" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"required,e164"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=80"`
	PostalCode string `json:"postal_code" validate:"required,alphanum,max=12"`
	IsDefault  bool   `json:"is_default"`
}

func (in Input) normalize() Input {
	in.Label = strings.TrimSpace(in.Label)
	in.Recipient = strings.TrimSpace(in.Recipient)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.Line2 = strings.TrimSpace(in.Line2)
	in.City = strings.TrimSpace(in.City)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	return in
}

// API is the buyer's gated client.
type API interface {
	Get(ctx context.Context, path string, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Post(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Delete(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
}

type Service interface {
	List(ctx context.Context) ([]Address, error)
	Add(ctx context.Context, input Input) (*Address, error)
	Remove(ctx context.Context, id int64) error
}

type service struct {
	api API
}

func NewService(api API) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("address api required")
	}
	return &service{api: api}, nil
}

func (s *service) List(ctx context.Context) ([]Address, error) {
	resp, err := s.api.Get(ctx, "addresses")
	if err != nil {
		return nil, err
	}
	out := []Address{}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Add(ctx context.Context, input Input) (*Address, error) {
	input = input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	resp, err := s.api.Post(ctx, "addresses", input)
	if err != nil {
		return nil, err
	}
	var created Address
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) Remove(ctx context.Context, id int64) error {
	if err := validation.Var("id", id, "gt=0"); err != nil {
		return err
	}
	_, err := s.api.Delete(ctx, fmt.Sprintf("addresses/%d", id), nil)
	return err
}
