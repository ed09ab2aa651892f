package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/marketplace-client/internal/cart"
	pkgcheckout "github.com/angelmondragon/marketplace-client/pkg/checkout"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/validation"
)

// API is the buyer-scoped transport.
type API interface {
	Get(ctx context.Context, path string, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Post(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
}

// CountSyncer refreshes the cart badge after an order empties the cart.
type CountSyncer interface {
	SyncCount(ctx context.Context) (int, error)
}

type Service interface {
	ShippingCost(ctx context.Context, lines []cart.Line) (decimal.Decimal, error)
	ShippingMethods(ctx context.Context) ([]ShippingMethod, error)
	PaymentMethods(ctx context.Context, lines []cart.Line) ([]PaymentMethod, error)
	ApplyCoupon(ctx context.Context, code string) (Coupon, error)
	RemoveCoupon()
	Coupon() (Coupon, bool)
	Summary(ctx context.Context, lines []cart.Line, method *ShippingMethod) (View, error)
	PlaceOrder(ctx context.Context, lines []cart.Line, input OrderInput) (Order, error)
}

type service struct {
	api    API
	counts CountSyncer
	wallet *regexp.Regexp
	logg   *logger.Logger

	mu              sync.Mutex
	coupon          *Coupon
	shippingKey     string
	shippingCost    decimal.Decimal
	shippingFetched bool
}

// NewService builds the checkout service. A nil wallet pattern uses the default.
func NewService(api API, counts CountSyncer, wallet *regexp.Regexp, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("checkout api required")
	}
	if wallet == nil {
		wallet = defaultWalletPattern
	}
	return &service{api: api, counts: counts, wallet: wallet, logg: logg}, nil
}

type shippingCostPayload struct {
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

// ShippingCost returns the cart-level shipping cost, fetching it only when
// the cart contents changed since the last fetch.
func (s *service) ShippingCost(ctx context.Context, lines []cart.Line) (decimal.Decimal, error) {
	key := cart.Fingerprint(lines)

	s.mu.Lock()
	if s.shippingFetched && s.shippingKey == key {
		cost := s.shippingCost
		s.mu.Unlock()
		return cost, nil
	}
	s.mu.Unlock()

	resp, err := s.api.Get(ctx, "cart/shipping-cost")
	if err != nil {
		return decimal.Zero, err
	}
	var payload shippingCostPayload
	if err := resp.Decode(&payload); err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	s.shippingKey = key
	s.shippingCost = payload.ShippingCost
	s.shippingFetched = true
	s.mu.Unlock()
	return payload.ShippingCost, nil
}

func (s *service) ShippingMethods(ctx context.Context) ([]ShippingMethod, error) {
	resp, err := s.api.Get(ctx, "shipping-methods")
	if err != nil {
		return nil, err
	}
	var methods []ShippingMethod
	if err := resp.Decode(&methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (s *service) PaymentMethods(ctx context.Context, lines []cart.Line) ([]PaymentMethod, error) {
	resp, err := s.api.Get(ctx, "payment-methods")
	if err != nil {
		return nil, err
	}
	var methods []PaymentMethod
	if err := resp.Decode(&methods); err != nil {
		return nil, err
	}
	return FilterPaymentMethods(lines, methods, s.wallet), nil
}

// ApplyCoupon makes one apply call. On success the result replaces any
// coupon already applied; on failure the previous coupon stays.
func (s *service) ApplyCoupon(ctx context.Context, code string) (Coupon, error) {
	code = strings.TrimSpace(code)
	if err := validation.Var("code", code, "required,max=64"); err != nil {
		return Coupon{}, err
	}
	resp, err := s.api.Post(ctx, "coupons/apply", map[string]string{"code": code})
	if err != nil {
		return Coupon{}, err
	}
	var coupon Coupon
	if err := resp.Decode(&coupon); err != nil {
		return Coupon{}, err
	}
	if coupon.Code == "" {
		coupon.Code = code
	}
	if coupon.Discount.IsNegative() {
		coupon.Discount = decimal.Zero
	}

	s.mu.Lock()
	s.coupon = &coupon
	s.mu.Unlock()
	return coupon, nil
}

func (s *service) RemoveCoupon() {
	s.mu.Lock()
	s.coupon = nil
	s.mu.Unlock()
}

func (s *service) Coupon() (Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil {
		return Coupon{Discount: decimal.Zero}, false
	}
	return *s.coupon, true
}

// Summary fetches the cart shipping cost and the payment methods in parallel
// and combines them with the selected shipping method and applied coupon.
func (s *service) Summary(ctx context.Context, lines []cart.Line, method *ShippingMethod) (View, error) {
	var (
		shipping decimal.Decimal
		methods  []PaymentMethod
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cost, err := s.ShippingCost(gctx, lines)
		shipping = cost
		return err
	})
	g.Go(func() error {
		list, err := s.PaymentMethods(gctx, lines)
		methods = list
		return err
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	methodCost := decimal.Zero
	if method != nil {
		methodCost = method.Cost
	}
	coupon, _ := s.Coupon()

	return View{
		Summary:        cart.Summarize(lines, shipping, methodCost, coupon.Discount),
		PaymentMethods: methods,
	}, nil
}

// PlaceOrder validates locally, submits the order, then clears the coupon and
// resyncs the cart count.
func (s *service) PlaceOrder(ctx context.Context, lines []cart.Line, input OrderInput) (Order, error) {
	if len(lines) == 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty")
	}
	if coupon, ok := s.Coupon(); ok && input.CouponCode == "" {
		input.CouponCode = coupon.Code
	}
	if err := validation.Struct(input); err != nil {
		return Order{}, err
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
		return Order{}, err
	}

	resp, err := s.api.Post(ctx, "orders", input)
	if err != nil {
		return Order{}, err
	}
	var order Order
	if err := resp.Decode(&order); err != nil {
		return Order{}, err
	}

	s.RemoveCoupon()
	s.mu.Lock()
	s.shippingFetched = false
	s.mu.Unlock()

	if s.counts != nil {
		if _, err := s.counts.SyncCount(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.count.resync_failed")
		}
	}
	return order, nil
}
