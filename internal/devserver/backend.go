package devserver

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/internal/address"
	"github.com/angelmondragon/marketplace-client/internal/checkout"
	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/security"
)

// Product is a catalog entry owned by a seller account.
type Product struct {
	ID           int64
	SellerID     int64
	Name         string
	Thumbnail    string
	Price        decimal.Decimal
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	IsLiving     bool
	MinOrderQty  int
	Stock        int
}

type account struct {
	id           int64
	role         enums.Role
	name         string
	email        string
	phone        string
	passwordHash string
}

type cartEntry struct {
	id        int64
	productID int64
	qty       int
}

type sellerPart struct {
	sellerID   int64
	sellerName string
	items      int
	total      decimal.Decimal
}

type orderRecord struct {
	id        int64
	buyerID   int64
	buyerName string
	status    string
	total     decimal.Decimal
	items     int
	createdAt time.Time
	parts     []sellerPart
}

// Backend is an in-memory marketplace that answers the client REST contract.
// All methods are safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	cfg    config.DevServerConfig
	hasher *security.Hasher
	wallet *regexp.Regexp
	now    func() time.Time
	logg   *logger.Logger

	nextID int64

	accounts  map[int64]*account
	emails    map[enums.Role]map[string]int64
	revoked   map[string]struct{}
	products  map[int64]*Product
	catalog   []int64
	carts     map[int64][]*cartEntry
	wishlists map[int64][]int64
	addresses map[int64][]address.Address
	orders    []*orderRecord

	coupons         map[string]decimal.Decimal
	shippingMethods []checkout.ShippingMethod
	paymentMethods  []checkout.PaymentMethod
}

// Option customises a Backend.
type Option func(*Backend)

// WithClock replaces time.Now, for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

func WithLogger(logg *logger.Logger) Option {
	return func(b *Backend) { b.logg = logg }
}

// New builds an empty backend. Payment and shipping methods plus coupons are
// always present; sellers and products come from Seed.
func New(cfg config.DevServerConfig, passwords config.PasswordConfig, checkoutCfg config.CheckoutConfig, opts ...Option) (*Backend, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	wallet, err := checkoutCfg.WalletRegexp()
	if err != nil {
		return nil, err
	}
	b := &Backend{
		cfg:       cfg,
		hasher:    security.NewHasher(passwords),
		wallet:    wallet,
		now:       time.Now,
		accounts:  map[int64]*account{},
		emails:    map[enums.Role]map[string]int64{enums.RoleBuyer: {}, enums.RoleSeller: {}},
		revoked:   map[string]struct{}{},
		products:  map[int64]*Product{},
		carts:     map[int64][]*cartEntry{},
		wishlists: map[int64][]int64{},
		addresses: map[int64][]address.Address{},
		coupons: map[string]decimal.Decimal{
			"WELCOME50": decimal.NewFromInt(50),
			"SAVE10":    decimal.NewFromInt(10),
		},
		shippingMethods: []checkout.ShippingMethod{
			{ID: 1, Title: "Standard delivery", Cost: decimal.Zero},
			{ID: 2, Title: "Express delivery", Cost: decimal.NewFromInt(20)},
		},
		paymentMethods: []checkout.PaymentMethod{
			{ID: 1, Title: "Cash on delivery", Code: "cod"},
			{ID: 2, Title: "bKash", Code: "bkash"},
			{ID: 3, Title: "Nagad Mobile Wallet", Code: "nagad"},
			{ID: 4, Title: "Credit card", Code: "card"},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// Seed creates two seller accounts and a small catalog.
func (b *Backend) Seed() error {
	farm, err := b.createAccount(enums.RoleSeller, "Green Farm", "farm@seller.test", "", b.cfg.SellerPassword)
	if err != nil {
		return err
	}
	pets, err := b.createAccount(enums.RoleSeller, "Pet Haven", "pets@seller.test", "", b.cfg.SellerPassword)
	if err != nil {
		return err
	}

	b.AddProduct(Product{SellerID: farm, Name: "Tomato seeds", Price: decimal.NewFromInt(100), Tax: decimal.NewFromInt(5), ShippingCost: decimal.NewFromInt(10), MinOrderQty: 1, Stock: 50})
	b.AddProduct(Product{SellerID: farm, Name: "Mango sapling", Price: decimal.NewFromInt(150), Discount: decimal.NewFromInt(10), ShippingCost: decimal.NewFromInt(30), IsLiving: true, MinOrderQty: 1, Stock: 12})
	b.AddProduct(Product{SellerID: pets, Name: "Goldfish", Price: decimal.NewFromInt(200), ShippingCost: decimal.NewFromInt(25), IsLiving: true, MinOrderQty: 2, Stock: 10})
	b.AddProduct(Product{SellerID: pets, Name: "Fish food", Price: decimal.NewFromInt(50), Discount: decimal.NewFromInt(5), MinOrderQty: 1, Stock: 0})
	return nil
}

// AddProduct stores p under a fresh id and returns it.
func (b *Backend) AddProduct(p Product) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = b.id()
	if p.MinOrderQty < 1 {
		p.MinOrderQty = 1
	}
	b.products[p.ID] = &p
	b.catalog = append(b.catalog, p.ID)
	return p.ID
}

// Products lists the catalog in insertion order.
func (b *Backend) Products() []Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Product, 0, len(b.catalog))
	for _, id := range b.catalog {
		out = append(out, *b.products[id])
	}
	return out
}

func (b *Backend) accountName(id int64) string {
	if acct, ok := b.accounts[id]; ok {
		return acct.name
	}
	return ""
}
