package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/marketplace-client/internal/address"
	"github.com/angelmondragon/marketplace-client/internal/app"
	"github.com/angelmondragon/marketplace-client/internal/cart"
	"github.com/angelmondragon/marketplace-client/internal/checkout"
	"github.com/angelmondragon/marketplace-client/internal/orders"
	"github.com/angelmondragon/marketplace-client/internal/session"
	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/pagination"
)

type flags struct {
	cmd      string
	role     string
	name     string
	email    string
	phone    string
	password string
	lang     string

	product  int64
	line     int64
	seller   int64
	qty      int
	code     string
	shipping int64
	payment  int64
	address  int64
	note     string

	recipient string
	line1     string
	city      string
	postal    string

	limit  int
	cursor string
}

func (f *flags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.cmd, "cmd", "status", "command: status|login|register|logout|delete-account|lang|cart|add|qty|remove|remove-seller|wishlist|like|unlike|addresses|address-add|summary|coupon|order|orders")
	fs.StringVar(&f.role, "role", enums.RoleBuyer.String(), "role: buyer|seller")
	fs.StringVar(&f.name, "name", "", "display name (register)")
	fs.StringVar(&f.email, "email", "", "account email")
	fs.StringVar(&f.phone, "phone", "", "phone in E.164 (register, address-add)")
	fs.StringVar(&f.password, "password", "", "account password")
	fs.StringVar(&f.lang, "lang", "", "language tag (lang)")
	fs.Int64Var(&f.product, "product", 0, "product id (add, like, unlike)")
	fs.Int64Var(&f.line, "line", 0, "cart line id (qty, remove)")
	fs.Int64Var(&f.seller, "seller", 0, "seller id (remove-seller)")
	fs.IntVar(&f.qty, "qty", 1, "quantity (add, qty)")
	fs.StringVar(&f.code, "code", "", "coupon code (coupon, summary, order)")
	fs.Int64Var(&f.shipping, "shipping", 0, "shipping method id (summary, order)")
	fs.Int64Var(&f.payment, "payment", 0, "payment method id (order)")
	fs.Int64Var(&f.address, "address", 0, "address id (order); defaults to the default address")
	fs.StringVar(&f.note, "note", "", "order note")
	fs.StringVar(&f.recipient, "recipient", "", "recipient (address-add)")
	fs.StringVar(&f.line1, "line1", "", "street line (address-add)")
	fs.StringVar(&f.city, "city", "", "city (address-add)")
	fs.StringVar(&f.postal, "postal", "", "postal code (address-add)")
	fs.IntVar(&f.limit, "limit", pagination.DefaultLimit, "page size (orders)")
	fs.StringVar(&f.cursor, "cursor", "", "page cursor (orders)")
}

func (f flags) parsedRole() (enums.Role, error) {
	role, err := enums.ParseRole(f.role)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("unknown role %q", f.role))
	}
	return role, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run executes one command against the assembled client and prints its
// result as JSON.
func run(ctx context.Context, out io.Writer, c *app.Client, f flags) error {
	role, err := f.parsedRole()
	if err != nil {
		return err
	}

	switch f.cmd {
	case "status":
		snap := c.Store.Snapshot()
		return printJSON(out, map[string]any{
			"buyer_signed_in":  state.IsBuyerAuthenticated(snap),
			"seller_signed_in": state.IsSellerAuthenticated(snap),
			"language":         snap.Language,
			"wishlist_size":    state.WishlistSize(snap),
		})

	case "login":
		res, err := c.Session.Login(ctx, role, session.Credentials{Email: f.email, Password: f.password})
		if err != nil {
			return err
		}
		return printJSON(out, res.User)

	case "register":
		res, err := c.Session.Register(ctx, role, session.Registration{Name: f.name, Email: f.email, Phone: f.phone, Password: f.password})
		if err != nil {
			return err
		}
		return printJSON(out, res.User)

	case "logout":
		return c.Session.Logout(ctx, role)

	case "delete-account":
		return c.Session.DeleteAccount(ctx, role)

	case "lang":
		return c.Session.SetLanguage(ctx, f.lang)

	case "cart":
		lines, err := c.Cart.Fetch(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, cart.GroupBySeller(lines))

	case "add":
		if err := c.Cart.Add(ctx, cart.AddInput{ProductID: f.product, Quantity: f.qty}); err != nil {
			return err
		}
		return printJSON(out, map[string]int{"cart_count": c.Store.Snapshot().CartCount})

	case "qty":
		line, err := findLine(ctx, c, f.line)
		if err != nil {
			return err
		}
		if _, err := c.Cart.UpdateQuantity(ctx, line, f.qty); err != nil {
			return err
		}
		return printJSON(out, map[string]int{"cart_count": c.Store.Snapshot().CartCount})

	case "remove":
		line, err := findLine(ctx, c, f.line)
		if err != nil {
			return err
		}
		if _, err := c.Cart.Remove(ctx, line); err != nil {
			return err
		}
		return printJSON(out, map[string]int{"cart_count": c.Store.Snapshot().CartCount})

	case "remove-seller":
		if _, err := c.Cart.RemoveSellerGroup(ctx, f.seller); err != nil {
			return err
		}
		return printJSON(out, map[string]int{"cart_count": c.Store.Snapshot().CartCount})

	case "wishlist":
		items, err := c.Wishlist.Fetch(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, items)

	case "like":
		liked, err := c.Wishlist.Toggle(ctx, state.WishlistItem{ProductID: f.product})
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{"product_id": f.product, "liked": liked})

	case "unlike":
		if err := c.Wishlist.Remove(ctx, f.product); err != nil {
			return err
		}
		return printJSON(out, map[string]any{"product_id": f.product, "liked": false})

	case "addresses":
		list, err := c.Addresses.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, list)

	case "address-add":
		addr, err := c.Addresses.Add(ctx, address.Input{
			Recipient:  f.recipient,
			Phone:      f.phone,
			Line1:      f.line1,
			City:       f.city,
			PostalCode: f.postal,
		})
		if err != nil {
			return err
		}
		return printJSON(out, addr)

	case "summary":
		lines, method, err := checkoutInputs(ctx, c, f)
		if err != nil {
			return err
		}
		view, err := c.Checkout.Summary(ctx, lines, method)
		if err != nil {
			return err
		}
		return printJSON(out, view)

	case "coupon":
		coupon, err := c.Checkout.ApplyCoupon(ctx, f.code)
		if err != nil {
			return err
		}
		return printJSON(out, coupon)

	case "order":
		return placeOrder(ctx, out, c, f)

	case "orders":
		params := pagination.Params{Limit: f.limit, Cursor: f.cursor}
		var (
			list *orders.List
			err  error
		)
		if role == enums.RoleSeller {
			list, err = c.Orders.SellerOrders(ctx, params)
		} else {
			list, err = c.Orders.BuyerOrders(ctx, params)
		}
		if err != nil {
			return err
		}
		return printJSON(out, list)
	}

	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown command %q", f.cmd))
}

func findLine(ctx context.Context, c *app.Client, lineID int64) (cart.Line, error) {
	lines, err := c.Cart.Fetch(ctx)
	if err != nil {
		return cart.Line{}, err
	}
	for _, line := range lines {
		if line.ID == lineID {
			return line, nil
		}
	}
	return cart.Line{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart line %d not found", lineID))
}

// checkoutInputs loads the cart, applies -code when given and resolves the
// -shipping method.
func checkoutInputs(ctx context.Context, c *app.Client, f flags) ([]cart.Line, *checkout.ShippingMethod, error) {
	lines, err := c.Cart.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	if code := strings.TrimSpace(f.code); code != "" {
		if _, err := c.Checkout.ApplyCoupon(ctx, code); err != nil {
			return nil, nil, err
		}
	}
	if f.shipping == 0 {
		return lines, nil, nil
	}
	methods, err := c.Checkout.ShippingMethods(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range methods {
		if methods[i].ID == f.shipping {
			return lines, &methods[i], nil
		}
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping method %d is not available", f.shipping))
}

func placeOrder(ctx context.Context, out io.Writer, c *app.Client, f flags) error {
	lines, _, err := checkoutInputs(ctx, c, f)
	if err != nil {
		return err
	}
	addressID := f.address
	if addressID == 0 {
		list, err := c.Addresses.List(ctx)
		if err != nil {
			return err
		}
		for _, a := range list {
			if a.IsDefault {
				addressID = a.ID
			}
		}
	}
	order, err := c.Checkout.PlaceOrder(ctx, lines, checkout.OrderInput{
		AddressID:        addressID,
		ShippingMethodID: f.shipping,
		PaymentMethodID:  f.payment,
		Note:             f.note,
	})
	if err != nil {
		return err
	}
	return printJSON(out, order)
}
