// Package checkout turns a customer's cart into a PENDING order and a hosted
// Paystack payment session. Calls are idempotent per checkout key.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ajebo/storefront-api/apperr"
	"github.com/ajebo/storefront-api/gateway"
	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/metrics"
	"github.com/ajebo/storefront-api/models"
	"github.com/ajebo/storefront-api/store"
)

type Request struct {
	UserID      string
	CheckoutKey string
}

type Result struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"` // gateway reference to verify against
}

type Initiator struct {
	store   *store.Store
	gateway gateway.Gateway
	appURL  string
	newRef  func() string
}

func NewInitiator(s *store.Store, gw gateway.Gateway, appURL string) *Initiator {
	return &Initiator{
		store:   s,
		gateway: gw,
		appURL:  strings.TrimRight(appURL, "/"),
		newRef:  uuid.NewString,
	}
}

// Initiate returns the hosted payment URL for the order identified by the
// request's checkout key, creating the order and its payment on first use.
// A second call for the same key returns the same URL without opening a new
// gateway session.
func (in *Initiator) Initiate(ctx context.Context, req Request) (*Result, error) {
	res, err := in.initiate(ctx, req.UserID, strings.TrimSpace(req.CheckoutKey))

	label := "ok"
	if err != nil {
		label = apperr.KindOf(err).String()
	}
	metrics.CheckoutTotal.WithLabelValues(label).Inc()
	return res, err
}

func (in *Initiator) initiate(ctx context.Context, userID, key string) (*Result, error) {
	if key == "" {
		return nil, apperr.Validation("checkoutKey", "Missing checkoutKey")
	}
	log := logging.Ctx(ctx).With().Str("user_id", userID).Str("checkout_key", key).Logger()

	user, err := in.store.Customers.FindUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}

	order, err := in.store.Orders.FindByCheckoutKey(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		order = nil
	case err != nil:
		return nil, apperr.Internal("load order", err)
	default:
		if err := checkReusable(order, user.ID); err != nil {
			return nil, err
		}
	}

	if err := ValidateAddress(user.Address); err != nil {
		return nil, err
	}
	cart, err := in.store.Customers.LoadCart(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal("load cart", err)
	}
	total, err := cartTotal(cart)
	if err != nil {
		return nil, err
	}

	if order == nil {
		order, err = in.createOrder(ctx, user, key, cart, total)
		if err != nil {
			return nil, err
		}
		log.Info().Str("reference", order.Reference).Int64("total", order.TotalAmount).Msg("order created")
	}

	payment, err := in.ensurePayment(ctx, order)
	if err != nil {
		return nil, err
	}
	// A failed payment's session is closed at the gateway and cannot be reused.
	if payment.AuthorizationURL != "" && payment.Status != models.PaymentStatusFailed {
		return &Result{AuthorizationURL: payment.AuthorizationURL, Reference: payment.PaystackRef}, nil
	}

	return in.openSession(ctx, user, order, payment)
}

// checkReusable rejects an existing order that must not be paid again by userID.
func checkReusable(order *models.Order, userID string) error {
	if order.Status == models.OrderStatusPaid {
		return apperr.AlreadyPaid(order.Reference)
	}
	if order.UserID != userID {
		return apperr.Forbidden("checkoutKey belongs to another user")
	}
	if order.Status == models.OrderStatusCancelled {
		return apperr.Conflict("order_cancelled", "Order was cancelled")
	}
	return nil
}

func cartTotal(cart *models.Cart) (int64, error) {
	if len(cart.Items) == 0 {
		return 0, apperr.Validation("cart", "Cart is empty")
	}

	var total int64
	for _, it := range cart.Items {
		p := it.Product
		switch {
		case !p.Active:
			return 0, apperr.Validation(p.Slug, "Inactive product in cart: "+p.Name)
		case it.Quantity <= 0:
			return 0, apperr.Validation(p.Slug, "Invalid quantity for "+p.Name)
		case p.Stock <= 0:
			e := apperr.Conflict("out_of_stock", "Out of stock: "+p.Name)
			e.Field = p.Slug
			return 0, e
		case it.Quantity > p.Stock:
			e := apperr.Conflict("insufficient_stock", "Insufficient stock: "+p.Name)
			e.Field = p.Slug
			return 0, e
		}
		total += p.Price * int64(it.Quantity)
	}
	return total, nil
}

func (in *Initiator) createOrder(ctx context.Context, user *models.User, key string, cart *models.Cart, total int64) (*models.Order, error) {
	order := &models.Order{
		Reference:      uuid.NewString(),
		CheckoutKey:    key,
		UserID:         user.ID,
		TotalAmount:    total,
		Status:         models.OrderStatusPending,
		DeliveryStatus: models.DeliveryStatusProcessing,
		CheckoutStatus: models.CheckoutStatusInitiated,
	}
	order.ShipTo(*user.Address)
	for _, it := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			UnitPrice:   it.Product.Price,
			Quantity:    it.Quantity,
		})
	}

	payment := &models.Payment{
		Provider:    models.ProviderPaystack,
		Reference:   order.Reference,
		PaystackRef: in.newRef(),
		Status:      models.PaymentStatusInitiated,
	}

	err := in.store.Orders.Create(ctx, order, payment)
	if errors.Is(err, store.ErrDuplicateCheckoutKey) {
		// Lost a race with a concurrent call for the same key; continue with its order.
		existing, ferr := in.store.Orders.FindByCheckoutKey(ctx, key)
		if ferr != nil {
			return nil, apperr.Internal("reload order", ferr)
		}
		if err := checkReusable(existing, user.ID); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if err != nil {
		return nil, apperr.Internal("create order", err)
	}
	return order, nil
}

// ensurePayment returns the order's payment, creating it when an older order has none.
func (in *Initiator) ensurePayment(ctx context.Context, order *models.Order) (*models.Payment, error) {
	if order.Payment != nil {
		return order.Payment, nil
	}

	payment := &models.Payment{
		OrderID:     order.ID,
		Provider:    models.ProviderPaystack,
		Reference:   order.Reference,
		PaystackRef: in.newRef(),
		Status:      models.PaymentStatusInitiated,
	}
	if err := in.store.Payments.Create(ctx, payment); err != nil {
		reloaded, ferr := in.store.Orders.FindByID(ctx, order.ID)
		if ferr != nil || reloaded.Payment == nil {
			return nil, apperr.Internal("create payment", err)
		}
		return reloaded.Payment, nil
	}
	return payment, nil
}

func (in *Initiator) openSession(ctx context.Context, user *models.User, order *models.Order, payment *models.Payment) (*Result, error) {
	log := logging.Ctx(ctx).With().Uint("order_id", order.ID).Str("reference", order.Reference).Logger()

	ref := payment.PaystackRef
	if ref == "" || payment.Status == models.PaymentStatusFailed {
		ref = in.newRef()
	}

	session, err := in.gateway.Initialize(ctx, in.initializeRequest(user, order, ref))
	if errors.Is(err, gateway.ErrDuplicateReference) {
		log.Warn().Str("paystack_ref", ref).Msg("duplicate gateway reference, retrying with a new one")
		ref = in.newRef()
		session, err = in.gateway.Initialize(ctx, in.initializeRequest(user, order, ref))
	}
	if err != nil {
		log.Error().Err(err).Str("paystack_ref", ref).Msg("paystack initialize failed")
		if ferr := in.store.Orders.MarkCheckoutFailed(ctx, order.ID); ferr != nil {
			log.Error().Err(ferr).Msg("could not mark checkout failed")
		}
		return nil, apperr.Gateway("Paystack init failed", err)
	}

	if err := in.store.Payments.SaveInitialization(ctx, payment.ID, ref, session.AuthorizationURL, string(session.Raw)); err != nil {
		return nil, apperr.Internal("save payment session", err)
	}

	log.Info().Str("paystack_ref", ref).Msg("payment session opened")
	return &Result{AuthorizationURL: session.AuthorizationURL, Reference: ref}, nil
}

func (in *Initiator) initializeRequest(user *models.User, order *models.Order, ref string) gateway.InitializeRequest {
	return gateway.InitializeRequest{
		Email:       user.Email,
		Amount:      order.TotalAmount,
		Reference:   ref,
		CallbackURL: fmt.Sprintf("%s/checkout/verify?reference=%s", in.appURL, url.QueryEscape(ref)),
		Metadata: gateway.Metadata{
			OrderID:     order.ID,
			OrderRef:    order.Reference,
			UserID:      user.ID,
			CheckoutKey: order.CheckoutKey,
			PaystackRef: ref,
			CustomFields: []gateway.CustomField{
				{DisplayName: "Order ID", VariableName: "order_id", Value: strconv.FormatUint(uint64(order.ID), 10)},
				{DisplayName: "Order Ref", VariableName: "order_ref", Value: order.Reference},
				{DisplayName: "Customer Email", VariableName: "customer_email", Value: user.Email},
				{DisplayName: "Delivery Address", VariableName: "delivery_address", Value: deliveryLine(order)},
			},
		},
	}
}

func deliveryLine(o *models.Order) string {
	parts := []string{o.ShipLine1}
	for _, s := range []string{o.ShipCity, o.ShipState} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
