package stripe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sgo "github.com/stripe/stripe-go/v75"
	portalsession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/customer"
	"github.com/stripe/stripe-go/v75/price"
	"github.com/stripe/stripe-go/v75/subscription"
)

var ErrNoItems = errors.New("stripe: subscription has no priced items")

// Subscription is the slice of a Stripe subscription the app stores.
type Subscription struct {
	ID                string
	Status            string
	PriceID           string
	CustomerID        string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	Metadata          map[string]string
}

// UserID reads metadata.user_id, 0 when absent or malformed.
func (s Subscription) UserID() uint {
	v, err := strconv.ParseUint(s.Metadata["user_id"], 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

type Price struct {
	ID         string
	ProductID  string
	Name       string
	Currency   string
	UnitAmount int64
	Interval   string
	Tier       string
	Visible    bool
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	CouponID   string
	UserID     uint
	PlanID     uint
}

// Gateway is every Stripe call the service makes.
type Gateway interface {
	CreateCustomer(email string, userID uint) (string, error)
	CheckoutURL(p CheckoutParams) (string, error)
	PortalURL(customerID, returnURL string) (string, error)
	Subscription(id string) (Subscription, error)
	ChangePrice(subscriptionID, priceID string) (Subscription, error)
	SetCancelAtPeriodEnd(subscriptionID string, cancel bool) (Subscription, error)
	Cancel(subscriptionID string) error
	RecurringPrices(productID string) ([]Price, error)
}

// API talks to Stripe through stripe-go with the global key set at startup.
type API struct {
	AppEnv string
}

func NewAPI(key, appEnv string) *API {
	sgo.Key = key
	return &API{AppEnv: appEnv}
}

func (a *API) CreateCustomer(email string, userID uint) (string, error) {
	cus, err := customer.New(&sgo.CustomerParams{
		Email: sgo.String(email),
		Metadata: map[string]string{
			"user_id": fmt.Sprint(userID),
			"app_env": a.AppEnv,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cus.ID, nil
}

func (a *API) CheckoutURL(p CheckoutParams) (string, error) {
	params := &sgo.CheckoutSessionParams{
		SuccessURL: sgo.String(p.SuccessURL),
		CancelURL:  sgo.String(p.CancelURL),
		Mode:       sgo.String(string(sgo.CheckoutSessionModeSubscription)),
		Customer:   sgo.String(p.CustomerID),
		LineItems: []*sgo.CheckoutSessionLineItemParams{
			{Price: sgo.String(p.PriceID), Quantity: sgo.Int64(1)},
		},
		ClientReferenceID: sgo.String(fmt.Sprint(p.UserID)),
		SubscriptionData: &sgo.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": fmt.Sprint(p.UserID),
				"plan_id": fmt.Sprint(p.PlanID),
			},
		},
	}
	if p.CouponID != "" {
		params.Discounts = []*sgo.CheckoutSessionDiscountParams{{Coupon: sgo.String(p.CouponID)}}
	} else {
		params.AllowPromotionCodes = sgo.Bool(true)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

func (a *API) PortalURL(customerID, returnURL string) (string, error) {
	s, err := portalsession.New(&sgo.BillingPortalSessionParams{
		Customer:  sgo.String(customerID),
		ReturnURL: sgo.String(returnURL),
	})
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return s.URL, nil
}

func (a *API) Subscription(id string) (Subscription, error) {
	s, err := subscription.Get(id, nil)
	if err != nil {
		return Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return FromStripe(s)
}

func (a *API) ChangePrice(subscriptionID, priceID string) (Subscription, error) {
	current, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return Subscription{}, ErrNoItems
	}

	s, err := subscription.Update(subscriptionID, &sgo.SubscriptionParams{
		Items: []*sgo.SubscriptionItemsParams{
			{ID: sgo.String(current.Items.Data[0].ID), Price: sgo.String(priceID)},
		},
		ProrationBehavior: sgo.String("create_prorations"),
		CancelAtPeriodEnd: sgo.Bool(false),
	})
	if err != nil {
		return Subscription{}, fmt.Errorf("update subscription price: %w", err)
	}
	return FromStripe(s)
}

func (a *API) SetCancelAtPeriodEnd(subscriptionID string, cancel bool) (Subscription, error) {
	s, err := subscription.Update(subscriptionID, &sgo.SubscriptionParams{
		CancelAtPeriodEnd: sgo.Bool(cancel),
	})
	if err != nil {
		return Subscription{}, fmt.Errorf("update subscription: %w", err)
	}
	return FromStripe(s)
}

func (a *API) Cancel(subscriptionID string) error {
	if _, err := subscription.Cancel(subscriptionID, &sgo.SubscriptionCancelParams{}); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return nil
}

// RecurringPrices lists active recurring prices with their product expanded.
// productID narrows the list when set.
func (a *API) RecurringPrices(productID string) ([]Price, error) {
	params := &sgo.PriceListParams{}
	params.Active = sgo.Bool(true)
	params.Type = sgo.String("recurring")
	if productID != "" {
		params.Product = sgo.String(productID)
	}
	params.AddExpand("data.product")

	var out []Price
	it := price.List(params)
	for it.Next() {
		p := it.Price()
		if !p.Active || p.Recurring == nil || p.Product == nil || !p.Product.Active {
			continue
		}

		name := p.Product.Name
		if v := p.Metadata["plan"]; v != "" {
			name = v
		}
		tier := strings.ToLower(p.Metadata["tier"])
		if tier == "" {
			tier = strings.ToLower(p.Metadata["plan"])
		}

		out = append(out, Price{
			ID:         p.ID,
			ProductID:  p.Product.ID,
			Name:       name,
			Currency:   string(p.Currency),
			UnitAmount: p.UnitAmount,
			Interval:   string(p.Recurring.Interval),
			Tier:       tier,
			Visible:    p.Metadata["visible"] != "false",
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return out, nil
}

// FromStripe converts a stripe-go subscription, as fetched or as carried by a
// webhook event.
func FromStripe(s *sgo.Subscription) (Subscription, error) {
	if s == nil || s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return Subscription{}, ErrNoItems
	}
	out := Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		PriceID:           s.Items.Data[0].Price.ID,
		CurrentPeriodEnd:  time.Unix(s.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out, nil
}
