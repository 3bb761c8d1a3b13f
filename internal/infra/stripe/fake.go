package stripe

import (
	"errors"
	"fmt"
	"sync"
)

// Fake is an in-memory Gateway for handler tests.
type Fake struct {
	mu sync.Mutex

	Subscriptions map[string]Subscription
	Prices        []Price
	// Err, when set, is returned by every call.
	Err error

	Customers []string
	Checkouts []CheckoutParams
	Canceled  []string
}

func NewFake() *Fake {
	return &Fake{Subscriptions: map[string]Subscription{}}
}

func (f *Fake) CreateCustomer(email string, userID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	id := fmt.Sprintf("cus_%d", userID)
	f.Customers = append(f.Customers, id)
	return id, nil
}

func (f *Fake) CheckoutURL(p CheckoutParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Checkouts = append(f.Checkouts, p)
	return "https://checkout.stripe.test/" + p.PriceID, nil
}

func (f *Fake) PortalURL(customerID, _ string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return "https://billing.stripe.test/" + customerID, nil
}

func (f *Fake) Subscription(id string) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return Subscription{}, f.Err
	}
	s, ok := f.Subscriptions[id]
	if !ok {
		return Subscription{}, errors.New("no such subscription: " + id)
	}
	return s, nil
}

func (f *Fake) ChangePrice(subscriptionID, priceID string) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return Subscription{}, f.Err
	}
	s, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return Subscription{}, errors.New("no such subscription: " + subscriptionID)
	}
	s.PriceID = priceID
	s.CancelAtPeriodEnd = false
	f.Subscriptions[subscriptionID] = s
	return s, nil
}

func (f *Fake) SetCancelAtPeriodEnd(subscriptionID string, cancel bool) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return Subscription{}, f.Err
	}
	s, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return Subscription{}, errors.New("no such subscription: " + subscriptionID)
	}
	s.CancelAtPeriodEnd = cancel
	f.Subscriptions[subscriptionID] = s
	return s, nil
}

func (f *Fake) Cancel(subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Canceled = append(f.Canceled, subscriptionID)
	return nil
}

func (f *Fake) RecurringPrices(productID string) ([]Price, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []Price
	for _, p := range f.Prices {
		if productID == "" || p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}
