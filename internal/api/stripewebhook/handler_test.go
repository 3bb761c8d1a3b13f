package stripewebhook

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/api/apitest"
	"kaleidorium/internal/domain/billing"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/gorm"
)

const secret = "whsec_test"

func send(t *testing.T, h *Handler, payload string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	r := apitest.Router()
	r.POST("/webhook", h.StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	if sign {
		now := time.Now()
		sig := webhook.ComputeSignature(now, []byte(payload), secret)
		req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func event(typ, object string) string {
	return fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":"2023-10-16","type":%q,"data":{"object":%s}}`, typ, object)
}

func setup(t *testing.T) (*gorm.DB, *stripe.Fake, *Handler, plans.Plan) {
	db := database.SetupTestDB(t)
	plan := plans.Plan{Name: "Professional", PriceEUR: 24, StripePriceID: "price_pro", Tier: plans.TierProfessional}
	require.NoError(t, db.Create(&plan).Error)
	fake := stripe.NewFake()
	return db, fake, NewHandler(fake, secret), plan
}

func TestStripeWebhook_RejectsBadSignature(t *testing.T) {
	_, _, h, _ := setup(t)
	w := send(t, h, event("invoice.paid", `{}`), false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhook_IgnoresUnknownEvents(t *testing.T) {
	_, _, h, _ := setup(t)
	w := send(t, h, event("customer.created", `{"id":"cus_1"}`), true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ignored", apitest.Decode(t, w)["status"])
}

func TestStripeWebhook_CheckoutCompleted(t *testing.T) {
	db, fake, h, plan := setup(t)
	u, _ := apitest.CreateArtist(t, db)
	require.NoError(t, db.Model(&users.User{}).Where("id = ?", u.ID).Update("subscription_id", "sub_old").Error)

	end := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	fake.Subscriptions["sub_new"] = stripe.Subscription{
		ID: "sub_new", Status: "active", PriceID: "price_pro", CustomerID: "cus_5",
		CurrentPeriodEnd: end, Metadata: map[string]string{"user_id": fmt.Sprint(u.ID)},
	}

	w := send(t, h, event("checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","subscription":"sub_new","customer":"cus_5","client_reference_id":"`+fmt.Sprint(u.ID)+`"}`), true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored users.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	require.NotNil(t, stored.PlanID)
	assert.Equal(t, plan.ID, *stored.PlanID)
	assert.Equal(t, "sub_new", *stored.SubscriptionID)
	assert.Equal(t, "cus_5", *stored.StripeCustomerID)
	assert.Equal(t, "active", *stored.StripeSubscriptionStatus)
	assert.Nil(t, stored.TrialEndAt)
	assert.Equal(t, []string{"sub_old"}, fake.Canceled)
}

func TestStripeWebhook_SubscriptionUpdatedAndDeleted(t *testing.T) {
	db, _, h, plan := setup(t)
	u, _ := apitest.CreateArtist(t, db)
	require.NoError(t, db.Model(&users.User{}).Where("id = ?", u.ID).Update("subscription_id", "sub_1").Error)

	sub := `{"id":"sub_1","object":"subscription","status":"past_due","current_period_end":1767225600,"metadata":{},` +
		`"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_pro"}}]}}`
	w := send(t, h, event("customer.subscription.updated", sub), true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored users.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.Equal(t, "past_due", *stored.StripeSubscriptionStatus)
	assert.Equal(t, plan.ID, *stored.PlanID)

	w = send(t, h, event("customer.subscription.deleted",
		`{"id":"sub_1","object":"subscription","status":"canceled","current_period_end":1767225600}`), true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.Equal(t, "canceled", *stored.StripeSubscriptionStatus)
}

func TestStripeWebhook_SubscriptionForUnknownUser(t *testing.T) {
	_, _, h, _ := setup(t)
	sub := `{"id":"sub_x","object":"subscription","status":"active","current_period_end":1767225600,` +
		`"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_pro"}}]}}`
	w := send(t, h, event("customer.subscription.updated", sub), true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStripeWebhook_InvoicePaidIsIdempotent(t *testing.T) {
	db, _, h, plan := setup(t)
	u, _ := apitest.CreateArtist(t, db)
	require.NoError(t, db.Model(&users.User{}).Where("id = ?", u.ID).Update("stripe_customer_id", "cus_5").Error)

	inv := `{"id":"in_1","object":"invoice","customer":"cus_5","subscription":"sub_1","amount_paid":2400,` +
		`"currency":"eur","status":"paid","hosted_invoice_url":"https://invoice.stripe.test/in_1",` +
		`"lines":{"object":"list","data":[{"id":"il_1","price":{"id":"price_pro"}}]}}`
	for i := 0; i < 2; i++ {
		w := send(t, h, event("invoice.paid", inv), true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	var payments []billing.Payment
	require.NoError(t, db.Find(&payments).Error)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, 24.0, p.AmountEUR)
	assert.Equal(t, "paid", p.Status)
	require.NotNil(t, p.PlanID)
	assert.Equal(t, plan.ID, *p.PlanID)
	require.NotNil(t, p.ReceiptURL)
}

func TestStripeWebhook_NotConfigured(t *testing.T) {
	database.SetupTestDB(t)
	w := send(t, NewHandler(stripe.NewFake(), ""), event("invoice.paid", `{}`), true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
