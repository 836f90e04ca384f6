package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = access.Principal{ID: 1, Email: "root@x.io", Role: models.RoleAdmin}
	alice = access.Principal{ID: 2, Email: "alice@x.io", Role: models.RoleEditor}
	bob   = access.Principal{ID: 3, Email: "bob@x.io", Role: models.RoleEditor}
)

func TestPlans(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()

	pro, err := svc.CreatePlan(ctx, &CreatePlanDTO{Name: "Pro", Price: 100, Currency: "usd"})
	require.NoError(t, err)
	assert.True(t, pro.IsActive)
	assert.Equal(t, "USD", pro.Currency)
	assert.Equal(t, 30, pro.DurationDays)

	off := false
	_, err = svc.CreatePlan(ctx, &CreatePlanDTO{Name: "Legacy", IsActive: &off})
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, &CreatePlanDTO{Name: "Pro"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	plans, err := svc.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Pro", plans[0].Name)
}

func TestSubscribeAndPay(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	plan, err := svc.CreatePlan(ctx, &CreatePlanDTO{Name: "Team", DurationDays: 90})
	require.NoError(t, err)
	method, err := svc.CreatePaymentMethod(ctx, &CreatePaymentMethodDTO{Name: "Bank transfer"})
	require.NoError(t, err)

	_, err = svc.Subscribe(ctx, alice, 999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	sub, err := svc.Subscribe(ctx, alice, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.EndsAt)
	assert.True(t, sub.EndsAt.Equal(start.AddDate(0, 0, 90)))

	_, err = svc.CreatePayment(ctx, bob, &CreatePaymentDTO{SubscriptionID: sub.ID, PaymentMethodID: method.ID, Amount: 10})
	assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))
	_, err = svc.CreatePayment(ctx, alice, &CreatePaymentDTO{SubscriptionID: sub.ID, PaymentMethodID: 42, Amount: 10})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	payment, err := svc.CreatePayment(ctx, alice, &CreatePaymentDTO{SubscriptionID: sub.ID, PaymentMethodID: method.ID, Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, payment.Status)

	mine, err := svc.ListPayments(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := svc.ListPayments(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	subs, err := svc.ListSubscriptions(ctx, admin)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].Plan)
	assert.Equal(t, "Team", subs[0].Plan.Name)
}
