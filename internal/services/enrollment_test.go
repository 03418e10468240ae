package services

import (
	"context"
	"testing"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollRequestValidate(t *testing.T) {
	neg := d("-1")
	cases := map[string]EnrollRequest{
		"no client":         {},
		"negative value":    {ClientID: idp(1), Value: &neg},
		"negative discount": {ClientID: idp(1), Discount: d("-5")},
		"negative count":    {ClientID: idp(1), Installments: -1},
		"negative wallet":   {ClientID: idp(1), WalletAmount: d("-10")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, domain.IsValidation(req.validate()))
		})
	}
	assert.NoError(t, EnrollRequest{ClientID: idp(1)}.validate())
}

func TestEnrollRejectsBeforeTouchingTheDatabase(t *testing.T) {
	_, err := EnrollmentService{}.Enroll(context.Background(), EnrollRequest{TripID: 1})
	assert.True(t, domain.IsValidation(err))
}

func TestEnrollmentSchedule(t *testing.T) {
	now := time.Date(2024, 4, 2, 15, 0, 0, 0, time.Local)
	svc := EnrollmentService{}

	plan, err := svc.schedule(EnrollRequest{PaidAtOnce: true, PaymentMethod: "pix"}, d("300"), now)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.True(t, plan[0].Paid())
	assert.Equal(t, models.PaymentCategoryTrip, plan[0].Category)

	plan, err = svc.schedule(EnrollRequest{}, d("300"), now)
	require.NoError(t, err)
	assert.Empty(t, plan, "no installments requested")

	plan, err = svc.schedule(EnrollRequest{Installments: 3}, d("0"), now)
	require.NoError(t, err)
	assert.Empty(t, plan, "nothing left to schedule")

	plan, err = svc.schedule(EnrollRequest{Installments: 2}, d("301"), now)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.Local), plan[0].DueDate)
	assert.True(t, d("150.50").Equal(plan[1].Amount))
}

func TestEnrollmentPlanWalletRowSharesTotal(t *testing.T) {
	now := time.Date(2024, 4, 2, 15, 0, 0, 0, time.Local)
	svc := EnrollmentService{}

	plan, err := svc.plan(EnrollRequest{WalletAmount: d("100"), Installments: 3}, d("400"), now)
	require.NoError(t, err)
	require.Len(t, plan, 4)
	assert.Equal(t, PaymentMethodWallet, plan[0].PaymentMethod)
	assert.True(t, plan[0].Paid())
	assert.True(t, d("100").Equal(plan[0].Amount))
	for i, in := range plan {
		assert.Equal(t, i+1, in.Number)
		assert.Equal(t, 4, in.Total)
	}
	assert.True(t, d("100").Equal(plan[3].Amount))

	plan, err = svc.plan(EnrollRequest{WalletAmount: d("400"), Installments: 3}, d("400"), now)
	require.NoError(t, err)
	require.Len(t, plan, 1, "wallet covers everything")
	assert.Equal(t, 1, plan[0].Total)

	plan, err = svc.plan(EnrollRequest{Installments: 2}, d("300"), now)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, 2, plan[1].Total)
}
