package services

import (
	"testing"

	"caravanas/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeTicketFigures(t *testing.T) {
	got := ComputeTicketFigures(models.Ticket{CostPrice: d("80"), SalePrice: d("150"), Discount: d("10")})
	assert.True(t, d("140").Equal(got.FinalValue))
	assert.True(t, d("60").Equal(got.Profit))
	assert.True(t, d("42.86").Equal(got.MarginPct), got.MarginPct.String())

	free := ComputeTicketFigures(models.Ticket{CostPrice: d("80")})
	assert.True(t, free.MarginPct.IsZero())
	assert.True(t, d("-80").Equal(free.Profit))
}

func TestTicketSettled(t *testing.T) {
	assert.True(t, TicketSettled(d("140"), d("140")))
	assert.True(t, TicketSettled(d("140"), d("139.99")))
	assert.False(t, TicketSettled(d("140"), d("100")))
}
