package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/events"
	"caravanas/internal/repositories"
	"caravanas/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// NextCreditStatus derives the lifecycle status from the remaining balance.
func NextCreditStatus(value, available decimal.Decimal, refunded bool) string {
	switch {
	case refunded:
		return models.CreditRefunded
	case available.LessThanOrEqual(utils.Tolerance):
		return models.CreditUsed
	case available.LessThan(value):
		return models.CreditPartial
	default:
		return models.CreditAvailable
	}
}

type CreditService struct {
	Credits   repositories.CreditRepository
	Clients   repositories.ClientRepository
	Trips     repositories.TripRepository
	DB        *sqlx.DB
	Events    *events.Recorder
	RequestID string
}

func (s CreditService) List(ctx context.Context, clientID int64, status string) ([]models.Credit, error) {
	return s.Credits.List(ctx, clientID, strings.TrimSpace(status))
}

func (s CreditService) Create(ctx context.Context, in models.CreditInput) (models.Credit, error) {
	if !in.Value.IsPositive() {
		return models.Credit{}, domain.ValidationError{Field: "valor_credito", Msg: "o crédito deve ser maior que zero"}
	}
	if _, err := s.Clients.GetByID(ctx, in.ClientID); err != nil {
		return models.Credit{}, err
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now()
	}
	c := models.Credit{
		ClientID:      in.ClientID,
		Value:         in.Value,
		Type:          in.Type,
		PaidAt:        in.PaidAt,
		PaymentMethod: in.PaymentMethod,
		Status:        models.CreditAvailable,
		Available:     in.Value,
		Notes:         in.Notes,
	}
	id, err := s.Credits.Create(ctx, c)
	if err != nil {
		return models.Credit{}, fmt.Errorf("salvar crédito: %w", err)
	}
	c.ID = id
	utils.LogEvent(s.RequestID, "credits", "create", fmt.Sprintf("credito_id=%d cliente_id=%d valor=%s", id, c.ClientID, c.Value.StringFixed(2)))
	return c, nil
}

// LinkToTrip consumes part of the credit for a trip.
func (s CreditService) LinkToTrip(ctx context.Context, creditID, tripID int64, amount decimal.Decimal) (models.Credit, error) {
	if !amount.IsPositive() {
		return models.Credit{}, domain.ValidationError{Field: "valor", Msg: "o valor deve ser maior que zero"}
	}
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return models.Credit{}, err
	}
	var c models.Credit
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		credits := s.Credits.WithTx(tx)
		var err error
		c, err = credits.GetByID(ctx, creditID, true)
		if err != nil {
			return err
		}
		if c.Status == models.CreditRefunded || c.Status == models.CreditUsed {
			return domain.ConflictError{Resource: "crédito", Msg: "crédito " + c.Status}
		}
		if amount.GreaterThan(c.Available) {
			return domain.InsufficientBalanceError{Available: c.Available, Requested: amount}
		}
		c.Available = c.Available.Sub(amount)
		c.Status = NextCreditStatus(c.Value, c.Available, false)
		if c.Status == models.CreditUsed {
			c.Available = decimal.Zero
		}
		if _, err := credits.InsertLink(ctx, creditID, tripID, amount, time.Now()); err != nil {
			return fmt.Errorf("vincular crédito: %w", err)
		}
		if err := credits.UpdateBalance(ctx, creditID, c.Available, c.Status); err != nil {
			return err
		}
		return s.Events.Record(ctx, tx, events.TypeCreditLinked, map[string]any{
			"credito_id": creditID, "viagem_id": tripID, "valor": amount,
		})
	})
	if err != nil {
		return models.Credit{}, err
	}
	utils.LogEvent(s.RequestID, "credits", "link",
		fmt.Sprintf("credito_id=%d viagem_id=%d valor=%s status=%s", creditID, tripID, amount.StringFixed(2), c.Status))
	return c, nil
}

// Refund is allowed while the credit is not fully used.
func (s CreditService) Refund(ctx context.Context, creditID int64) (models.Credit, error) {
	var c models.Credit
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		credits := s.Credits.WithTx(tx)
		var err error
		c, err = credits.GetByID(ctx, creditID, true)
		if err != nil {
			return err
		}
		switch c.Status {
		case models.CreditUsed:
			return domain.ConflictError{Resource: "crédito", Msg: "crédito já utilizado não pode ser reembolsado"}
		case models.CreditRefunded:
			return domain.ConflictError{Resource: "crédito", Msg: "crédito já reembolsado"}
		}
		refunded := c.Available
		c.Available = decimal.Zero
		c.Status = NextCreditStatus(c.Value, c.Available, true)
		if err := credits.UpdateBalance(ctx, creditID, c.Available, c.Status); err != nil {
			return err
		}
		return s.Events.Record(ctx, tx, events.TypeCreditRefunded, map[string]any{"credito_id": creditID, "valor": refunded})
	})
	if err != nil {
		return models.Credit{}, err
	}
	utils.LogEvent(s.RequestID, "credits", "refund", fmt.Sprintf("credito_id=%d", creditID))
	return c, nil
}
