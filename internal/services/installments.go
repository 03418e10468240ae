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

// BuildSchedule splits total into n installments of equal cents. The rounding
// remainder goes on the last one. Due dates step intervalMonths from firstDue.
func BuildSchedule(total decimal.Decimal, n int, firstDue time.Time, intervalMonths int) ([]models.Installment, error) {
	if n < 1 {
		return nil, domain.ValidationError{Field: "total_parcelas", Msg: "informe ao menos uma parcela"}
	}
	if total.IsNegative() {
		return nil, domain.ValidationError{Field: "valor", Msg: "valor negativo"}
	}
	if intervalMonths < 1 {
		intervalMonths = 1
	}
	base := total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	out := make([]models.Installment, n)
	for i := 0; i < n; i++ {
		amount := base
		if i == n-1 {
			amount = total.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))
		}
		out[i] = models.Installment{
			Number:   i + 1,
			Total:    n,
			Amount:   amount,
			DueDate:  utils.AddMonths(firstDue, i*intervalMonths),
			Category: models.PaymentCategoryTrip,
		}
	}
	return out, nil
}

// PaymentStatusFor maps what was paid against the net value to the
// status_pagamento label.
func PaymentStatusFor(net, paid decimal.Decimal) string {
	switch {
	case utils.IsSettled(net.Sub(paid)):
		return models.PaymentStatusPaid
	case paid.IsPositive():
		return models.PaymentStatusPartial
	default:
		return models.PaymentStatusPending
	}
}

// PayAmountInput is a free-amount payment against a passenger.
type PayAmountInput struct {
	Amount        decimal.Decimal `json:"valor"`
	PaymentMethod string          `json:"forma_pagamento"`
	Category      string          `json:"categoria"`
	PaidAt        time.Time       `json:"data_pagamento"`
	Notes         string          `json:"observacoes"`
}

type InstallmentService struct {
	Installments repositories.InstallmentRepository
	Passengers   repositories.PassengerRepository
	DB           *sqlx.DB
	Events       *events.Recorder
	RequestID    string
}

func (s InstallmentService) List(ctx context.Context, passengerID int64) ([]models.Installment, error) {
	if _, err := s.Passengers.GetByID(ctx, passengerID); err != nil {
		return nil, err
	}
	return s.Installments.ListByPassenger(ctx, passengerID)
}

func (s InstallmentService) History(ctx context.Context, passengerID int64) ([]models.PaymentHistory, error) {
	return s.Installments.ListHistory(ctx, passengerID)
}

// RegisterPayment marks one installment as paid and refreshes the
// passenger's payment status.
func (s InstallmentService) RegisterPayment(ctx context.Context, installmentID int64, paidAt time.Time, method string) (PassengerFinancials, error) {
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	var fin PassengerFinancials
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		inst := s.Installments.WithTx(tx)
		in, err := inst.GetByID(ctx, installmentID)
		if err != nil {
			return err
		}
		if in.Paid() {
			return domain.ConflictError{Resource: "parcela", Msg: "parcela já paga"}
		}
		if err := inst.MarkPaid(ctx, installmentID, paidAt, strings.TrimSpace(method)); err != nil {
			return err
		}
		if _, err := inst.AddHistory(ctx, models.PaymentHistory{
			PassengerID:   in.PassengerID,
			Category:      categoryOr(in.Category),
			Amount:        in.Amount,
			PaymentMethod: method,
			PaidAt:        paidAt,
			Notes:         fmt.Sprintf("Parcela %d/%d", in.Number, in.Total),
		}); err != nil {
			return fmt.Errorf("registrar histórico: %w", err)
		}
		if err := s.Events.Record(ctx, tx, events.TypeInstallmentPaid, map[string]any{
			"parcela_id": installmentID, "passageiro_id": in.PassengerID, "valor": in.Amount,
		}); err != nil {
			return err
		}
		fin, err = s.refreshStatus(ctx, tx, in.PassengerID)
		return err
	})
	if err != nil {
		return PassengerFinancials{}, err
	}
	utils.LogEvent(s.RequestID, "installments", "pay",
		fmt.Sprintf("parcela_id=%d passageiro_id=%d pendente=%s", installmentID, fin.PassengerID, fin.Pending.StringFixed(2)))
	return fin, nil
}

// PayAmount records a free-amount payment as a paid installment plus a
// categorized history row.
func (s InstallmentService) PayAmount(ctx context.Context, passengerID int64, in PayAmountInput) (PassengerFinancials, error) {
	if !in.Amount.IsPositive() {
		return PassengerFinancials{}, domain.ValidationError{Field: "valor", Msg: "o pagamento deve ser maior que zero"}
	}
	switch in.Category {
	case "":
		in.Category = models.PaymentCategoryTrip
	case models.PaymentCategoryTrip, models.PaymentCategoryOutings, models.PaymentCategoryBoth:
	default:
		return PassengerFinancials{}, domain.ValidationError{Field: "categoria", Msg: "categoria inválida"}
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now()
	}
	var fin PassengerFinancials
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		fin, err = s.payInTx(ctx, tx, passengerID, in)
		return err
	})
	if err != nil {
		return PassengerFinancials{}, err
	}
	utils.LogEvent(s.RequestID, "installments", "pay_amount",
		fmt.Sprintf("passageiro_id=%d valor=%s pendente=%s", passengerID, in.Amount.StringFixed(2), fin.Pending.StringFixed(2)))
	return fin, nil
}

func (s InstallmentService) payInTx(ctx context.Context, tx *sqlx.Tx, passengerID int64, in PayAmountInput) (PassengerFinancials, error) {
	inst := s.Installments.WithTx(tx)
	existing, err := inst.ListByPassenger(ctx, passengerID)
	if err != nil {
		return PassengerFinancials{}, err
	}
	number := len(existing) + 1
	paidAt := in.PaidAt
	if _, err := inst.Create(ctx, models.Installment{
		PassengerID:   passengerID,
		Number:        number,
		Total:         number,
		Amount:        in.Amount,
		DueDate:       paidAt,
		PaidAt:        &paidAt,
		PaymentMethod: in.PaymentMethod,
		Category:      in.Category,
		Notes:         in.Notes,
	}); err != nil {
		return PassengerFinancials{}, fmt.Errorf("registrar pagamento: %w", err)
	}
	if _, err := inst.AddHistory(ctx, models.PaymentHistory{
		PassengerID:   passengerID,
		Category:      in.Category,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		PaidAt:        paidAt,
		Notes:         in.Notes,
	}); err != nil {
		return PassengerFinancials{}, fmt.Errorf("registrar histórico: %w", err)
	}
	if err := s.Events.Record(ctx, tx, events.TypeInstallmentPaid, map[string]any{
		"passageiro_id": passengerID, "valor": in.Amount, "categoria": in.Category,
	}); err != nil {
		return PassengerFinancials{}, err
	}
	return s.refreshStatus(ctx, tx, passengerID)
}

// AutoSettle inserts one catch-up paid installment for whatever the
// passenger still owes. A settled passenger is returned unchanged.
func (s InstallmentService) AutoSettle(ctx context.Context, passengerID int64, method string) (PassengerFinancials, error) {
	var fin PassengerFinancials
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		current, err := s.load(ctx, tx, passengerID)
		if err != nil {
			return err
		}
		if !current.HasPending {
			fin = current
			return nil
		}
		fin, err = s.payInTx(ctx, tx, passengerID, PayAmountInput{
			Amount:        current.Pending,
			PaymentMethod: method,
			Category:      models.PaymentCategoryTrip,
			PaidAt:        time.Now(),
			Notes:         "Quitação automática",
		})
		if err != nil {
			return err
		}
		return s.Events.Record(ctx, tx, events.TypePassengerSettled, map[string]any{
			"passageiro_id": passengerID, "valor": current.Pending,
		})
	})
	if err != nil {
		return PassengerFinancials{}, err
	}
	utils.LogEvent(s.RequestID, "installments", "auto_settle", fmt.Sprintf("passageiro_id=%d", passengerID))
	return fin, nil
}

// Overdue lists unpaid installments due up to asOf + daysAhead.
func (s InstallmentService) Overdue(ctx context.Context, asOf time.Time, daysAhead int) ([]repositories.DueInstallment, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	until := utils.Day(asOf).AddDate(0, 0, daysAhead+1).Add(-time.Nanosecond)
	return s.Installments.ListUnpaidDueBy(ctx, until)
}

func (s InstallmentService) load(ctx context.Context, tx *sqlx.Tx, passengerID int64) (PassengerFinancials, error) {
	p, err := s.Passengers.WithTx(tx).GetByID(ctx, passengerID)
	if err != nil {
		return PassengerFinancials{}, err
	}
	p.Installments, err = s.Installments.WithTx(tx).ListByPassenger(ctx, passengerID)
	if err != nil {
		return PassengerFinancials{}, fmt.Errorf("listar parcelas: %w", err)
	}
	return ComputePassengerFinancials(p, time.Time{}, time.Time{}), nil
}

func (s InstallmentService) refreshStatus(ctx context.Context, tx *sqlx.Tx, passengerID int64) (PassengerFinancials, error) {
	fin, err := s.load(ctx, tx, passengerID)
	if err != nil {
		return PassengerFinancials{}, err
	}
	status := PaymentStatusFor(fin.NetValue, fin.PaidToDate)
	if err := s.Passengers.WithTx(tx).SetPaymentStatus(ctx, passengerID, status); err != nil {
		return PassengerFinancials{}, fmt.Errorf("atualizar status: %w", err)
	}
	return fin, nil
}

func categoryOr(c string) string {
	if c == "" {
		return models.PaymentCategoryTrip
	}
	return c
}
