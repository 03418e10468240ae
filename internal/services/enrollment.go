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

// PaymentMethodWallet tags installments paid from the client's wallet.
const PaymentMethodWallet = "carteira"

// EnrollRequest adds a client to a trip. Either ClientID or Client is set.
type EnrollRequest struct {
	TripID       int64               `json:"-"`
	ClientID     *int64              `json:"cliente_id"`
	Client       *models.ClientInput `json:"cliente"`
	Value        *decimal.Decimal    `json:"valor"`
	Discount     decimal.Decimal     `json:"desconto"`
	Sector       string              `json:"setor_maracana"`
	BoardingCity string              `json:"cidade_embarque"`
	GroupName    string              `json:"grupo_nome"`
	GroupColor   string              `json:"grupo_cor"`
	Notes        string              `json:"observacoes"`

	// Installments is the number of scheduled installments. Zero with
	// PaidAtOnce false leaves the passenger without a schedule.
	Installments   int             `json:"total_parcelas"`
	FirstDue       time.Time       `json:"primeiro_vencimento"`
	IntervalMonths int             `json:"intervalo_meses"`
	PaidAtOnce     bool            `json:"pago_a_vista"`
	PaymentMethod  string          `json:"forma_pagamento"`
	WalletAmount   decimal.Decimal `json:"valor_carteira"`
}

type EnrollResult struct {
	Passenger    models.TripPassenger      `json:"passageiro"`
	Client       models.Client             `json:"cliente"`
	Installments []models.Installment      `json:"parcelas"`
	WalletTx     *models.WalletTransaction `json:"transacao_carteira,omitempty"`
	Financials   PassengerFinancials       `json:"financeiro"`
}

// EnrollmentService creates client, passenger, schedule and wallet use in a
// single transaction.
type EnrollmentService struct {
	Clients      repositories.ClientRepository
	Trips        repositories.TripRepository
	Passengers   repositories.PassengerRepository
	Installments repositories.InstallmentRepository
	Wallet       WalletService
	DB           *sqlx.DB
	Events       *events.Recorder
	RequestID    string
}

func (r EnrollRequest) validate() error {
	if r.ClientID == nil && r.Client == nil {
		return domain.ValidationError{Field: "cliente", Msg: "informe cliente_id ou os dados do cliente"}
	}
	if r.Value != nil && r.Value.IsNegative() {
		return domain.ValidationError{Field: "valor", Msg: "valor negativo"}
	}
	if r.Discount.IsNegative() {
		return domain.ValidationError{Field: "desconto", Msg: "desconto negativo"}
	}
	if r.Installments < 0 {
		return domain.ValidationError{Field: "total_parcelas", Msg: "quantidade inválida"}
	}
	if r.WalletAmount.IsNegative() {
		return domain.ValidationError{Field: "valor_carteira", Msg: "valor negativo"}
	}
	return nil
}

func (s EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (EnrollResult, error) {
	if err := req.validate(); err != nil {
		return EnrollResult{}, err
	}
	trip, err := s.Trips.GetByID(ctx, req.TripID)
	if err != nil {
		return EnrollResult{}, err
	}
	value := trip.DefaultPrice
	if req.Value != nil {
		value = *req.Value
	}
	net := utils.NetValue(value, req.Discount)
	if req.WalletAmount.GreaterThan(net) {
		return EnrollResult{}, domain.ValidationError{Field: "valor_carteira", Msg: "valor da carteira maior que o valor líquido"}
	}

	now := time.Now()
	plan, err := s.plan(req, net, now)
	if err != nil {
		return EnrollResult{}, err
	}

	var res EnrollResult
	err = inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		client, err := s.resolveClient(ctx, tx, req)
		if err != nil {
			return err
		}
		res.Client = client

		p := models.TripPassenger{
			TripID:       trip.ID,
			ClientID:     client.ID,
			Value:        value,
			Discount:     req.Discount,
			Sector:       strings.TrimSpace(req.Sector),
			BoardingCity: strings.TrimSpace(req.BoardingCity),
			Notes:        req.Notes,
		}
		if name := strings.TrimSpace(req.GroupName); name != "" {
			color := strings.TrimSpace(req.GroupColor)
			p.GroupName, p.GroupColor = &name, &color
		}
		pid, err := s.Passengers.WithTx(tx).Create(ctx, p)
		if err != nil {
			return fmt.Errorf("salvar passageiro: %w", err)
		}

		inst := s.Installments.WithTx(tx)
		if req.WalletAmount.IsPositive() {
			tripID := trip.ID
			wtx, err := s.Wallet.applyMovement(ctx, tx, client.ID, models.WalletTxUse, models.WalletMovementInput{
				Amount:        req.WalletAmount,
				Description:   "Viagem " + trip.Opponent,
				PaymentMethod: PaymentMethodWallet,
				TripID:        &tripID,
			})
			if err != nil {
				return err
			}
			res.WalletTx = &wtx
		}
		for _, in := range plan {
			in.PassengerID = pid
			if _, err := inst.Create(ctx, in); err != nil {
				return fmt.Errorf("salvar parcela %d: %w", in.Number, err)
			}
		}

		p, err = s.Passengers.WithTx(tx).GetByID(ctx, pid)
		if err != nil {
			return err
		}
		p.Installments, err = inst.ListByPassenger(ctx, pid)
		if err != nil {
			return err
		}
		res.Financials = ComputePassengerFinancials(p, time.Time{}, time.Time{})
		p.PaymentStatus = PaymentStatusFor(res.Financials.NetValue, res.Financials.PaidToDate)
		if err := s.Passengers.WithTx(tx).SetPaymentStatus(ctx, pid, p.PaymentStatus); err != nil {
			return err
		}
		res.Passenger = p
		res.Installments = p.Installments
		return s.Events.Record(ctx, tx, events.TypePassengerEnrolled, map[string]any{
			"passageiro_id": pid, "viagem_id": trip.ID, "cliente_id": client.ID, "valor_liquido": net,
		})
	})
	if err != nil {
		utils.LogWarn(s.RequestID, "enrollment", "rollback", fmt.Sprintf("viagem_id=%d err=%v", req.TripID, err))
		return EnrollResult{}, err
	}
	utils.LogEvent(s.RequestID, "enrollment", "enroll",
		fmt.Sprintf("viagem_id=%d passageiro_id=%d cliente_id=%d parcelas=%d", trip.ID, res.Passenger.ID, res.Client.ID, len(res.Installments)))
	return res, nil
}

func (s EnrollmentService) resolveClient(ctx context.Context, tx *sqlx.Tx, req EnrollRequest) (models.Client, error) {
	clients := s.Clients.WithTx(tx)
	if req.ClientID != nil {
		return clients.GetByID(ctx, *req.ClientID)
	}
	in, err := normalizeClient(*req.Client)
	if err != nil {
		return models.Client{}, err
	}
	if in.CPF != "" {
		taken, err := clients.ExistsCPF(ctx, in.CPF, 0)
		if err != nil {
			return models.Client{}, err
		}
		if taken {
			return models.Client{}, domain.ConflictError{Resource: "cliente", Msg: "CPF já cadastrado"}
		}
	}
	id, err := clients.Create(ctx, in)
	if err != nil {
		return models.Client{}, fmt.Errorf("salvar cliente: %w", err)
	}
	return clients.GetByID(ctx, id)
}

// plan is the full installment list: the wallet-paid row first, then the
// schedule for what is left. Every row carries the same total.
func (s EnrollmentService) plan(req EnrollRequest, net decimal.Decimal, now time.Time) ([]models.Installment, error) {
	rest, err := s.schedule(req, net.Sub(req.WalletAmount), now)
	if err != nil {
		return nil, err
	}
	if !req.WalletAmount.IsPositive() {
		return rest, nil
	}
	out := make([]models.Installment, 0, len(rest)+1)
	out = append(out, models.Installment{
		Number: 1, Amount: req.WalletAmount, DueDate: now, PaidAt: &now,
		PaymentMethod: PaymentMethodWallet, Category: models.PaymentCategoryTrip,
	})
	for _, in := range rest {
		in.Number++
		out = append(out, in)
	}
	for i := range out {
		out[i].Total = len(out)
	}
	return out, nil
}

func (s EnrollmentService) schedule(req EnrollRequest, amount decimal.Decimal, now time.Time) ([]models.Installment, error) {
	if !amount.IsPositive() {
		return nil, nil
	}
	if req.PaidAtOnce {
		return []models.Installment{{
			Number: 1, Total: 1, Amount: amount, DueDate: now, PaidAt: &now,
			PaymentMethod: req.PaymentMethod, Category: models.PaymentCategoryTrip,
		}}, nil
	}
	if req.Installments == 0 {
		return nil, nil
	}
	first := req.FirstDue
	if first.IsZero() {
		first = utils.Day(now)
	}
	return BuildSchedule(amount, req.Installments, first, req.IntervalMonths)
}
