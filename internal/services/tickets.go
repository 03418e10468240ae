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

// ComputeTicketFigures fills valor_final = venda - desconto, lucro =
// final - custo and margem over the final value.
func ComputeTicketFigures(t models.Ticket) models.Ticket {
	t.FinalValue = utils.NetValue(t.SalePrice, t.Discount)
	t.Profit = t.FinalValue.Sub(t.CostPrice)
	t.MarginPct = utils.Percent(t.Profit, t.FinalValue)
	return t
}

// TicketSettled reports whether paid covers the final value within tolerance.
func TicketSettled(final, paid decimal.Decimal) bool {
	return paid.GreaterThanOrEqual(final.Sub(utils.Tolerance))
}

type TicketService struct {
	Tickets   repositories.TicketRepository
	Clients   repositories.ClientRepository
	DB        *sqlx.DB
	Events    *events.Recorder
	RequestID string
}

func (s TicketService) Create(ctx context.Context, in models.TicketInput) (models.Ticket, error) {
	in.Opponent = utils.NormalizeSpace(in.Opponent)
	in.Sector = strings.TrimSpace(in.Sector)
	switch {
	case in.Opponent == "":
		return models.Ticket{}, domain.ValidationError{Field: "adversario", Msg: "adversário obrigatório"}
	case in.Sector == "":
		return models.Ticket{}, domain.ValidationError{Field: "setor_estadio", Msg: "setor obrigatório"}
	case in.MatchDate.IsZero():
		return models.Ticket{}, domain.ValidationError{Field: "jogo_data", Msg: "data do jogo obrigatória"}
	case in.CostPrice.IsNegative() || in.SalePrice.IsNegative() || in.Discount.IsNegative():
		return models.Ticket{}, domain.ValidationError{Field: "preco_venda", Msg: "valores não podem ser negativos"}
	}
	if _, err := s.Clients.GetByID(ctx, in.ClientID); err != nil {
		return models.Ticket{}, err
	}
	id, err := s.Tickets.Create(ctx, in)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("salvar ingresso: %w", err)
	}
	utils.LogEvent(s.RequestID, "tickets", "create", fmt.Sprintf("ingresso_id=%d cliente_id=%d", id, in.ClientID))
	return s.Get(ctx, id)
}

func (s TicketService) Get(ctx context.Context, id int64) (models.Ticket, error) {
	t, err := s.Tickets.GetByID(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	t.PaidTotal, err = s.Tickets.SumPayments(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	return ComputeTicketFigures(t), nil
}

func (s TicketService) List(ctx context.Context, f repositories.TicketFilter) ([]models.Ticket, error) {
	list, err := s.Tickets.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = ComputeTicketFigures(list[i])
	}
	return list, nil
}

func (s TicketService) Delete(ctx context.Context, id int64) error {
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return s.Tickets.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "tickets", "delete", fmt.Sprintf("ingresso_id=%d", id))
	return nil
}

func (s TicketService) Payments(ctx context.Context, id int64) ([]models.TicketPayment, error) {
	return s.Tickets.ListPayments(ctx, id)
}

// RegisterPayment adds a payment and flips situacao_financeira to pago once
// the sum covers valor_final.
func (s TicketService) RegisterPayment(ctx context.Context, ticketID int64, p models.TicketPayment) (models.Ticket, error) {
	if !p.Amount.IsPositive() {
		return models.Ticket{}, domain.ValidationError{Field: "valor_pago", Msg: "o pagamento deve ser maior que zero"}
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	p.TicketID = ticketID
	var out models.Ticket
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		tickets := s.Tickets.WithTx(tx)
		t, err := tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if t.Status == models.TicketStatusCancelled {
			return domain.ConflictError{Resource: "ingresso", Msg: "ingresso cancelado"}
		}
		if _, err := tickets.AddPayment(ctx, p); err != nil {
			return fmt.Errorf("registrar pagamento: %w", err)
		}
		t.PaidTotal, err = tickets.SumPayments(ctx, ticketID)
		if err != nil {
			return err
		}
		t = ComputeTicketFigures(t)
		if t.Status != models.TicketStatusPaid && TicketSettled(t.FinalValue, t.PaidTotal) {
			if err := tickets.SetStatus(ctx, ticketID, models.TicketStatusPaid); err != nil {
				return err
			}
			t.Status = models.TicketStatusPaid
		}
		out = t
		return s.Events.Record(ctx, tx, events.TypeTicketPaid, map[string]any{
			"ingresso_id": ticketID, "valor": p.Amount, "situacao": t.Status,
		})
	})
	if err != nil {
		return models.Ticket{}, err
	}
	utils.LogEvent(s.RequestID, "tickets", "pay",
		fmt.Sprintf("ingresso_id=%d valor=%s pago=%s situacao=%s", ticketID, p.Amount.StringFixed(2), out.PaidTotal.StringFixed(2), out.Status))
	return out, nil
}
