package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TicketStatusPending   = "pendente"
	TicketStatusPaid      = "pago"
	TicketStatusCancelled = "cancelado"
)

// Ticket mirrors ingressos, a standalone ticket sale that may link to a trip.
type Ticket struct {
	ID         int64           `db:"id" json:"id"`
	ClientID   int64           `db:"cliente_id" json:"cliente_id"`
	ClientName string          `db:"cliente_nome" json:"cliente_nome,omitempty"`
	TripID     *int64          `db:"viagem_id" json:"viagem_id"`
	MatchDate  time.Time       `db:"jogo_data" json:"jogo_data"`
	Opponent   string          `db:"adversario" json:"adversario"`
	Sector     string          `db:"setor_estadio" json:"setor_estadio"`
	CostPrice  decimal.Decimal `db:"preco_custo" json:"preco_custo"`
	SalePrice  decimal.Decimal `db:"preco_venda" json:"preco_venda"`
	Discount   decimal.Decimal `db:"desconto" json:"desconto"`
	Status     string          `db:"situacao_financeira" json:"situacao_financeira"`
	Notes      string          `db:"observacoes" json:"observacoes"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	FinalValue decimal.Decimal `db:"-" json:"valor_final"`
	Profit     decimal.Decimal `db:"-" json:"lucro"`
	MarginPct  decimal.Decimal `db:"-" json:"margem_percentual"`
	PaidTotal  decimal.Decimal `db:"-" json:"valor_pago"`
}

type TicketInput struct {
	ClientID  int64           `json:"cliente_id" binding:"required,gt=0"`
	TripID    *int64          `json:"viagem_id"`
	MatchDate time.Time       `json:"jogo_data" binding:"required"`
	Opponent  string          `json:"adversario" binding:"required"`
	Sector    string          `json:"setor_estadio" binding:"required"`
	CostPrice decimal.Decimal `json:"preco_custo"`
	SalePrice decimal.Decimal `json:"preco_venda"`
	Discount  decimal.Decimal `json:"desconto"`
	Notes     string          `json:"observacoes"`
}

// TicketPayment mirrors ingressos_pagamentos.
type TicketPayment struct {
	ID            int64           `db:"id" json:"id"`
	TicketID      int64           `db:"ingresso_id" json:"ingresso_id"`
	Amount        decimal.Decimal `db:"valor_pago" json:"valor_pago"`
	PaidAt        time.Time       `db:"data_pagamento" json:"data_pagamento"`
	PaymentMethod string          `db:"forma_pagamento" json:"forma_pagamento"`
	Notes         string          `db:"observacoes" json:"observacoes"`
}
