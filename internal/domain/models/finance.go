package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Marker rows materialized from sector prices.
const (
	AutoTicketSupplier = "Fornecedor de Ingressos - Automático"
	AutoTicketRevenue  = "Venda de Ingressos - Automático"
	AutoTicketCategory = "ingressos"
)

const (
	RevenueReceived = "recebido"
	RevenuePending  = "pendente"
	ExpensePaid     = "pago"
	ExpensePending  = "pendente"
)

// SectorPrice mirrors viagem_setores_precos.
type SectorPrice struct {
	ID        int64           `db:"id" json:"id"`
	TripID    int64           `db:"viagem_id" json:"viagem_id"`
	Sector    string          `db:"setor" json:"setor"`
	CostPrice decimal.Decimal `db:"preco_custo" json:"preco_custo"`
	SalePrice decimal.Decimal `db:"preco_venda" json:"preco_venda"`
}

type SectorPriceInput struct {
	Sector    string          `json:"setor" binding:"required"`
	CostPrice decimal.Decimal `json:"preco_custo"`
	SalePrice decimal.Decimal `json:"preco_venda"`
}

// TripRevenue mirrors viagem_receitas.
type TripRevenue struct {
	ID            int64           `db:"id" json:"id"`
	TripID        int64           `db:"viagem_id" json:"viagem_id"`
	Description   string          `db:"descricao" json:"descricao"`
	Category      string          `db:"categoria" json:"categoria"`
	Amount        decimal.Decimal `db:"valor" json:"valor"`
	ReceivedAt    time.Time       `db:"data_recebimento" json:"data_recebimento"`
	Status        string          `db:"status" json:"status"`
	PaymentMethod string          `db:"forma_pagamento" json:"forma_pagamento"`
}

// TripExpense mirrors viagem_despesas.
type TripExpense struct {
	ID            int64           `db:"id" json:"id"`
	TripID        int64           `db:"viagem_id" json:"viagem_id"`
	Supplier      string          `db:"fornecedor" json:"fornecedor"`
	Category      string          `db:"categoria" json:"categoria"`
	Description   string          `db:"descricao" json:"descricao"`
	Amount        decimal.Decimal `db:"valor" json:"valor"`
	SpentAt       time.Time       `db:"data_despesa" json:"data_despesa"`
	Status        string          `db:"status" json:"status"`
	PaymentMethod string          `db:"forma_pagamento" json:"forma_pagamento"`
}
