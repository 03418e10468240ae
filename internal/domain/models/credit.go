package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CreditAvailable = "disponivel"
	CreditPartial   = "parcial"
	CreditUsed      = "utilizado"
	CreditRefunded  = "reembolsado"
)

// Credit mirrors creditos: a prepayment not yet tied to a trip.
type Credit struct {
	ID            int64           `db:"id" json:"id"`
	ClientID      int64           `db:"cliente_id" json:"cliente_id"`
	ClientName    string          `db:"cliente_nome" json:"cliente_nome,omitempty"`
	Value         decimal.Decimal `db:"valor_credito" json:"valor_credito"`
	Type          string          `db:"tipo_credito" json:"tipo_credito"`
	PaidAt        time.Time       `db:"data_pagamento" json:"data_pagamento"`
	PaymentMethod string          `db:"forma_pagamento" json:"forma_pagamento"`
	Status        string          `db:"status" json:"status"`
	Available     decimal.Decimal `db:"saldo_disponivel" json:"saldo_disponivel"`
	Notes         string          `db:"observacoes" json:"observacoes"`
}

type CreditInput struct {
	ClientID      int64           `json:"cliente_id" binding:"required,gt=0"`
	Value         decimal.Decimal `json:"valor_credito"`
	Type          string          `json:"tipo_credito"`
	PaidAt        time.Time       `json:"data_pagamento"`
	PaymentMethod string          `json:"forma_pagamento"`
	Notes         string          `json:"observacoes"`
}

// CreditLink mirrors credito_viagem_vinculacoes.
type CreditLink struct {
	ID       int64           `db:"id" json:"id"`
	CreditID int64           `db:"credito_id" json:"credito_id"`
	TripID   int64           `db:"viagem_id" json:"viagem_id"`
	Amount   decimal.Decimal `db:"valor_utilizado" json:"valor_utilizado"`
	LinkedAt time.Time       `db:"data_vinculacao" json:"data_vinculacao"`
}
