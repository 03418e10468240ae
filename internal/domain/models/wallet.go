package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WalletTxDeposit    = "deposito"
	WalletTxUse        = "uso"
	WalletTxAdjustment = "ajuste"
)

// Wallet mirrors cliente_carteira. saldo_atual is stored redundantly and
// should equal deposits - uses + adjustments over non-cancelled transactions.
type Wallet struct {
	ClientID       int64           `db:"cliente_id" json:"cliente_id"`
	Balance        decimal.Decimal `db:"saldo_atual" json:"saldo_atual"`
	TotalDeposited decimal.Decimal `db:"total_depositado" json:"total_depositado"`
	TotalUsed      decimal.Decimal `db:"total_usado" json:"total_usado"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// WalletTransaction mirrors cliente_carteira_transacoes.
type WalletTransaction struct {
	ID            int64           `db:"id" json:"id"`
	ClientID      int64           `db:"cliente_id" json:"cliente_id"`
	Type          string          `db:"tipo" json:"tipo"`
	Amount        decimal.Decimal `db:"valor" json:"valor"`
	BalanceBefore decimal.Decimal `db:"saldo_anterior" json:"saldo_anterior"`
	BalanceAfter  decimal.Decimal `db:"saldo_posterior" json:"saldo_posterior"`
	Description   string          `db:"descricao" json:"descricao"`
	PaymentMethod string          `db:"forma_pagamento" json:"forma_pagamento"`
	TripID        *int64          `db:"viagem_id" json:"viagem_id"`
	Cancelled     bool            `db:"cancelada" json:"cancelada"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// WalletMovementInput is the body of deposit/use/adjust requests. Amount is
// signed only for adjustments.
type WalletMovementInput struct {
	Amount        decimal.Decimal `json:"valor"`
	Description   string          `json:"descricao"`
	PaymentMethod string          `json:"forma_pagamento"`
	TripID        *int64          `json:"viagem_id"`
}

// MonthlyWalletRow is one (client, month) line of the wallet report.
type MonthlyWalletRow struct {
	ClientID   int64           `json:"cliente_id"`
	ClientName string          `json:"cliente_nome"`
	Month      string          `json:"mes"`
	Deposits   decimal.Decimal `json:"depositos"`
	Uses       decimal.Decimal `json:"usos"`
	Net        decimal.Decimal `json:"saldo_mes"`
	TxCount    int             `json:"quantidade"`
}

// WalletReconciliation compares the stored balance with the journal.
type WalletReconciliation struct {
	ClientID      int64           `json:"cliente_id"`
	StoredBalance decimal.Decimal `json:"saldo_armazenado"`
	JournalTotal  decimal.Decimal `json:"saldo_calculado"`
	Drift         decimal.Decimal `json:"diferenca"`
	Consistent    bool            `json:"consistente"`
}
