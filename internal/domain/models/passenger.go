package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending = "Pendente"
	PaymentStatusPartial = "Parcial"
	PaymentStatusPaid    = "Pago"
)

// SectorNoTicket is the sentinel sector for passengers travelling without a ticket.
const SectorNoTicket = "Sem ingresso"

// TripPassenger mirrors viagem_passageiros: one client's seat on a trip.
// The group is a free-text (grupo_nome, grupo_cor) tag, not a foreign key.
type TripPassenger struct {
	ID            int64           `db:"id" json:"id"`
	TripID        int64           `db:"viagem_id" json:"viagem_id"`
	ClientID      int64           `db:"cliente_id" json:"cliente_id"`
	ClientName    string          `db:"cliente_nome" json:"cliente_nome,omitempty"`
	ClientPhone   string          `db:"cliente_telefone" json:"cliente_telefone,omitempty"`
	Value         decimal.Decimal `db:"valor" json:"valor"`
	Discount      decimal.Decimal `db:"desconto" json:"desconto"`
	PaymentStatus string          `db:"status_pagamento" json:"status_pagamento"`
	BusID         *int64          `db:"onibus_id" json:"onibus_id"`
	Sector        string          `db:"setor_maracana" json:"setor_maracana"`
	BoardingCity  string          `db:"cidade_embarque" json:"cidade_embarque"`
	GroupName     *string         `db:"grupo_nome" json:"grupo_nome"`
	GroupColor    *string         `db:"grupo_cor" json:"grupo_cor"`
	Notes         string          `db:"observacoes" json:"observacoes"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`

	Installments []Installment `db:"-" json:"parcelas,omitempty"`
}

// NetValue is valor - desconto.
func (p TripPassenger) NetValue() decimal.Decimal {
	return p.Value.Sub(p.Discount)
}

// Group returns the trimmed (name, color) pair; ok is false when no group name is set.
func (p TripPassenger) Group() (name, color string, ok bool) {
	if p.GroupName == nil || strings.TrimSpace(*p.GroupName) == "" {
		return "", "", false
	}
	name = strings.TrimSpace(*p.GroupName)
	if p.GroupColor != nil {
		color = strings.TrimSpace(*p.GroupColor)
	}
	return name, color, true
}

// OnBus reports whether the passenger is assigned to busID.
func (p TripPassenger) OnBus(busID int64) bool {
	return p.BusID != nil && *p.BusID == busID
}

// PassengerUpdate supports PATCH-style updates; nil fields are left untouched.
type PassengerUpdate struct {
	Value        *decimal.Decimal `json:"valor"`
	Discount     *decimal.Decimal `json:"desconto"`
	Sector       *string          `json:"setor_maracana"`
	BoardingCity *string          `json:"cidade_embarque"`
	GroupName    *string          `json:"grupo_nome"`
	GroupColor   *string          `json:"grupo_cor"`
	Notes        *string          `json:"observacoes"`
}

// Installment mirrors viagem_passageiros_parcelas. A nil PaidAt means unpaid.
type Installment struct {
	ID            int64           `db:"id" json:"id"`
	PassengerID   int64           `db:"viagem_passageiro_id" json:"viagem_passageiro_id"`
	Number        int             `db:"numero_parcela" json:"numero_parcela"`
	Total         int             `db:"total_parcelas" json:"total_parcelas"`
	Amount        decimal.Decimal `db:"valor_parcela" json:"valor_parcela"`
	DueDate       time.Time       `db:"data_vencimento" json:"data_vencimento"`
	PaidAt        *time.Time      `db:"data_pagamento" json:"data_pagamento"`
	PaymentMethod string          `db:"forma_pagamento" json:"forma_pagamento"`
	Category      string          `db:"categoria" json:"categoria"`
	Notes         string          `db:"observacoes" json:"observacoes"`
}

func (i Installment) Paid() bool {
	return i.PaidAt != nil
}

const (
	PaymentCategoryTrip    = "viagem"
	PaymentCategoryOutings = "passeios"
	PaymentCategoryBoth    = "ambos"
)

// PaymentHistory mirrors historico_pagamentos_categorizado, a mutable journal.
type PaymentHistory struct {
	ID            int64           `db:"id" json:"id"`
	PassengerID   int64           `db:"viagem_passageiro_id" json:"viagem_passageiro_id"`
	Category      string          `db:"categoria" json:"categoria"`
	Amount        decimal.Decimal `db:"valor_pago" json:"valor_pago"`
	PaymentMethod string          `db:"forma_pagamento" json:"forma_pagamento"`
	PaidAt        time.Time       `db:"data_pagamento" json:"data_pagamento"`
	Notes         string          `db:"observacoes" json:"observacoes"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
