package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TripVenueHome = "casa"
	TripVenueAway = "fora"
)

// Trip mirrors viagens: one caravan to a match.
type Trip struct {
	ID           int64           `db:"id" json:"id"`
	Opponent     string          `db:"adversario" json:"adversario"`
	MatchDate    time.Time       `db:"data_jogo" json:"data_jogo"`
	Venue        string          `db:"local_jogo" json:"local_jogo"`
	VenueType    string          `db:"tipo" json:"tipo"`
	DefaultPrice decimal.Decimal `db:"valor_padrao" json:"valor_padrao"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

type TripInput struct {
	Opponent     string          `json:"adversario" binding:"required"`
	MatchDate    time.Time       `json:"data_jogo" binding:"required"`
	Venue        string          `json:"local_jogo"`
	VenueType    string          `json:"tipo" binding:"omitempty,oneof=casa fora"`
	DefaultPrice decimal.Decimal `json:"valor_padrao"`
	Status       string          `json:"status"`
}

// Bus mirrors viagem_onibus.
type Bus struct {
	ID         int64  `db:"id" json:"id"`
	TripID     int64  `db:"viagem_id" json:"viagem_id"`
	Type       string `db:"tipo_onibus" json:"tipo_onibus"`
	Company    string `db:"empresa" json:"empresa"`
	Identifier string `db:"numero_identificacao" json:"numero_identificacao"`
	BaseSeats  int    `db:"capacidade_onibus" json:"capacidade_onibus"`
	ExtraSeats int    `db:"lugares_extras" json:"lugares_extras"`
}

// Capacity is capacidade_onibus + lugares_extras.
func (b Bus) Capacity() int {
	return b.BaseSeats + b.ExtraSeats
}

// Label is a human name for messages and reports.
func (b Bus) Label() string {
	if b.Identifier != "" {
		return b.Type + " " + b.Identifier
	}
	return b.Type
}

type BusInput struct {
	Type       string `json:"tipo_onibus" binding:"required"`
	Company    string `json:"empresa"`
	Identifier string `json:"numero_identificacao"`
	BaseSeats  int    `json:"capacidade_onibus" binding:"required,gt=0"`
	ExtraSeats int    `json:"lugares_extras" binding:"gte=0"`
}

// BusOccupancy is a bus plus its current passenger count.
type BusOccupancy struct {
	Bus
	Occupancy int  `db:"ocupacao" json:"ocupacao"`
	Full      bool `db:"-" json:"lotado"`
	Free      int  `db:"-" json:"lugares_livres"`
}
