package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/events"
	"caravanas/internal/repositories"
	"caravanas/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// SectorLine is one sector of the summary.
type SectorLine struct {
	Sector     string          `json:"setor"`
	Passengers int             `json:"quantidade"`
	CostPrice  decimal.Decimal `json:"preco_custo"`
	SalePrice  decimal.Decimal `json:"preco_venda"`
	TotalCost  decimal.Decimal `json:"total_custo"`
	TotalSale  decimal.Decimal `json:"total_venda"`
}

type SectorTotals struct {
	Lines       []SectorLine    `json:"setores"`
	TotalCost   decimal.Decimal `json:"total_custo"`
	TotalSale   decimal.Decimal `json:"total_venda"`
	TotalProfit decimal.Decimal `json:"total_lucro"`
	MarginPct   decimal.Decimal `json:"margem_percentual"`
}

// ComputeSectorTotals multiplies each sector's unit prices by the number of
// passengers seated in it. The "Sem ingresso" sector never counts.
func ComputeSectorTotals(prices []models.SectorPrice, countBySector map[string]int) SectorTotals {
	out := SectorTotals{Lines: []SectorLine{}, TotalCost: decimal.Zero, TotalSale: decimal.Zero}
	for _, p := range prices {
		sector := strings.TrimSpace(p.Sector)
		if sector == "" || sector == models.SectorNoTicket {
			continue
		}
		n := countBySector[sector]
		qty := decimal.NewFromInt(int64(n))
		line := SectorLine{
			Sector:     sector,
			Passengers: n,
			CostPrice:  p.CostPrice,
			SalePrice:  p.SalePrice,
			TotalCost:  p.CostPrice.Mul(qty),
			TotalSale:  p.SalePrice.Mul(qty),
		}
		out.Lines = append(out.Lines, line)
		out.TotalCost = out.TotalCost.Add(line.TotalCost)
		out.TotalSale = out.TotalSale.Add(line.TotalSale)
	}
	out.TotalProfit = out.TotalSale.Sub(out.TotalCost)
	out.MarginPct = utils.Percent(out.TotalProfit, out.TotalSale)
	return out
}

// CountPassengersBySector is the in-memory equivalent of the repository count.
func CountPassengersBySector(passengers []models.TripPassenger) map[string]int {
	out := map[string]int{}
	for _, p := range passengers {
		out[strings.TrimSpace(p.Sector)]++
	}
	return out
}

// SectorPriceService keeps viagem_setores_precos and the two automatic
// ledger rows in sync.
type SectorPriceService struct {
	Trips      repositories.TripRepository
	Passengers repositories.PassengerRepository
	Finance    repositories.FinanceRepository
	DB         *sqlx.DB
	Events     *events.Recorder
	RequestID  string
}

func validateSectorPrices(in []models.SectorPriceInput) ([]models.SectorPriceInput, error) {
	seen := map[string]bool{}
	out := make([]models.SectorPriceInput, 0, len(in))
	for i, p := range in {
		p.Sector = strings.TrimSpace(p.Sector)
		field := fmt.Sprintf("setores[%d]", i)
		if p.Sector == "" {
			return nil, domain.ValidationError{Field: field, Msg: "setor obrigatório"}
		}
		if p.CostPrice.IsNegative() || p.SalePrice.IsNegative() {
			return nil, domain.ValidationError{Field: field, Msg: "preços não podem ser negativos"}
		}
		key := strings.ToLower(p.Sector)
		if seen[key] {
			return nil, domain.ValidationError{Field: field, Msg: fmt.Sprintf("setor %q repetido", p.Sector)}
		}
		seen[key] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })
	return out, nil
}

// SaveSectorPrices replaces the trip's sector prices and upserts the
// automatic expense and revenue rows by marker. Saving the same input twice
// leaves exactly one row of each.
func (s SectorPriceService) SaveSectorPrices(ctx context.Context, tripID int64, in []models.SectorPriceInput) (SectorTotals, error) {
	prices, err := validateSectorPrices(in)
	if err != nil {
		return SectorTotals{}, err
	}
	trip, err := s.Trips.GetByID(ctx, tripID)
	if err != nil {
		return SectorTotals{}, err
	}

	var totals SectorTotals
	err = inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		fin := s.Finance.WithTx(tx)
		if err := fin.DeleteSectorPrices(ctx, tripID); err != nil {
			return fmt.Errorf("limpar setores: %w", err)
		}
		rows := make([]models.SectorPrice, 0, len(prices))
		for _, p := range prices {
			row := models.SectorPrice{TripID: tripID, Sector: p.Sector, CostPrice: p.CostPrice, SalePrice: p.SalePrice}
			if err := fin.InsertSectorPrice(ctx, row); err != nil {
				return fmt.Errorf("salvar setor %s: %w", p.Sector, err)
			}
			rows = append(rows, row)
		}

		counts, err := s.Passengers.WithTx(tx).CountBySector(ctx, tripID)
		if err != nil {
			return fmt.Errorf("contar passageiros por setor: %w", err)
		}
		totals = ComputeSectorTotals(rows, counts)

		if err := upsertExpenseMarker(ctx, fin, trip, totals.TotalCost); err != nil {
			return err
		}
		if err := upsertRevenueMarker(ctx, fin, trip, totals.TotalSale); err != nil {
			return err
		}
		return s.Events.Record(ctx, tx, events.TypeSectorPricesSaved, map[string]any{
			"viagem_id": tripID, "total_custo": totals.TotalCost, "total_venda": totals.TotalSale,
		})
	})
	if err != nil {
		return SectorTotals{}, err
	}
	utils.LogEvent(s.RequestID, "sector_prices", "save",
		fmt.Sprintf("viagem_id=%d setores=%d custo=%s venda=%s", tripID, len(prices), totals.TotalCost.StringFixed(2), totals.TotalSale.StringFixed(2)))
	return totals, nil
}

func upsertExpenseMarker(ctx context.Context, fin repositories.FinanceRepository, trip models.Trip, amount decimal.Decimal) error {
	id, found, err := fin.FindExpenseByMarker(ctx, trip.ID, models.AutoTicketSupplier)
	if err != nil {
		return fmt.Errorf("buscar despesa automática: %w", err)
	}
	if found {
		return fin.UpdateExpenseAmount(ctx, id, amount, trip.MatchDate)
	}
	_, err = fin.CreateExpense(ctx, models.TripExpense{
		TripID:      trip.ID,
		Supplier:    models.AutoTicketSupplier,
		Category:    models.AutoTicketCategory,
		Description: "Custo dos ingressos por setor",
		Amount:      amount,
		SpentAt:     trip.MatchDate,
		Status:      models.ExpensePaid,
	})
	return err
}

func upsertRevenueMarker(ctx context.Context, fin repositories.FinanceRepository, trip models.Trip, amount decimal.Decimal) error {
	id, found, err := fin.FindRevenueByMarker(ctx, trip.ID, models.AutoTicketRevenue)
	if err != nil {
		return fmt.Errorf("buscar receita automática: %w", err)
	}
	if found {
		return fin.UpdateRevenueAmount(ctx, id, amount, trip.MatchDate)
	}
	_, err = fin.CreateRevenue(ctx, models.TripRevenue{
		TripID:      trip.ID,
		Description: models.AutoTicketRevenue,
		Category:    models.AutoTicketCategory,
		Amount:      amount,
		ReceivedAt:  trip.MatchDate,
		Status:      models.RevenueReceived,
	})
	return err
}

// DeleteSectorPrices removes every sector price of the trip and both marker rows.
func (s SectorPriceService) DeleteSectorPrices(ctx context.Context, tripID int64) error {
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		fin := s.Finance.WithTx(tx)
		if err := fin.DeleteSectorPrices(ctx, tripID); err != nil {
			return err
		}
		if err := fin.DeleteExpenseByMarker(ctx, tripID, models.AutoTicketSupplier); err != nil {
			return err
		}
		return fin.DeleteRevenueByMarker(ctx, tripID, models.AutoTicketRevenue)
	})
	if err != nil {
		return fmt.Errorf("remover setores: %w", err)
	}
	utils.LogEvent(s.RequestID, "sector_prices", "delete", fmt.Sprintf("viagem_id=%d", tripID))
	return nil
}

// SectorSummary recomputes totals from the stored prices and current seating.
func (s SectorPriceService) SectorSummary(ctx context.Context, tripID int64) (SectorTotals, error) {
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return SectorTotals{}, err
	}
	prices, err := s.Finance.ListSectorPrices(ctx, tripID)
	if err != nil {
		return SectorTotals{}, fmt.Errorf("listar setores: %w", err)
	}
	counts, err := s.Passengers.CountBySector(ctx, tripID)
	if err != nil {
		return SectorTotals{}, fmt.Errorf("contar passageiros por setor: %w", err)
	}
	return ComputeSectorTotals(prices, counts), nil
}
