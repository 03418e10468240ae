package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"
	"caravanas/internal/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PassengerFinancials is the money position of one passenger.
type PassengerFinancials struct {
	PassengerID  int64           `json:"passageiro_id"`
	ClientID     int64           `json:"cliente_id"`
	ClientName   string          `json:"cliente_nome"`
	ClientPhone  string          `json:"cliente_telefone,omitempty"`
	NetValue     decimal.Decimal `json:"valor_liquido"`
	PaidInPeriod decimal.Decimal `json:"valor_pago_periodo"`
	PaidToDate   decimal.Decimal `json:"valor_pago_total"`
	Pending      decimal.Decimal `json:"valor_pendente"`
	HasPending   bool            `json:"tem_pendencia"`
	NextDue      *time.Time      `json:"proximo_vencimento,omitempty"`
}

// ComputePassengerFinancials applies the per-passenger rules: net = valor -
// desconto, paid-to-date sums every installment with a payment date, and a
// pending balance within 0.01 of zero counts as settled.
func ComputePassengerFinancials(p models.TripPassenger, start, end time.Time) PassengerFinancials {
	out := PassengerFinancials{
		PassengerID:  p.ID,
		ClientID:     p.ClientID,
		ClientName:   p.ClientName,
		ClientPhone:  utils.FormatPhone(p.ClientPhone),
		NetValue:     utils.NetValue(p.Value, p.Discount),
		PaidInPeriod: decimal.Zero,
		PaidToDate:   decimal.Zero,
	}
	for _, in := range p.Installments {
		if in.PaidAt == nil {
			if out.NextDue == nil || in.DueDate.Before(*out.NextDue) {
				due := in.DueDate
				out.NextDue = &due
			}
			continue
		}
		out.PaidToDate = out.PaidToDate.Add(in.Amount)
		if utils.InRange(*in.PaidAt, start, end) {
			out.PaidInPeriod = out.PaidInPeriod.Add(in.Amount)
		}
	}
	out.Pending = out.NetValue.Sub(out.PaidToDate)
	if utils.IsSettled(out.Pending) {
		if out.Pending.Abs().LessThanOrEqual(utils.Tolerance) {
			out.Pending = decimal.Zero
		}
	} else {
		out.HasPending = true
	}
	return out
}

// TripData is everything Rollup needs for one trip.
type TripData struct {
	Trip       models.Trip
	Passengers []models.TripPassenger
	Revenues   []models.TripRevenue
	Expenses   []models.TripExpense
}

type RollupInput struct {
	Start time.Time
	End   time.Time
	Trips []TripData
}

type TripSummary struct {
	TripID           int64           `json:"viagem_id"`
	Opponent         string          `json:"adversario"`
	MatchDate        time.Time       `json:"data_jogo"`
	PassengerCount   int             `json:"quantidade_passageiros"`
	PassengerRevenue decimal.Decimal `json:"receita_passageiros"`
	ExtraRevenue     decimal.Decimal `json:"receitas_extras"`
	Revenue          decimal.Decimal `json:"receita_total"`
	Expense          decimal.Decimal `json:"despesa_total"`
	Profit           decimal.Decimal `json:"lucro"`
	MarginPct        decimal.Decimal `json:"margem_percentual"`
	PendingTotal     decimal.Decimal `json:"total_pendencias"`
	PendingCount     int             `json:"count_pendencias"`
	ReceivedInPeriod decimal.Decimal `json:"receita_periodo_parcelas"`
}

// Receivable is a passenger still owing money.
type Receivable struct {
	PassengerFinancials
	TripID    int64     `json:"viagem_id"`
	Opponent  string    `json:"adversario"`
	MatchDate time.Time `json:"data_jogo"`
}

type FinancialSummary struct {
	Start            time.Time            `json:"inicio"`
	End              time.Time            `json:"fim"`
	Revenue          decimal.Decimal      `json:"receita_total"`
	Expense          decimal.Decimal      `json:"despesa_total"`
	Profit           decimal.Decimal      `json:"lucro"`
	MarginPct        decimal.Decimal      `json:"margem_percentual"`
	PendingTotal     decimal.Decimal      `json:"total_pendencias"`
	PendingCount     int                  `json:"count_pendencias"`
	ReceivedInPeriod decimal.Decimal      `json:"receita_periodo_parcelas"`
	Trips            []TripSummary        `json:"viagens"`
	Receivables      []Receivable         `json:"contas_a_receber"`
	Payables         []models.TripExpense `json:"contas_a_pagar"`
	Warnings         []string             `json:"avisos,omitempty"`
}

// Rollup consolidates revenue, expense and receivables. Revenue counts the
// full net value of every passenger in scope (booked revenue) plus extra
// revenues with status recebido dated in the period; expense counts rows
// with status pago dated in the period.
func Rollup(in RollupInput) FinancialSummary {
	out := FinancialSummary{
		Start:            in.Start,
		End:              in.End,
		Revenue:          decimal.Zero,
		Expense:          decimal.Zero,
		PendingTotal:     decimal.Zero,
		ReceivedInPeriod: decimal.Zero,
		Trips:            []TripSummary{},
		Receivables:      []Receivable{},
		Payables:         []models.TripExpense{},
	}

	for _, td := range in.Trips {
		ts := TripSummary{
			TripID:           td.Trip.ID,
			Opponent:         td.Trip.Opponent,
			MatchDate:        td.Trip.MatchDate,
			PassengerCount:   len(td.Passengers),
			PassengerRevenue: decimal.Zero,
			ExtraRevenue:     decimal.Zero,
			Expense:          decimal.Zero,
			PendingTotal:     decimal.Zero,
			ReceivedInPeriod: decimal.Zero,
		}
		for _, p := range td.Passengers {
			pf := ComputePassengerFinancials(p, in.Start, in.End)
			ts.PassengerRevenue = ts.PassengerRevenue.Add(pf.NetValue)
			ts.ReceivedInPeriod = ts.ReceivedInPeriod.Add(pf.PaidInPeriod)
			if pf.HasPending {
				ts.PendingTotal = ts.PendingTotal.Add(pf.Pending)
				ts.PendingCount++
				out.Receivables = append(out.Receivables, Receivable{
					PassengerFinancials: pf,
					TripID:              td.Trip.ID,
					Opponent:            td.Trip.Opponent,
					MatchDate:           td.Trip.MatchDate,
				})
			}
		}
		for _, r := range td.Revenues {
			if r.Status == models.RevenueReceived && utils.InRange(r.ReceivedAt, in.Start, in.End) {
				ts.ExtraRevenue = ts.ExtraRevenue.Add(r.Amount)
			}
		}
		for _, e := range td.Expenses {
			switch e.Status {
			case models.ExpensePaid:
				if utils.InRange(e.SpentAt, in.Start, in.End) {
					ts.Expense = ts.Expense.Add(e.Amount)
				}
			case models.ExpensePending:
				out.Payables = append(out.Payables, e)
			}
		}
		ts.Revenue = ts.PassengerRevenue.Add(ts.ExtraRevenue)
		ts.Profit = ts.Revenue.Sub(ts.Expense)
		ts.MarginPct = utils.Percent(ts.Profit, ts.Revenue)

		out.Revenue = out.Revenue.Add(ts.Revenue)
		out.Expense = out.Expense.Add(ts.Expense)
		out.PendingTotal = out.PendingTotal.Add(ts.PendingTotal)
		out.PendingCount += ts.PendingCount
		out.ReceivedInPeriod = out.ReceivedInPeriod.Add(ts.ReceivedInPeriod)
		out.Trips = append(out.Trips, ts)
	}

	out.Profit = out.Revenue.Sub(out.Expense)
	out.MarginPct = utils.Percent(out.Profit, out.Revenue)

	sort.SliceStable(out.Receivables, func(i, j int) bool {
		a, b := out.Receivables[i].NextDue, out.Receivables[j].NextDue
		switch {
		case a == nil && b == nil:
			return out.Receivables[i].ClientName < out.Receivables[j].ClientName
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	sort.SliceStable(out.Payables, func(i, j int) bool { return out.Payables[i].SpentAt.Before(out.Payables[j].SpentAt) })
	return out
}

// FinanceService loads trips and feeds Rollup.
type FinanceService struct {
	Trips        repositories.TripRepository
	Passengers   repositories.PassengerRepository
	Installments repositories.InstallmentRepository
	Finance      repositories.FinanceRepository
	// Concurrency bounds the per-trip fan-out; 4 when zero.
	Concurrency int
	RequestID   string
}

// Summary resolves trips by data_jogo in [start, end] and rolls them up.
func (s FinanceService) Summary(ctx context.Context, start, end time.Time) (FinancialSummary, error) {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return FinancialSummary{}, domain.ValidationError{Field: "fim", Msg: "data final anterior à inicial"}
	}
	trips, err := s.Trips.ListByMatchDate(ctx, start, end)
	if err != nil {
		return FinancialSummary{}, fmt.Errorf("listar viagens: %w", err)
	}
	data, warnings, err := s.loadTrips(ctx, trips)
	if err != nil {
		return FinancialSummary{}, err
	}
	sum := Rollup(RollupInput{Start: start, End: end, Trips: data})
	sum.Warnings = warnings
	utils.LogEvent(s.RequestID, "finance", "summary",
		fmt.Sprintf("viagens=%d receita=%s despesa=%s pendencias=%d", len(trips), sum.Revenue.StringFixed(2), sum.Expense.StringFixed(2), sum.PendingCount))
	return sum, nil
}

// TripFinancials is the rollup of a single trip regardless of dates.
func (s FinanceService) TripFinancials(ctx context.Context, tripID int64) (TripSummary, error) {
	trip, err := s.Trips.GetByID(ctx, tripID)
	if err != nil {
		return TripSummary{}, err
	}
	data, _, err := s.loadTrips(ctx, []models.Trip{trip})
	if err != nil {
		return TripSummary{}, err
	}
	sum := Rollup(RollupInput{Trips: data})
	if len(sum.Trips) == 0 {
		return TripSummary{}, domain.NotFoundError{Resource: "viagem"}
	}
	return sum.Trips[0], nil
}

// PassengerFinancials loads one passenger with installments.
func (s FinanceService) PassengerFinancials(ctx context.Context, passengerID int64) (PassengerFinancials, error) {
	p, err := s.Passengers.GetByID(ctx, passengerID)
	if err != nil {
		return PassengerFinancials{}, err
	}
	p.Installments, err = s.Installments.ListByPassenger(ctx, passengerID)
	if err != nil {
		return PassengerFinancials{}, fmt.Errorf("listar parcelas: %w", err)
	}
	return ComputePassengerFinancials(p, time.Time{}, time.Time{}), nil
}

func (s FinanceService) loadTrips(ctx context.Context, trips []models.Trip) ([]TripData, []string, error) {
	data := make([]TripData, len(trips))
	ids := make([]int64, len(trips))
	for i, t := range trips {
		data[i].Trip = t
		ids[i] = t.ID
	}
	if len(trips) == 0 {
		return data, nil, nil
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range data {
		i := i
		g.Go(func() error {
			passengers, err := s.Passengers.ListByTrip(gctx, data[i].Trip.ID)
			if err != nil {
				return fmt.Errorf("passageiros da viagem %d: %w", data[i].Trip.ID, err)
			}
			pids := make([]int64, len(passengers))
			for j, p := range passengers {
				pids[j] = p.ID
			}
			inst, err := s.Installments.ListByPassengers(gctx, pids)
			if err != nil {
				return fmt.Errorf("parcelas da viagem %d: %w", data[i].Trip.ID, err)
			}
			for j := range passengers {
				passengers[j].Installments = inst[passengers[j].ID]
			}
			data[i].Passengers = passengers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	warnings := []string{}
	revenues, err := s.Finance.ListRevenues(ctx, ids)
	if err != nil {
		warnings = append(warnings, "receitas extras indisponíveis")
		s.logOptional("viagem_receitas", err)
		revenues = nil
	}
	expenses, err := s.Finance.ListExpenses(ctx, ids)
	if err != nil {
		warnings = append(warnings, "despesas indisponíveis")
		s.logOptional("viagem_despesas", err)
		expenses = nil
	}
	pos := map[int64]int{}
	for i, t := range trips {
		pos[t.ID] = i
	}
	for _, r := range revenues {
		if i, ok := pos[r.TripID]; ok {
			data[i].Revenues = append(data[i].Revenues, r)
		}
	}
	for _, e := range expenses {
		if i, ok := pos[e.TripID]; ok {
			data[i].Expenses = append(data[i].Expenses, e)
		}
	}
	return data, warnings, nil
}

func (s FinanceService) logOptional(table string, err error) {
	reason := "erro de leitura"
	if intdb.IsUndefinedTable(err) {
		reason = "tabela inexistente"
	}
	utils.LogWarn(s.RequestID, "finance", "optional_table_skipped",
		fmt.Sprintf("table=%s reason=%s err=%v (considerando zero)", table, reason, err))
}

// CreateRevenue stores a manual viagem_receitas row.
func (s FinanceService) CreateRevenue(ctx context.Context, rev models.TripRevenue) (models.TripRevenue, error) {
	if rev.Amount.IsNegative() {
		return rev, domain.ValidationError{Field: "valor", Msg: "valor não pode ser negativo"}
	}
	if rev.Status == "" {
		rev.Status = models.RevenueReceived
	}
	if rev.Status != models.RevenueReceived && rev.Status != models.RevenuePending {
		return rev, domain.ValidationError{Field: "status", Msg: "use recebido ou pendente"}
	}
	if rev.ReceivedAt.IsZero() {
		rev.ReceivedAt = time.Now()
	}
	if _, err := s.Trips.GetByID(ctx, rev.TripID); err != nil {
		return rev, err
	}
	id, err := s.Finance.CreateRevenue(ctx, rev)
	if err != nil {
		return rev, fmt.Errorf("salvar receita: %w", err)
	}
	rev.ID = id
	return rev, nil
}

func (s FinanceService) CreateExpense(ctx context.Context, exp models.TripExpense) (models.TripExpense, error) {
	if exp.Amount.IsNegative() {
		return exp, domain.ValidationError{Field: "valor", Msg: "valor não pode ser negativo"}
	}
	if exp.Status == "" {
		exp.Status = models.ExpensePending
	}
	if exp.Status != models.ExpensePaid && exp.Status != models.ExpensePending {
		return exp, domain.ValidationError{Field: "status", Msg: "use pago ou pendente"}
	}
	if exp.SpentAt.IsZero() {
		exp.SpentAt = time.Now()
	}
	if _, err := s.Trips.GetByID(ctx, exp.TripID); err != nil {
		return exp, err
	}
	id, err := s.Finance.CreateExpense(ctx, exp)
	if err != nil {
		return exp, fmt.Errorf("salvar despesa: %w", err)
	}
	exp.ID = id
	return exp, nil
}

func (s FinanceService) ListRevenues(ctx context.Context, tripID int64) ([]models.TripRevenue, error) {
	out, err := s.Finance.ListRevenues(ctx, []int64{tripID})
	if err != nil {
		s.logOptional("viagem_receitas", err)
		return []models.TripRevenue{}, nil
	}
	return out, nil
}

func (s FinanceService) ListExpenses(ctx context.Context, tripID int64) ([]models.TripExpense, error) {
	out, err := s.Finance.ListExpenses(ctx, []int64{tripID})
	if err != nil {
		s.logOptional("viagem_despesas", err)
		return []models.TripExpense{}, nil
	}
	return out, nil
}

func (s FinanceService) DeleteRevenue(ctx context.Context, id int64) error {
	return s.Finance.DeleteRevenue(ctx, id)
}

func (s FinanceService) DeleteExpense(ctx context.Context, id int64) error {
	return s.Finance.DeleteExpense(ctx, id)
}
