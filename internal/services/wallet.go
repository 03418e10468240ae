package services

import (
	"context"
	"fmt"
	"sort"
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

// WalletService moves money in and out of cliente_carteira. Every movement
// snapshots the balance before and after under a row lock.
type WalletService struct {
	Wallets   repositories.WalletRepository
	Clients   repositories.ClientRepository
	DB        *sqlx.DB
	Events    *events.Recorder
	RequestID string
}

func (s WalletService) Get(ctx context.Context, clientID int64) (models.Wallet, error) {
	w, err := s.Wallets.Get(ctx, clientID, false)
	if domain.IsNotFound(err) {
		if _, cerr := s.Clients.GetByID(ctx, clientID); cerr != nil {
			return models.Wallet{}, cerr
		}
		return models.Wallet{ClientID: clientID, Balance: decimal.Zero, TotalDeposited: decimal.Zero, TotalUsed: decimal.Zero}, nil
	}
	return w, err
}

func (s WalletService) Deposit(ctx context.Context, clientID int64, in models.WalletMovementInput) (models.WalletTransaction, error) {
	if !in.Amount.IsPositive() {
		return models.WalletTransaction{}, domain.ValidationError{Field: "valor", Msg: "o depósito deve ser maior que zero"}
	}
	return s.move(ctx, clientID, models.WalletTxDeposit, in)
}

// Use draws from the balance; InsufficientBalanceError when saldo < valor.
func (s WalletService) Use(ctx context.Context, clientID int64, in models.WalletMovementInput) (models.WalletTransaction, error) {
	if !in.Amount.IsPositive() {
		return models.WalletTransaction{}, domain.ValidationError{Field: "valor", Msg: "o uso deve ser maior que zero"}
	}
	return s.move(ctx, clientID, models.WalletTxUse, in)
}

// Adjust applies a signed correction. The resulting balance may not go negative.
func (s WalletService) Adjust(ctx context.Context, clientID int64, in models.WalletMovementInput) (models.WalletTransaction, error) {
	if in.Amount.IsZero() {
		return models.WalletTransaction{}, domain.ValidationError{Field: "valor", Msg: "o ajuste não pode ser zero"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return models.WalletTransaction{}, domain.ValidationError{Field: "descricao", Msg: "informe o motivo do ajuste"}
	}
	return s.move(ctx, clientID, models.WalletTxAdjustment, in)
}

func (s WalletService) move(ctx context.Context, clientID int64, kind string, in models.WalletMovementInput) (models.WalletTransaction, error) {
	var out models.WalletTransaction
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		out, err = s.applyMovement(ctx, tx, clientID, kind, in)
		return err
	})
	if err != nil {
		return models.WalletTransaction{}, err
	}
	utils.LogEvent(s.RequestID, "wallet", kind,
		fmt.Sprintf("cliente_id=%d valor=%s saldo=%s", clientID, in.Amount.StringFixed(2), out.BalanceAfter.StringFixed(2)))
	return out, nil
}

// applyMovement runs inside the caller's transaction so enrollment can reuse it.
func (s WalletService) applyMovement(ctx context.Context, tx *sqlx.Tx, clientID int64, kind string, in models.WalletMovementInput) (models.WalletTransaction, error) {
	wallets := s.Wallets.WithTx(tx)
	w, err := wallets.Get(ctx, clientID, true)
	if domain.IsNotFound(err) {
		if kind != models.WalletTxDeposit && !(kind == models.WalletTxAdjustment && in.Amount.IsPositive()) {
			return models.WalletTransaction{}, domain.InsufficientBalanceError{Available: decimal.Zero, Requested: in.Amount.Abs()}
		}
		if _, err := s.Clients.WithTx(tx).GetByID(ctx, clientID); err != nil {
			return models.WalletTransaction{}, err
		}
		if err := wallets.Create(ctx, clientID); err != nil {
			return models.WalletTransaction{}, fmt.Errorf("criar carteira: %w", err)
		}
		w, err = wallets.Get(ctx, clientID, true)
	}
	if err != nil {
		return models.WalletTransaction{}, err
	}

	before := w.Balance
	switch kind {
	case models.WalletTxDeposit:
		w.Balance = w.Balance.Add(in.Amount)
		w.TotalDeposited = w.TotalDeposited.Add(in.Amount)
	case models.WalletTxUse:
		if w.Balance.LessThan(in.Amount) {
			return models.WalletTransaction{}, domain.InsufficientBalanceError{Available: w.Balance, Requested: in.Amount}
		}
		w.Balance = w.Balance.Sub(in.Amount)
		w.TotalUsed = w.TotalUsed.Add(in.Amount)
	case models.WalletTxAdjustment:
		next := w.Balance.Add(in.Amount)
		if next.IsNegative() {
			return models.WalletTransaction{}, domain.InsufficientBalanceError{Available: w.Balance, Requested: in.Amount.Abs()}
		}
		w.Balance = next
	}

	t := models.WalletTransaction{
		ClientID:      clientID,
		Type:          kind,
		Amount:        in.Amount,
		BalanceBefore: before,
		BalanceAfter:  w.Balance,
		Description:   strings.TrimSpace(in.Description),
		PaymentMethod: in.PaymentMethod,
		TripID:        in.TripID,
		CreatedAt:     time.Now(),
	}
	id, err := wallets.InsertTransaction(ctx, t)
	if err != nil {
		return models.WalletTransaction{}, fmt.Errorf("registrar transação: %w", err)
	}
	t.ID = id
	if err := wallets.SaveBalance(ctx, w); err != nil {
		return models.WalletTransaction{}, fmt.Errorf("atualizar saldo: %w", err)
	}
	if err := s.Events.Record(ctx, tx, events.TypeWalletMovement, t); err != nil {
		return models.WalletTransaction{}, err
	}
	return t, nil
}

// CancelTransaction flags a transaction as cancelled and reverses its effect
// on the stored balance and totals.
func (s WalletService) CancelTransaction(ctx context.Context, txID int64) (models.Wallet, error) {
	var w models.Wallet
	err := inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		wallets := s.Wallets.WithTx(tx)
		t, err := wallets.GetTransaction(ctx, txID, true)
		if err != nil {
			return err
		}
		if t.Cancelled {
			return domain.ConflictError{Resource: "transação", Msg: "transação já cancelada"}
		}
		w, err = wallets.Get(ctx, t.ClientID, true)
		if err != nil {
			return err
		}
		switch t.Type {
		case models.WalletTxDeposit:
			if w.Balance.LessThan(t.Amount) {
				return domain.InsufficientBalanceError{Available: w.Balance, Requested: t.Amount}
			}
			w.Balance = w.Balance.Sub(t.Amount)
			w.TotalDeposited = w.TotalDeposited.Sub(t.Amount)
		case models.WalletTxUse:
			w.Balance = w.Balance.Add(t.Amount)
			w.TotalUsed = w.TotalUsed.Sub(t.Amount)
		case models.WalletTxAdjustment:
			next := w.Balance.Sub(t.Amount)
			if next.IsNegative() {
				return domain.InsufficientBalanceError{Available: w.Balance, Requested: t.Amount}
			}
			w.Balance = next
		}
		if err := wallets.MarkCancelled(ctx, txID); err != nil {
			return err
		}
		if err := wallets.SaveBalance(ctx, w); err != nil {
			return err
		}
		return s.Events.Record(ctx, tx, events.TypeWalletCancelled, map[string]any{"transacao_id": txID, "cliente_id": t.ClientID})
	})
	if err != nil {
		return models.Wallet{}, err
	}
	utils.LogEvent(s.RequestID, "wallet", "cancel", fmt.Sprintf("transacao_id=%d saldo=%s", txID, w.Balance.StringFixed(2)))
	return w, nil
}

func (s WalletService) History(ctx context.Context, clientID int64, page domain.Pagination) ([]models.WalletTransaction, domain.Pagination, error) {
	list, total, err := s.Wallets.ListTransactions(ctx, clientID, page)
	page = page.Normalize()
	page.Total = total
	return list, page, err
}

// AggregateMonthly sums deposits and uses per (client, month). Adjustments
// count toward the month's net only. Cancelled rows are skipped.
func AggregateMonthly(txs []repositories.WalletTxWithClient) []models.MonthlyWalletRow {
	type key struct {
		client int64
		month  string
	}
	index := map[key]int{}
	out := []models.MonthlyWalletRow{}
	for _, t := range txs {
		if t.Cancelled {
			continue
		}
		k := key{t.ClientID, utils.MonthKey(t.CreatedAt)}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, models.MonthlyWalletRow{
				ClientID: t.ClientID, ClientName: t.ClientName, Month: k.month,
				Deposits: decimal.Zero, Uses: decimal.Zero, Net: decimal.Zero,
			})
		}
		row := &out[i]
		row.TxCount++
		switch t.Type {
		case models.WalletTxDeposit:
			row.Deposits = row.Deposits.Add(t.Amount)
			row.Net = row.Net.Add(t.Amount)
		case models.WalletTxUse:
			row.Uses = row.Uses.Add(t.Amount)
			row.Net = row.Net.Sub(t.Amount)
		case models.WalletTxAdjustment:
			row.Net = row.Net.Add(t.Amount)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].ClientName < out[j].ClientName
	})
	return out
}

func (s WalletService) MonthlyReport(ctx context.Context, start, end time.Time, clientID int64) ([]models.MonthlyWalletRow, error) {
	txs, err := s.Wallets.ListTransactionsInRange(ctx, start, end, clientID)
	if err != nil {
		return nil, fmt.Errorf("listar transações: %w", err)
	}
	return AggregateMonthly(txs), nil
}

// Reconcile compares saldo_atual with deposits - uses + adjustments.
func (s WalletService) Reconcile(ctx context.Context, clientID int64) (models.WalletReconciliation, error) {
	w, err := s.Get(ctx, clientID)
	if err != nil {
		return models.WalletReconciliation{}, err
	}
	dep, uses, adj, err := s.Wallets.JournalTotals(ctx, clientID)
	if err != nil {
		return models.WalletReconciliation{}, fmt.Errorf("somar transações: %w", err)
	}
	journal := dep.Sub(uses).Add(adj)
	drift := w.Balance.Sub(journal)
	out := models.WalletReconciliation{
		ClientID:      clientID,
		StoredBalance: w.Balance,
		JournalTotal:  journal,
		Drift:         drift,
		Consistent:    drift.Abs().LessThanOrEqual(utils.Tolerance),
	}
	if !out.Consistent {
		utils.LogEvent(s.RequestID, "wallet", "reconcile_drift",
			fmt.Sprintf("cliente_id=%d armazenado=%s calculado=%s", clientID, w.Balance.StringFixed(2), journal.StringFixed(2)))
	}
	return out, nil
}
