package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
)

func TestDocsServiceTicketReceipt(t *testing.T) {
	loader := func(_ context.Context, id int64) (models.Ticket, []models.TicketPayment, error) {
		return models.Ticket{
				ID:         id,
				ClientName: "João da Silva",
				Opponent:   "Vasco",
				MatchDate:  time.Date(2024, 5, 12, 16, 0, 0, 0, time.Local),
				Sector:     "Norte",
				CostPrice:  d("80"),
				SalePrice:  d("150"),
				Discount:   d("10"),
				Status:     models.PaymentStatusPartial,
			}, []models.TicketPayment{
				{Amount: d("70"), PaidAt: time.Now(), PaymentMethod: "pix"},
			}, nil
	}
	svc := DocsService{Loader: loader}

	pdf, filename, err := svc.TicketReceipt(context.Background(), 42)
	if err != nil {
		t.Fatalf("TicketReceipt returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("TicketReceipt did not return a PDF")
	}
	if filename != "INGRESSO_42_João_da_Silva.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestDocsServiceTicketReceiptPropagatesLoaderError(t *testing.T) {
	svc := DocsService{Loader: func(context.Context, int64) (models.Ticket, []models.TicketPayment, error) {
		return models.Ticket{}, nil, domain.NotFoundError{Resource: "ingresso"}
	}}
	_, _, err := svc.TicketReceipt(context.Background(), 1)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func summaryFixture() FinancialSummary {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	end := time.Date(2024, 5, 31, 12, 0, 0, 0, time.Local)
	return FinancialSummary{
		Start: start, End: end,
		Revenue: d("630"), Expense: d("200"), Profit: d("430"), MarginPct: d("68.25"),
		PendingTotal: d("180"), PendingCount: 1, ReceivedInPeriod: d("300"),
		Trips: []TripSummary{{
			TripID: 7, Opponent: "Vasco", MatchDate: time.Date(2024, 5, 12, 12, 0, 0, 0, time.Local),
			PassengerCount: 2, Revenue: d("630"), Expense: d("200"), Profit: d("430"),
			MarginPct: d("68.25"), PendingTotal: d("180"),
		}},
		Warnings: []string{"conflito de grupo não verificado"},
	}
}

func TestDocsServiceFinanceSummaryPDF(t *testing.T) {
	pdf, filename, err := DocsService{}.FinanceSummaryPDF(summaryFixture())
	if err != nil {
		t.Fatalf("FinanceSummaryPDF returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("FinanceSummaryPDF returned empty data")
	}
	if filename != "RESUMO_2024-05-01_2024-05-31.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestDocsServiceFinanceSummaryCSV(t *testing.T) {
	out, filename, err := DocsService{}.FinanceSummaryCSV(summaryFixture())
	if err != nil {
		t.Fatalf("FinanceSummaryCSV returned error: %v", err)
	}
	if !strings.HasPrefix(filename, "resumo_") {
		t.Fatalf("unexpected filename %q", filename)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("csv parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(records))
	}
	if records[0][0] != "viagem_id" || records[1][1] != "Vasco" || records[1][4] != "630.00" {
		t.Fatalf("unexpected csv content: %v", records)
	}
}

func TestDocsServiceWalletMonthlyCSV(t *testing.T) {
	rows := []models.MonthlyWalletRow{
		{ClientID: 1, ClientName: "Ana", Month: "2024-01", Deposits: d("300"), Uses: d("120"), Net: d("180"), TxCount: 2},
	}
	out, filename, err := DocsService{}.WalletMonthlyCSV(rows)
	if err != nil {
		t.Fatalf("WalletMonthlyCSV returned error: %v", err)
	}
	if filename != "carteira_mensal.csv" {
		t.Fatalf("unexpected filename %q", filename)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("csv parse: %v", err)
	}
	if got := records[1]; got[2] != "2024-01" || got[5] != "180.00" || got[6] != "2" {
		t.Fatalf("unexpected row %v", got)
	}
}

func TestSafeFilenamePart(t *testing.T) {
	if got := safeFilenamePart("  "); got != "NA" {
		t.Fatalf("blank name: got %q", got)
	}
	if got := safeFilenamePart("a/b:c"); got != "a_b_c" {
		t.Fatalf("got %q", got)
	}
}
