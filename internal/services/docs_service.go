package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

// DocsService renders ticket receipts and finance exports.
type DocsService struct {
	Tickets   TicketService
	RequestID string
	Loader    func(ctx context.Context, ticketID int64) (models.Ticket, []models.TicketPayment, error)
}

func (s DocsService) loadTicket(ctx context.Context, id int64) (models.Ticket, []models.TicketPayment, error) {
	if s.Loader != nil {
		return s.Loader(ctx, id)
	}
	t, err := s.Tickets.Get(ctx, id)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	payments, err := s.Tickets.Payments(ctx, id)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	return t, payments, nil
}

// TicketReceipt builds the PDF comprovante of one ingresso.
func (s DocsService) TicketReceipt(ctx context.Context, ticketID int64) ([]byte, string, error) {
	t, payments, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "ticket_receipt", fmt.Sprintf("ingresso_id=%d", ticketID))
	return buildTicketReceiptPDF(ComputeTicketFigures(t), payments)
}

func newPDF(title string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func outputPDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildTicketReceiptPDF(t models.Ticket, payments []models.TicketPayment) ([]byte, string, error) {
	pdf, tr := newPDF("Comprovante de Ingresso")
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("COMPROVANTE DE INGRESSO"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Ingresso       : #%d", t.ID),
		fmt.Sprintf("Cliente        : %s", safe(t.ClientName, "-")),
		fmt.Sprintf("Jogo           : Flamengo x %s", safe(t.Opponent, "-")),
		fmt.Sprintf("Data           : %s", utils.FormatDate(t.MatchDate)),
		fmt.Sprintf("Setor          : %s", safe(t.Sector, "-")),
		fmt.Sprintf("Valor          : %s", utils.FormatBRL(t.SalePrice)),
		fmt.Sprintf("Desconto       : %s", utils.FormatBRL(t.Discount)),
		fmt.Sprintf("Valor final    : %s", utils.FormatBRL(t.FinalValue)),
		fmt.Sprintf("Situação       : %s", safe(t.Status, "-")),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, tr(l))
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Pagamentos:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	paid := decimal.Zero
	if len(payments) == 0 {
		pdf.Cell(0, 6, "Nenhum pagamento registrado.")
		pdf.Ln(6)
	}
	for _, p := range payments {
		paid = paid.Add(p.Amount)
		pdf.Cell(0, 6, tr(fmt.Sprintf("%s  %s  %s", utils.FormatDate(p.PaidAt), utils.FormatBRL(p.Amount), safe(p.PaymentMethod, "-"))))
		pdf.Ln(6)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr("Total pago: "+utils.FormatBRL(paid)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, tr("Emitido em "+time.Now().Format("02/01/2006 15:04")+". Apresente este comprovante na retirada do ingresso."), "", "", false)

	out, err := outputPDF(pdf)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("INGRESSO_%d_%s.pdf", t.ID, safeFilenamePart(t.ClientName))
	return out, filename, nil
}

// FinanceSummaryPDF renders the period roll-up with one line per trip.
func (s DocsService) FinanceSummaryPDF(sum FinancialSummary) ([]byte, string, error) {
	pdf, tr := newPDF("Resumo Financeiro")
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "RESUMO FINANCEIRO")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Período: %s a %s", utils.FormatDate(sum.Start), utils.FormatDate(sum.End))))
	pdf.Ln(10)

	totals := [][2]string{
		{"Receita total", utils.FormatBRL(sum.Revenue)},
		{"Despesa total", utils.FormatBRL(sum.Expense)},
		{"Lucro", utils.FormatBRL(sum.Profit)},
		{"Margem", sum.MarginPct.StringFixed(2) + "%"},
		{"Recebido no período", utils.FormatBRL(sum.ReceivedInPeriod)},
		{"Pendências", fmt.Sprintf("%s (%d)", utils.FormatBRL(sum.PendingTotal), sum.PendingCount)},
	}
	for _, kv := range totals {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(60, 7, tr(kv[0]), "", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(kv[1]), "", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	header := []string{"Jogo", "Data", "Pax", "Receita", "Despesa", "Lucro"}
	widths := []float64{55, 25, 15, 32, 32, 32}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, t := range sum.Trips {
		row := []string{
			"x " + t.Opponent,
			utils.FormatDate(t.MatchDate),
			strconv.Itoa(t.PassengerCount),
			utils.FormatBRL(t.Revenue),
			utils.FormatBRL(t.Expense),
			utils.FormatBRL(t.Profit),
		}
		for i, v := range row {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(sum.Warnings) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		for _, w := range sum.Warnings {
			pdf.MultiCell(0, 5, tr("Aviso: "+w), "", "", false)
		}
	}

	out, err := outputPDF(pdf)
	if err != nil {
		return nil, "", err
	}
	return out, fmt.Sprintf("RESUMO_%s_%s.pdf", utils.FormatISODate(sum.Start), utils.FormatISODate(sum.End)), nil
}

// FinanceSummaryCSV exports the per-trip breakdown.
func (s DocsService) FinanceSummaryCSV(sum FinancialSummary) ([]byte, string, error) {
	n := len(sum.Trips)
	ids, opp, dates := make([]string, n), make([]string, n), make([]string, n)
	pax := make([]int, n)
	rev, exp, profit, margin, pending := make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
	for i, t := range sum.Trips {
		ids[i] = strconv.FormatInt(t.TripID, 10)
		opp[i] = t.Opponent
		dates[i] = utils.FormatISODate(t.MatchDate)
		pax[i] = t.PassengerCount
		rev[i] = t.Revenue.StringFixed(2)
		exp[i] = t.Expense.StringFixed(2)
		profit[i] = t.Profit.StringFixed(2)
		margin[i] = t.MarginPct.StringFixed(2)
		pending[i] = t.PendingTotal.StringFixed(2)
	}
	df := dataframe.New(
		series.New(ids, series.String, "viagem_id"),
		series.New(opp, series.String, "adversario"),
		series.New(dates, series.String, "data_jogo"),
		series.New(pax, series.Int, "passageiros"),
		series.New(rev, series.String, "receita_total"),
		series.New(exp, series.String, "despesa_total"),
		series.New(profit, series.String, "lucro"),
		series.New(margin, series.String, "margem_percentual"),
		series.New(pending, series.String, "total_pendencias"),
	)
	out, err := writeCSV(df)
	if err != nil {
		return nil, "", err
	}
	return out, fmt.Sprintf("resumo_%s_%s.csv", utils.FormatISODate(sum.Start), utils.FormatISODate(sum.End)), nil
}

// WalletMonthlyCSV exports the monthly wallet report.
func (s DocsService) WalletMonthlyCSV(rows []models.MonthlyWalletRow) ([]byte, string, error) {
	n := len(rows)
	ids, names, months := make([]string, n), make([]string, n), make([]string, n)
	dep, uses, net := make([]string, n), make([]string, n), make([]string, n)
	count := make([]int, n)
	for i, r := range rows {
		ids[i] = strconv.FormatInt(r.ClientID, 10)
		names[i] = r.ClientName
		months[i] = r.Month
		dep[i] = r.Deposits.StringFixed(2)
		uses[i] = r.Uses.StringFixed(2)
		net[i] = r.Net.StringFixed(2)
		count[i] = r.TxCount
	}
	df := dataframe.New(
		series.New(ids, series.String, "cliente_id"),
		series.New(names, series.String, "cliente_nome"),
		series.New(months, series.String, "mes"),
		series.New(dep, series.String, "depositos"),
		series.New(uses, series.String, "usos"),
		series.New(net, series.String, "saldo_mes"),
		series.New(count, series.Int, "quantidade"),
	)
	out, err := writeCSV(df)
	if err != nil {
		return nil, "", err
	}
	return out, "carteira_mensal.csv", nil
}

func writeCSV(df dataframe.DataFrame) ([]byte, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("montar csv: %w", df.Err)
	}
	var buf bytes.Buffer
	if err := df.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
