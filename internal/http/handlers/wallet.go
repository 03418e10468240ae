package handlers

import (
	"context"
	"net/http"

	"caravanas/internal/domain/models"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/clientes/:id/carteira
func GetWallet(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	svc := walletService(c)
	w, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	history, page, err := svc.History(c.Request.Context(), id, pagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"carteira": w, "transacoes": history, "pagination": page})
}

type walletMove func(services.WalletService, context.Context, int64, models.WalletMovementInput) (models.WalletTransaction, error)

func walletMovement(move walletMove) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in models.WalletMovementInput
		if !BindJSONOrError(c, &in) {
			return
		}
		t, err := move(walletService(c), c.Request.Context(), id, in)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// POST /api/clientes/:id/carteira/{depositos,usos,ajustes}
var (
	WalletDeposit = walletMovement(services.WalletService.Deposit)
	WalletUse     = walletMovement(services.WalletService.Use)
	WalletAdjust  = walletMovement(services.WalletService.Adjust)
)

// POST /api/carteira/transacoes/:id/cancelar
func CancelWalletTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	w, err := walletService(c).CancelTransaction(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func monthlyFromQuery(c *gin.Context) ([]models.MonthlyWalletRow, bool) {
	start, ok := queryDate(c, "inicio")
	if !ok {
		return nil, false
	}
	end, ok := queryDate(c, "fim")
	if !ok {
		return nil, false
	}
	rows, err := walletService(c).MonthlyReport(c.Request.Context(), start, end, queryInt64(c, "cliente_id"))
	if err != nil {
		RespondDomainError(c, err)
		return nil, false
	}
	return rows, true
}

// GET /api/carteira/relatorio-mensal
func WalletMonthlyReport(c *gin.Context) {
	rows, ok := monthlyFromQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GET /api/carteira/relatorio-mensal.csv
func WalletMonthlyReportCSV(c *gin.Context) {
	rows, ok := monthlyFromQuery(c)
	if !ok {
		return
	}
	data, name, err := docsService(c).WalletMonthlyCSV(rows)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "falha ao gerar CSV", err)
		return
	}
	sendFile(c, "text/csv; charset=utf-8", name, data)
}

// GET /api/clientes/:id/carteira/conciliacao
func ReconcileWallet(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := walletService(c).Reconcile(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
