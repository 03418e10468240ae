package handlers

import (
	"net/http"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
)

func summaryFromQuery(c *gin.Context) (services.FinancialSummary, bool) {
	start, ok := queryDate(c, "inicio")
	if !ok {
		return services.FinancialSummary{}, false
	}
	end, ok := queryDate(c, "fim")
	if !ok {
		return services.FinancialSummary{}, false
	}
	if start.IsZero() && end.IsZero() {
		now := time.Now()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, -1)
	}
	sum, err := financeService(c).Summary(c.Request.Context(), start, end)
	if err != nil {
		RespondDomainError(c, err)
		return services.FinancialSummary{}, false
	}
	return sum, true
}

// GET /api/financeiro/resumo?inicio=&fim=
func FinanceSummary(c *gin.Context) {
	sum, ok := summaryFromQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GET /api/financeiro/resumo.pdf
func FinanceSummaryPDF(c *gin.Context) {
	sum, ok := summaryFromQuery(c)
	if !ok {
		return
	}
	data, name, err := docsService(c).FinanceSummaryPDF(sum)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "falha ao gerar PDF", err)
		return
	}
	sendFile(c, "application/pdf", name, data)
}

// GET /api/financeiro/resumo.csv
func FinanceSummaryCSV(c *gin.Context) {
	sum, ok := summaryFromQuery(c)
	if !ok {
		return
	}
	data, name, err := docsService(c).FinanceSummaryCSV(sum)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "falha ao gerar CSV", err)
		return
	}
	sendFile(c, "text/csv; charset=utf-8", name, data)
}

// GET /api/financeiro/viagens/:id
func TripFinancials(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sum, err := financeService(c).TripFinancials(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func ListRevenues(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := financeService(c).ListRevenues(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func CreateRevenue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.TripRevenue
	if !BindJSONOrError(c, &in) {
		return
	}
	in.TripID = id
	rev, err := financeService(c).CreateRevenue(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rev)
}

func DeleteRevenue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := financeService(c).DeleteRevenue(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ListExpenses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := financeService(c).ListExpenses(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func CreateExpense(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.TripExpense
	if !BindJSONOrError(c, &in) {
		return
	}
	in.TripID = id
	exp, err := financeService(c).CreateExpense(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exp)
}

func DeleteExpense(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := financeService(c).DeleteExpense(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/viagens/:id/setores-precos
func GetSectorPrices(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	totals, err := sectorPriceService(c).SectorSummary(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

type sectorPricesRequest struct {
	Sectors []models.SectorPriceInput `json:"setores" binding:"dive"`
}

// PUT /api/viagens/:id/setores-precos
func SaveSectorPrices(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req sectorPricesRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	totals, err := sectorPriceService(c).SaveSectorPrices(c.Request.Context(), id, req.Sectors)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func DeleteSectorPrices(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := sectorPriceService(c).DeleteSectorPrices(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
