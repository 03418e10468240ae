package handlers

import (
	"net/http"

	"caravanas/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GET /api/creditos?cliente_id=&status=
func ListCredits(c *gin.Context) {
	list, err := creditService(c).List(c.Request.Context(), queryInt64(c, "cliente_id"), c.Query("status"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func CreateCredit(c *gin.Context) {
	var in models.CreditInput
	if !BindJSONOrError(c, &in) {
		return
	}
	cr, err := creditService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cr)
}

type linkCreditRequest struct {
	TripID int64           `json:"viagem_id" binding:"required,gt=0"`
	Amount decimal.Decimal `json:"valor"`
}

// POST /api/creditos/:id/vincular
func LinkCredit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req linkCreditRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	cr, err := creditService(c).LinkToTrip(c.Request.Context(), id, req.TripID, req.Amount)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cr)
}

// POST /api/creditos/:id/reembolsar
func RefundCredit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cr, err := creditService(c).Refund(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cr)
}
