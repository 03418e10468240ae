package handlers

import (
	"net/http"
	"strings"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/viagens/:id/passageiros
func ListPassengers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := catalogService(c).ListPassengers(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "grupos": services.DeriveGroups(list)})
}

// GET /api/viagens/:id/grupos
func ListGroups(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	groups, err := catalogService(c).Groups(c.Request.Context(), id, c.Query("busca"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

// GET /api/viagens/:id/onibus/:busId/grupos
func ListBusGroups(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	busID, ok := pathID(c, "busId")
	if !ok {
		return
	}
	groups, err := catalogService(c).BusGroups(c.Request.Context(), id, busID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

// POST /api/viagens/:id/passageiros
func EnrollPassenger(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.EnrollRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.TripID = id
	res, err := enrollmentService(c).Enroll(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func UpdatePassenger(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.PassengerUpdate
	if !BindJSONOrError(c, &in) {
		return
	}
	p, err := catalogService(c).UpdatePassenger(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func DeletePassenger(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := catalogService(c).DeletePassenger(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type conflictCheckRequest struct {
	GroupName          string `json:"grupo_nome" binding:"required"`
	GroupColor         string `json:"grupo_cor"`
	BusID              int64  `json:"onibus_id" binding:"required,gt=0"`
	ExcludePassengerID int64  `json:"excluir_passageiro_id"`
}

// POST /api/viagens/:id/grupos/conflitos
func CheckGroupConflicts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req conflictCheckRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := seatingService(c).CheckGroupConflicts(c.Request.Context(), id,
		strings.TrimSpace(req.GroupName), strings.TrimSpace(req.GroupColor), req.BusID, req.ExcludePassengerID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/passageiros/:id/onibus
//
// Without estrategia and with a conflict the response is 200 with
// estado=awaiting_choice and nothing is written.
func AssignBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AssignRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.PassengerID = id
	res, err := seatingService(c).AssignBus(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/passageiros/:id/parcelas
func ListInstallments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	svc := installmentService(c)
	list, err := svc.List(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	history, err := svc.History(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "historico": history})
}

type payInstallmentRequest struct {
	PaidAt        time.Time `json:"data_pagamento"`
	PaymentMethod string    `json:"forma_pagamento"`
}

// POST /api/parcelas/:id/pagar
func PayInstallment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req payInstallmentRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	fin, err := installmentService(c).RegisterPayment(c.Request.Context(), id, req.PaidAt, req.PaymentMethod)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, fin)
}

// POST /api/passageiros/:id/pagamentos
func PayPassengerAmount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.PayAmountInput
	if !BindJSONOrError(c, &in) {
		return
	}
	fin, err := installmentService(c).PayAmount(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, fin)
}

// POST /api/passageiros/:id/quitar
func SettlePassenger(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req payInstallmentRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	fin, err := installmentService(c).AutoSettle(c.Request.Context(), id, req.PaymentMethod)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, fin)
}

// GET /api/passageiros/:id/financeiro
func PassengerFinancials(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fin, err := financeService(c).PassengerFinancials(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, fin)
}
