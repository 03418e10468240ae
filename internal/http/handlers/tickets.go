package handlers

import (
	"net/http"
	"strings"

	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"

	"github.com/gin-gonic/gin"
)

// GET /api/ingressos?cliente_id=&viagem_id=&status=&inicio=&fim=
func ListTickets(c *gin.Context) {
	start, ok := queryDate(c, "inicio")
	if !ok {
		return
	}
	end, ok := queryDate(c, "fim")
	if !ok {
		return
	}
	f := repositories.TicketFilter{
		ClientID: queryInt64(c, "cliente_id"),
		TripID:   queryInt64(c, "viagem_id"),
		Status:   c.Query("status"),
		Start:    start,
		End:      end,
	}
	list, err := ticketService(c).List(c.Request.Context(), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func GetTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := ticketService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func CreateTicket(c *gin.Context) {
	var in models.TicketInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := ticketService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func DeleteTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := ticketService(c).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ListTicketPayments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := ticketService(c).Payments(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// POST /api/ingressos/:id/pagamentos
func CreateTicketPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var p models.TicketPayment
	if !BindJSONOrError(c, &p) {
		return
	}
	t, err := ticketService(c).RegisterPayment(c.Request.Context(), id, p)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GET /api/ingressos/:id/comprovante.pdf
func TicketReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, name, err := docsService(c).TicketReceipt(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendFile(c, "application/pdf", name, data)
}

type ticketQRRequest struct {
	Phone    string `json:"telefone"`
	ImageURL string `json:"imagem_url" binding:"required"`
}

// POST /api/ingressos/:id/whatsapp-qr
// telefone defaults to the ticket holder's registered phone.
func SendTicketQR(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ticketQRRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ctx := c.Request.Context()
	ticket, err := ticketService(c).Get(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		client, err := catalogService(c).GetClient(ctx, ticket.ClientID)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		phone = client.Phone
	}
	res, err := whatsAppService(c).SendTicketQR(ctx, ticket, phone, req.ImageURL)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	status := http.StatusOK
	if !res.OK {
		status = http.StatusBadGateway
	}
	c.JSON(status, res)
}
