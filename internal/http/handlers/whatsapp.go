package handlers

import (
	"net/http"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
)

func GetWhatsAppConfig(c *gin.Context) {
	cfg, err := whatsAppService(c).GetConfig(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func SaveWhatsAppConfig(c *gin.Context) {
	var cfg models.WhatsAppConfig
	if !BindJSONOrError(c, &cfg) {
		return
	}
	saved, err := whatsAppService(c).SaveConfig(c.Request.Context(), cfg)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

type remindersRequest struct {
	DaysAhead *int `json:"dias_antecedencia"`
}

// POST /api/whatsapp/lembretes
func SendReminders(c *gin.Context) {
	var req remindersRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	days := current().ReminderDaysAhead
	if req.DaysAhead != nil {
		days = *req.DaysAhead
	}
	results, err := whatsAppService(c).SendReminders(c.Request.Context(), time.Now(), days)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sendSummary(results))
}

type recipientRequest struct {
	Name     string            `json:"nome"`
	Phone    string            `json:"telefone" binding:"required"`
	ImageURL string            `json:"imagem_url"`
	Vars     map[string]string `json:"variaveis"`
}

type sendRequest struct {
	Template   string             `json:"mensagem" binding:"required"`
	Recipients []recipientRequest `json:"destinatarios" binding:"required,min=1,dive"`
}

// POST /api/whatsapp/enviar
func SendWhatsAppMessage(c *gin.Context) {
	var req sendRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	recipients := make([]services.Recipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, services.Recipient{Name: r.Name, Phone: r.Phone, ImageURL: r.ImageURL, Vars: r.Vars})
	}
	results, err := whatsAppService(c).SendMessage(c.Request.Context(), recipients, req.Template)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sendSummary(results))
}

func sendSummary(results []services.SendResult) gin.H {
	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	return gin.H{"enviados": ok, "falhas": len(results) - ok, "resultados": results}
}
