package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"
	"caravanas/internal/utils"

	"github.com/jmoiron/sqlx"
)

// WhatsAppService owns the provider configuration and the outbound flows.
type WhatsAppService struct {
	Config       repositories.WhatsAppRepository
	Installments InstallmentService
	DB           *sqlx.DB
	Delay        time.Duration
	HTTPTimeout  time.Duration
	RequestID    string

	// GatewayFor overrides provider selection.
	GatewayFor func(models.WhatsAppConfig) (Gateway, error)
}

func (s WhatsAppService) GetConfig(ctx context.Context) (models.WhatsAppConfig, error) {
	cfg, err := s.Config.GetActive(ctx)
	if err != nil {
		return models.WhatsAppConfig{}, err
	}
	return maskSecrets(cfg), nil
}

func maskSecrets(cfg models.WhatsAppConfig) models.WhatsAppConfig {
	cfg.Token = mask(cfg.Token)
	cfg.APIKey = mask(cfg.APIKey)
	cfg.ClientToken = mask(cfg.ClientToken)
	return cfg
}

// keepSecret returns stored when the client sent nothing or echoed the
// masked value back from GetConfig.
func keepSecret(in, stored string) string {
	in = strings.TrimSpace(in)
	if in == "" || in == mask(stored) {
		return stored
	}
	return in
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

func (s WhatsAppService) SaveConfig(ctx context.Context, cfg models.WhatsAppConfig) (models.WhatsAppConfig, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	current, err := s.Config.GetActive(ctx)
	if err != nil && !domain.IsNotFound(err) {
		return models.WhatsAppConfig{}, fmt.Errorf("carregar configuração: %w", err)
	}
	cfg.Token = keepSecret(cfg.Token, current.Token)
	cfg.APIKey = keepSecret(cfg.APIKey, current.APIKey)
	cfg.ClientToken = keepSecret(cfg.ClientToken, current.ClientToken)
	switch cfg.Provider {
	case models.WhatsAppProviderZAPI:
		if cfg.Token == "" {
			return models.WhatsAppConfig{}, domain.ValidationError{Field: "token", Msg: "token obrigatório para Z-API"}
		}
	case models.WhatsAppProviderEvolution:
		if cfg.APIKey == "" {
			return models.WhatsAppConfig{}, domain.ValidationError{Field: "api_key", Msg: "api_key obrigatória para Evolution"}
		}
	default:
		return models.WhatsAppConfig{}, domain.ValidationError{Field: "provedor", Msg: "use zapi ou evolution"}
	}
	err = inTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		id, err := s.Config.Save(ctx, tx, cfg)
		cfg.ID = id
		return err
	})
	if err != nil {
		return models.WhatsAppConfig{}, fmt.Errorf("salvar configuração: %w", err)
	}
	cfg.Active = true
	utils.LogEvent(s.RequestID, "whatsapp", "config_saved", fmt.Sprintf("provedor=%s", cfg.Provider))
	return maskSecrets(cfg), nil
}

func (s WhatsAppService) broadcaster(ctx context.Context) (Broadcaster, error) {
	cfg, err := s.Config.GetActive(ctx)
	if err != nil {
		return Broadcaster{}, err
	}
	build := s.GatewayFor
	if build == nil {
		build = func(c models.WhatsAppConfig) (Gateway, error) { return NewGateway(c, s.HTTPTimeout) }
	}
	gw, err := build(cfg)
	if err != nil {
		return Broadcaster{}, err
	}
	return Broadcaster{Gateway: gw, Delay: s.Delay, RequestID: s.RequestID}, nil
}

// ReminderRecipients turns due installments into template recipients.
func ReminderRecipients(due []repositories.DueInstallment) []Recipient {
	out := make([]Recipient, 0, len(due))
	for _, d := range due {
		out = append(out, Recipient{
			Name:  d.ClientName,
			Phone: d.ClientPhone,
			Vars: map[string]string{
				"adversario": d.Opponent,
				"data_jogo":  utils.FormatDate(d.MatchDate),
				"parcela":    fmt.Sprintf("%d/%d", d.Number, d.Total),
				"valor":      utils.FormatBRL(d.Amount),
				"vencimento": utils.FormatDate(d.DueDate),
			},
		})
	}
	return out
}

// SendReminders messages every client with an installment due up to
// asOf + daysAhead.
func (s WhatsAppService) SendReminders(ctx context.Context, asOf time.Time, daysAhead int) ([]SendResult, error) {
	due, err := s.Installments.Overdue(ctx, asOf, daysAhead)
	if err != nil {
		return nil, fmt.Errorf("listar parcelas a vencer: %w", err)
	}
	if len(due) == 0 {
		return []SendResult{}, nil
	}
	b, err := s.broadcaster(ctx)
	if err != nil {
		return nil, err
	}
	results := b.Broadcast(ctx, ReminderRecipients(due), func(r Recipient) string {
		return RenderTemplate(ReminderTemplate, r)
	})
	logResults(s.RequestID, "reminders", results)
	return results, nil
}

// SendMessage broadcasts an ad hoc template to the given recipients.
func (s WhatsAppService) SendMessage(ctx context.Context, recipients []Recipient, template string) ([]SendResult, error) {
	if strings.TrimSpace(template) == "" {
		return nil, domain.ValidationError{Field: "mensagem", Msg: "mensagem vazia"}
	}
	if len(recipients) == 0 {
		return nil, domain.ValidationError{Field: "destinatarios", Msg: "informe ao menos um destinatário"}
	}
	b, err := s.broadcaster(ctx)
	if err != nil {
		return nil, err
	}
	results := b.Broadcast(ctx, recipients, func(r Recipient) string {
		return RenderTemplate(template, r)
	})
	logResults(s.RequestID, "broadcast", results)
	return results, nil
}

// SendTicketQR sends the ticket QR image with the standard caption.
func (s WhatsAppService) SendTicketQR(ctx context.Context, t models.Ticket, phone, imageURL string) (SendResult, error) {
	if strings.TrimSpace(imageURL) == "" {
		return SendResult{}, domain.ValidationError{Field: "imagem_url", Msg: "imagem obrigatória"}
	}
	b, err := s.broadcaster(ctx)
	if err != nil {
		return SendResult{}, err
	}
	r := Recipient{
		Name:     t.ClientName,
		Phone:    phone,
		ImageURL: imageURL,
		Vars:     map[string]string{"adversario": t.Opponent, "setor": t.Sector},
	}
	res := b.Broadcast(ctx, []Recipient{r}, func(r Recipient) string { return RenderTemplate(TicketQRTemplate, r) })
	return res[0], nil
}

func logResults(reqID, action string, results []SendResult) {
	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	utils.LogEvent(reqID, "whatsapp", action, fmt.Sprintf("enviados=%d falhas=%d", ok, len(results)-ok))
}
