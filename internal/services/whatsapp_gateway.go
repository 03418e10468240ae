package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/utils"
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks caravanas/internal/services Gateway

// Gateway sends WhatsApp messages through one provider.
type Gateway interface {
	SendText(ctx context.Context, phone, text string) error
	SendImage(ctx context.Context, phone, imageURL, caption string) error
}

// GatewayError carries a non-2xx provider response.
type GatewayError struct {
	Provider string
	Status   int
	Body     string
}

func (e GatewayError) Error() string {
	return fmt.Sprintf("%s respondeu %d: %s", e.Provider, e.Status, e.Body)
}

// ZAPIGateway talks to Z-API.
type ZAPIGateway struct {
	BaseURL     string
	InstanceID  string
	Token       string
	ClientToken string
	Client      *http.Client
}

func (g ZAPIGateway) endpoint(action string) string {
	return fmt.Sprintf("%s/instances/%s/token/%s/%s", strings.TrimRight(g.BaseURL, "/"), g.InstanceID, g.Token, action)
}

func (g ZAPIGateway) headers() map[string]string {
	if g.ClientToken == "" {
		return nil
	}
	return map[string]string{"Client-Token": g.ClientToken}
}

func (g ZAPIGateway) SendText(ctx context.Context, phone, text string) error {
	return postJSON(ctx, g.Client, "zapi", g.endpoint("send-text"), g.headers(), map[string]string{
		"phone":   phone,
		"message": text,
	})
}

func (g ZAPIGateway) SendImage(ctx context.Context, phone, imageURL, caption string) error {
	return postJSON(ctx, g.Client, "zapi", g.endpoint("send-image"), g.headers(), map[string]string{
		"phone":   phone,
		"image":   imageURL,
		"caption": caption,
	})
}

// EvolutionGateway talks to Evolution API.
type EvolutionGateway struct {
	BaseURL  string
	Instance string
	APIKey   string
	Client   *http.Client
}

func (g EvolutionGateway) endpoint(action string) string {
	return fmt.Sprintf("%s/message/%s/%s", strings.TrimRight(g.BaseURL, "/"), action, g.Instance)
}

func (g EvolutionGateway) SendText(ctx context.Context, phone, text string) error {
	return postJSON(ctx, g.Client, "evolution", g.endpoint("sendText"), map[string]string{"apikey": g.APIKey}, map[string]string{
		"number": phone,
		"text":   text,
	})
}

func (g EvolutionGateway) SendImage(ctx context.Context, phone, imageURL, caption string) error {
	return postJSON(ctx, g.Client, "evolution", g.endpoint("sendMedia"), map[string]string{"apikey": g.APIKey}, map[string]string{
		"number":    phone,
		"mediatype": "image",
		"media":     imageURL,
		"caption":   caption,
	})
}

func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return GatewayError{Provider: provider, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewGateway builds the gateway for the configured provider.
func NewGateway(cfg models.WhatsAppConfig, timeout time.Duration) (Gateway, error) {
	client := &http.Client{Timeout: timeout}
	switch cfg.Provider {
	case models.WhatsAppProviderZAPI:
		return ZAPIGateway{BaseURL: cfg.BaseURL, InstanceID: cfg.InstanceID, Token: cfg.Token, ClientToken: cfg.ClientToken, Client: client}, nil
	case models.WhatsAppProviderEvolution:
		return EvolutionGateway{BaseURL: cfg.BaseURL, Instance: cfg.InstanceID, APIKey: cfg.APIKey, Client: client}, nil
	default:
		return nil, domain.ValidationError{Field: "provedor", Msg: fmt.Sprintf("provedor %q não suportado", cfg.Provider)}
	}
}

// Recipient is one broadcast target.
type Recipient struct {
	Name     string `json:"nome"`
	Phone    string `json:"telefone"`
	ImageURL string `json:"imagem_url,omitempty"`
	Vars     map[string]string
}

// SendResult is the outcome for one recipient.
type SendResult struct {
	Name  string `json:"nome"`
	Phone string `json:"telefone"`
	OK    bool   `json:"ok"`
	Error string `json:"erro,omitempty"`
}

// Broadcaster sends one message per recipient with a fixed pause between sends.
type Broadcaster struct {
	Gateway   Gateway
	Delay     time.Duration
	RequestID string
}

// Broadcast stops early when ctx is cancelled; recipients not reached are
// reported with the context error.
func (b Broadcaster) Broadcast(ctx context.Context, recipients []Recipient, render func(Recipient) string) []SendResult {
	out := make([]SendResult, 0, len(recipients))
	for i, r := range recipients {
		res := SendResult{Name: r.Name, Phone: r.Phone}
		if err := ctx.Err(); err != nil {
			res.Error = err.Error()
			out = append(out, res)
			continue
		}
		if i > 0 && b.Delay > 0 {
			t := time.NewTimer(b.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				res.Error = ctx.Err().Error()
				out = append(out, res)
				continue
			case <-t.C:
			}
		}
		phone := utils.NormalizePhoneBR(r.Phone)
		if phone == "" {
			res.Error = "telefone inválido"
			out = append(out, res)
			continue
		}
		res.Phone = phone
		var err error
		if r.ImageURL != "" {
			err = b.Gateway.SendImage(ctx, phone, r.ImageURL, render(r))
		} else {
			err = b.Gateway.SendText(ctx, phone, render(r))
		}
		if err != nil {
			res.Error = err.Error()
			utils.LogEvent(b.RequestID, "whatsapp", "send_failed", fmt.Sprintf("telefone=%s err=%v", phone, err))
		} else {
			res.OK = true
		}
		out = append(out, res)
	}
	return out
}

// RenderTemplate replaces {chave} placeholders with r.Vars and {nome} with r.Name.
func RenderTemplate(tpl string, r Recipient) string {
	pairs := []string{"{nome}", r.Name}
	for k, v := range r.Vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

const (
	ReminderTemplate = "Olá {nome}! Lembrete da caravana para o jogo contra {adversario} em {data_jogo}: " +
		"a parcela {parcela} no valor de {valor} vence em {vencimento}. Qualquer dúvida é só chamar!"
	TicketQRTemplate = "Olá {nome}! Segue o QR code do seu ingresso para o jogo contra {adversario} ({setor})."
)
