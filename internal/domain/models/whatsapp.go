package models

const (
	WhatsAppProviderZAPI      = "zapi"
	WhatsAppProviderEvolution = "evolution"
)

// WhatsAppConfig mirrors configuracao_whatsapp; only the active row is used.
type WhatsAppConfig struct {
	ID          int64  `db:"id" json:"id"`
	Provider    string `db:"provedor" json:"provedor" binding:"required,oneof=zapi evolution"`
	BaseURL     string `db:"base_url" json:"base_url" binding:"required,url"`
	InstanceID  string `db:"instance_id" json:"instance_id" binding:"required"`
	Token       string `db:"token" json:"token,omitempty"`
	APIKey      string `db:"api_key" json:"api_key,omitempty"`
	ClientToken string `db:"client_token" json:"client_token,omitempty"`
	Active      bool   `db:"ativo" json:"ativo"`
}
