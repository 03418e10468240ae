package repositories

import (
	"context"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

type WhatsAppRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

// GetActive returns the active configuracao_whatsapp row.
func (r WhatsAppRepository) GetActive(ctx context.Context) (models.WhatsAppConfig, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.WhatsAppConfig{}, err
	}
	var cfg models.WhatsAppConfig
	err = intdb.Get(ctx, q, &cfg, `
		SELECT id, provedor, COALESCE(base_url,'') AS base_url, COALESCE(instance_id,'') AS instance_id,
		       COALESCE(token,'') AS token, COALESCE(api_key,'') AS api_key,
		       COALESCE(client_token,'') AS client_token, ativo
		FROM configuracao_whatsapp WHERE ativo = ? ORDER BY id DESC LIMIT 1`, true)
	if intdb.IsNoRows(err) {
		return models.WhatsAppConfig{}, domain.NotFoundError{Resource: "configuração do WhatsApp"}
	}
	return cfg, err
}

// Save deactivates every row and stores cfg as the active one.
func (r WhatsAppRepository) Save(ctx context.Context, tx *sqlx.Tx, cfg models.WhatsAppConfig) (int64, error) {
	if _, err := intdb.Exec(ctx, tx, `UPDATE configuracao_whatsapp SET ativo = ?`, false); err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, tx, `
		INSERT INTO configuracao_whatsapp (provedor, base_url, instance_id, token, api_key, client_token, ativo)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cfg.Provider, cfg.BaseURL, cfg.InstanceID, cfg.Token, cfg.APIKey, cfg.ClientToken, true)
}
