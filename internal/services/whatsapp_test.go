package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"
	"caravanas/internal/services/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path    string
	Headers http.Header
	Body    map[string]string
}

func captureServer(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Path = r.URL.Path
		got.Headers = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"instance offline"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestZAPIGatewaySendText(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)
	gw := ZAPIGateway{BaseURL: srv.URL + "/", InstanceID: "inst1", Token: "tok", ClientToken: "ct", Client: srv.Client()}

	require.NoError(t, gw.SendText(context.Background(), "5521999990000", "oi"))
	assert.Equal(t, "/instances/inst1/token/tok/send-text", got.Path)
	assert.Equal(t, "ct", got.Headers.Get("Client-Token"))
	assert.Equal(t, "application/json", got.Headers.Get("Content-Type"))
	assert.Equal(t, map[string]string{"phone": "5521999990000", "message": "oi"}, got.Body)
}

func TestEvolutionGatewaySendImage(t *testing.T) {
	srv, got := captureServer(t, http.StatusCreated)
	gw := EvolutionGateway{BaseURL: srv.URL, Instance: "caravana", APIKey: "k", Client: srv.Client()}

	require.NoError(t, gw.SendImage(context.Background(), "5521999990000", "https://img/qr.png", "seu ingresso"))
	assert.Equal(t, "/message/sendMedia/caravana", got.Path)
	assert.Equal(t, "k", got.Headers.Get("apikey"))
	assert.Equal(t, "image", got.Body["mediatype"])
	assert.Equal(t, "https://img/qr.png", got.Body["media"])
}

func TestGatewayErrorCarriesStatus(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadGateway)
	gw := EvolutionGateway{BaseURL: srv.URL, Instance: "x", Client: srv.Client()}

	err := gw.SendText(context.Background(), "5521999990000", "oi")
	var gerr GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusBadGateway, gerr.Status)
	assert.Equal(t, "evolution", gerr.Provider)
	assert.Contains(t, gerr.Body, "instance offline")
}

func TestNewGatewayRejectsUnknownProvider(t *testing.T) {
	_, err := NewGateway(models.WhatsAppConfig{Provider: "telegram"}, time.Second)
	assert.True(t, domain.IsValidation(err))

	gw, err := NewGateway(models.WhatsAppConfig{Provider: models.WhatsAppProviderZAPI}, time.Second)
	require.NoError(t, err)
	assert.IsType(t, ZAPIGateway{}, gw)
}

func TestBroadcastPerRecipientOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	gw.EXPECT().SendText(gomock.Any(), "5521999990000", "Olá Ana").Return(nil)
	gw.EXPECT().SendImage(gomock.Any(), "5511988887777", "https://img/1.png", "Olá Caio").Return(errors.New("timeout"))

	b := Broadcaster{Gateway: gw}
	res := b.Broadcast(context.Background(), []Recipient{
		{Name: "Ana", Phone: "(21) 99999-0000"},
		{Name: "Bia", Phone: "123"},
		{Name: "Caio", Phone: "11 98888-7777", ImageURL: "https://img/1.png"},
	}, func(r Recipient) string { return RenderTemplate("Olá {nome}", r) })

	require.Len(t, res, 3)
	assert.True(t, res[0].OK)
	assert.Equal(t, "5521999990000", res[0].Phone)
	assert.False(t, res[1].OK)
	assert.Equal(t, "telefone inválido", res[1].Error)
	assert.False(t, res[2].OK)
	assert.Equal(t, "timeout", res[2].Error)
}

func TestBroadcastStopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Broadcaster{Gateway: gw}.Broadcast(ctx, []Recipient{{Name: "Ana", Phone: "21999990000"}}, func(Recipient) string { return "" })

	require.Len(t, res, 1)
	assert.False(t, res[0].OK)
	assert.Equal(t, context.Canceled.Error(), res[0].Error)
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("Olá {nome}, jogo contra {adversario} {faltando}", Recipient{
		Name: "Ana", Vars: map[string]string{"adversario": "Vasco"},
	})
	assert.Equal(t, "Olá Ana, jogo contra Vasco {faltando}", got)
}

func TestReminderRecipients(t *testing.T) {
	due := repositories.DueInstallment{
		Installment: models.Installment{Number: 2, Total: 3, Amount: d("1234.5"), DueDate: time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)},
		ClientName:  "Ana", ClientPhone: "21999990000", Opponent: "Vasco",
		MatchDate: time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local),
	}
	rs := ReminderRecipients([]repositories.DueInstallment{due})
	require.Len(t, rs, 1)
	assert.Equal(t, "2/3", rs[0].Vars["parcela"])
	assert.Equal(t, "Vasco", rs[0].Vars["adversario"])
	assert.Equal(t, "R$ 1.234,50", rs[0].Vars["valor"])
	assert.Contains(t, RenderTemplate(ReminderTemplate, rs[0]), "Olá Ana!")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "***", mask("abc"))
	assert.Equal(t, "****6789", mask("12346789"))
}

var whatsAppCols = []string{"id", "provedor", "base_url", "instance_id", "token", "api_key", "client_token", "ativo"}

func TestSaveConfigKeepsStoredSecretsWhenEchoedMasked(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM configuracao_whatsapp WHERE ativo = \?`).WithArgs(true).
		WillReturnRows(sqlmock.NewRows(whatsAppCols).AddRow(4, "zapi", "https://api.z-api.io", "inst", "tok-abcd1234", "", "ct-9876", true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE configuracao_whatsapp SET ativo = \?`).WithArgs(false).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO configuracao_whatsapp`).
		WithArgs("zapi", "https://api.z-api.io", "inst", "tok-abcd1234", "", "ct-new", true).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	svc := WhatsAppService{Config: repositories.WhatsAppRepository{DB: db}, DB: db}
	saved, err := svc.SaveConfig(context.Background(), models.WhatsAppConfig{
		Provider:    models.WhatsAppProviderZAPI,
		BaseURL:     "https://api.z-api.io/",
		InstanceID:  "inst",
		Token:       mask("tok-abcd1234"),
		ClientToken: "ct-new",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), saved.ID)
	assert.Equal(t, mask("tok-abcd1234"), saved.Token)
	assert.Equal(t, mask("ct-new"), saved.ClientToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveConfigEmptySecretWithoutStoredRowIsRejected(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM configuracao_whatsapp WHERE ativo = \?`).WillReturnRows(sqlmock.NewRows(whatsAppCols))

	svc := WhatsAppService{Config: repositories.WhatsAppRepository{DB: db}, DB: db}
	_, err := svc.SaveConfig(context.Background(), models.WhatsAppConfig{Provider: models.WhatsAppProviderZAPI})
	assert.True(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendTicketQRUsesActiveGateway(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM configuracao_whatsapp WHERE ativo = \?`).
		WillReturnRows(sqlmock.NewRows(whatsAppCols).AddRow(1, "evolution", "https://evo", "caravana", "", "k", "", true))

	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	gw.EXPECT().SendImage(gomock.Any(), "5521999990000", "https://img/qr.png",
		"Olá Ana! Segue o QR code do seu ingresso para o jogo contra Vasco (Norte).").Return(nil)

	svc := WhatsAppService{
		Config:     repositories.WhatsAppRepository{DB: db},
		GatewayFor: func(cfg models.WhatsAppConfig) (Gateway, error) { return gw, nil },
	}
	ticket := models.Ticket{ID: 7, ClientName: "Ana", Opponent: "Vasco", Sector: "Norte"}
	res, err := svc.SendTicketQR(context.Background(), ticket, "(21) 99999-0000", "https://img/qr.png")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.SendTicketQR(context.Background(), ticket, "21999990000", " ")
	assert.True(t, domain.IsValidation(err))
}
