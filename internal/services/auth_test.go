package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("segredo-de-teste")

func TestIssueAndParseToken(t *testing.T) {
	svc := AuthService{Secret: testSecret, TTL: time.Hour}
	token, exp, err := svc.Issue(models.Operator{ID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: 9, Role: models.RoleAdmin}, claims)
}

func TestParseTokenRejects(t *testing.T) {
	svc := AuthService{Secret: testSecret}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Minute).Unix()})
	expiredRaw, _ := expired.SignedString(testSecret)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1})
	noExpRaw, _ := noExp.SignedString(testSecret)

	other := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(time.Hour).Unix()})
	otherRaw, _ := other.SignedString(testSecret)

	foreign, _, _ := AuthService{Secret: []byte("outro")}.Issue(models.Operator{ID: 1})

	for name, raw := range map[string]string{
		"expired":      expiredRaw,
		"without exp":  noExpRaw,
		"wrong method": otherRaw,
		"wrong secret": foreign,
		"garbage":      "abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

var userCols = []string{"id", "nome", "email", "senha_hash", "papel", "ativo"}

func loginFixture(t *testing.T, active bool) (AuthService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("flamengo81"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`FROM usuarios WHERE LOWER\(email\) = \?`).WithArgs("ana@caravana.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "Ana", "ana@caravana.com", string(hash), models.RoleOperator, active))
	return AuthService{Users: repositories.UserRepository{DB: db}, Secret: testSecret}, mock
}

func TestLoginSuccess(t *testing.T) {
	svc, mock := loginFixture(t, true)
	res, err := svc.Login(context.Background(), " Ana@Caravana.com ", "flamengo81")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3), res.User.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := loginFixture(t, true)
	_, err := svc.Login(context.Background(), "ana@caravana.com", "vasco")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLoginInactiveUser(t *testing.T) {
	svc, _ := loginFixture(t, false)
	_, err := svc.Login(context.Background(), "ana@caravana.com", "flamengo81")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLoginUnknownEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM usuarios`).WillReturnRows(sqlmock.NewRows(userCols))
	_, err := AuthService{Users: repositories.UserRepository{DB: db}}.Login(context.Background(), "x@y.z", "p")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLoginRequiresCredentials(t *testing.T) {
	_, err := AuthService{}.Login(context.Background(), " ", "")
	assert.True(t, domain.IsValidation(err))
}
