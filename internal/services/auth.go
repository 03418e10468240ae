package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"
	"caravanas/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("email ou senha inválidos")

// ErrInvalidToken covers every bearer token that fails validation.
var ErrInvalidToken = errors.New("token inválido")

type Claims struct {
	UserID int64
	Role   string
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      models.Operator `json:"user"`
}

type AuthService struct {
	Users     repositories.UserRepository
	Secret    []byte
	TTL       time.Duration
	RequestID string
}

func (s AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Field: "email", Msg: "email e senha obrigatórios"}
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if domain.IsNotFound(err) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !u.Active {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		utils.LogEvent(s.RequestID, "auth", "login_failed", fmt.Sprintf("user_id=%d", u.ID))
		return LoginResult{}, ErrInvalidCredentials
	}
	token, exp, err := s.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d role=%s", u.ID, u.Role))
	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Issue signs an HS256 token with user_id, role and exp.
func (s AuthService) Issue(u models.Operator) (string, time.Time, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	exp := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"role":    u.Role,
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("assinar token: %w", err)
	}
	return signed, exp, nil
}

func (s AuthService) ParseToken(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	id, ok := mc["user_id"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	role, _ := mc["role"].(string)
	return Claims{UserID: int64(id), Role: role}, nil
}

// HashPassword hashes with bcrypt.DefaultCost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
