package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"caravanas/internal/domain"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/x", nil)
	RespondDomainError(c, err)
	return w
}

func TestRespondDomainErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		tag  string
	}{
		{"validation", domain.ValidationError{Field: "valor", Msg: "inválido"}, http.StatusBadRequest, "validation_error"},
		{"not found", domain.NotFoundError{Resource: "viagem"}, http.StatusNotFound, "not_found"},
		{"conflict", domain.ConflictError{Resource: "grupo", Msg: "x"}, http.StatusConflict, "conflict"},
		{"balance", domain.InsufficientBalanceError{Available: decimal.NewFromInt(50), Requested: decimal.NewFromInt(80)}, http.StatusUnprocessableEntity, "insufficient_balance"},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := respond(tc.err)
			assert.Equal(t, tc.code, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.tag, body["code"])
		})
	}
}

func TestRespondDomainErrorHidesInternalMessage(t *testing.T) {
	w := respond(errors.New("pq: senha do banco"))
	assert.NotContains(t, w.Body.String(), "senha do banco")
}

func TestRespondCapacityError(t *testing.T) {
	w := respond(domain.CapacityError{BusID: 10, Capacity: 46, Occupancy: 45, Requested: 3})
	assert.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "capacity_exceeded", body.Code)
	assert.EqualValues(t, 10, body.Details["onibus_id"])
	assert.EqualValues(t, 1, body.Details["lugares_livres"])
}

func TestPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/viagens/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{"/viagens/12": http.StatusOK, "/viagens/abc": http.StatusBadRequest, "/viagens/0": http.StatusBadRequest} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
