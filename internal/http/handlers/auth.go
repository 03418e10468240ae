package handlers

import (
	"net/http"

	"caravanas/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := current().Auth
	svc.RequestID = middleware.GetRequestID(c)
	res, err := svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/auth/me
func Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": middleware.GetUserID(c),
		"role":    c.GetString("userRole"),
	})
}
