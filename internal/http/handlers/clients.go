package handlers

import (
	"net/http"

	"caravanas/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/clientes?busca=&page=&page_size=
func ListClients(c *gin.Context) {
	list, page, err := catalogService(c).ListClients(c.Request.Context(), c.Query("busca"), pagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "pagination": page})
}

func GetClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	client, err := catalogService(c).GetClient(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func CreateClient(c *gin.Context) {
	var in models.ClientInput
	if !BindJSONOrError(c, &in) {
		return
	}
	client, err := catalogService(c).CreateClient(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func UpdateClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.ClientInput
	if !BindJSONOrError(c, &in) {
		return
	}
	client, err := catalogService(c).UpdateClient(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func DeleteClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := catalogService(c).DeleteClient(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
