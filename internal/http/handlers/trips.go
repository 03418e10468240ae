package handlers

import (
	"net/http"

	"caravanas/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/viagens?inicio=&fim=
func ListTrips(c *gin.Context) {
	start, ok := queryDate(c, "inicio")
	if !ok {
		return
	}
	end, ok := queryDate(c, "fim")
	if !ok {
		return
	}
	list, err := catalogService(c).ListTrips(c.Request.Context(), start, end)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func GetTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	trip, err := catalogService(c).GetTrip(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func CreateTrip(c *gin.Context) {
	var in models.TripInput
	if !BindJSONOrError(c, &in) {
		return
	}
	trip, err := catalogService(c).CreateTrip(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func UpdateTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.TripInput
	if !BindJSONOrError(c, &in) {
		return
	}
	trip, err := catalogService(c).UpdateTrip(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func DeleteTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := catalogService(c).DeleteTrip(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/viagens/:id/onibus
func ListBuses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := catalogService(c).ListBuses(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func CreateBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.BusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	bus, err := catalogService(c).CreateBus(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bus)
}

func UpdateBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.BusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	bus, err := catalogService(c).UpdateBus(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

func DeleteBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := catalogService(c).DeleteBus(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
