package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/http/middleware"
	"caravanas/internal/utils"

	"github.com/gin-gonic/gin"
)

// RespondError sends standard error payload with request_id included.
// Keeps backward compatibility by always providing "message".
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "corpo da requisição vazio", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "payload inválido", validationDetails(err))
		return false
	}
	return true
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: name, Msg: "id inválido"})
		return 0, false
	}
	return id, true
}

// queryDate parses an optional date query param; empty yields the zero time.
func queryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: name, Msg: "data inválida", Err: err})
		return time.Time{}, false
	}
	return t, true
}

func queryInt64(c *gin.Context, name string) int64 {
	v, _ := strconv.ParseInt(c.Query(name), 10, 64)
	return v
}

func pagination(c *gin.Context) domain.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return domain.Pagination{Page: page, PageSize: size}.Normalize()
}

func sendFile(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
