package handlers

import (
	"net/http"
	"sync"

	intconfig "caravanas/internal/config"
	"caravanas/internal/repositories"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "api das caravanas no ar"})
}

// DBCheck pings the database and reports which optional finance tables exist.
func DBCheck(c *gin.Context) {
	db := current().DB
	if db == nil {
		db = intconfig.DB
	}
	if db == nil {
		RespondError(c, http.StatusServiceUnavailable, "banco de dados não conectado", nil)
		return
	}
	if err := db.PingContext(c.Request.Context()); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "falha ao consultar o banco", err)
		return
	}
	tables := repositories.FinanceRepository{DB: db}.OptionalTables(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message":           "conexão com o banco OK",
		"driver":            db.DriverName(),
		"tabelas_opcionais": tables,
	})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rotas ainda não registradas"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
