package api

import (
	"log"
	stdhttp "net/http"

	intconfig "caravanas/internal/config"
	"caravanas/internal/domain/models"
	h "caravanas/internal/http/handlers"
	"caravanas/internal/http/middleware"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine. handlers.Configure must run first so the
// auth middleware sees the configured secret.
func NewRouter(env intconfig.Env, auth services.AuthService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.Server.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("aviso: falha ao configurar proxies confiáveis: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "rota não encontrada",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/db-check", h.DBCheck)
	api.POST("/auth/login", h.Login)

	p := api.Group("")
	p.Use(middleware.AuthRequired(auth))
	admin := middleware.RequireRoles(models.RoleAdmin)

	p.GET("/auth/me", h.Me)
	p.GET("/routes", h.Routes)

	clients := p.Group("/clientes")
	clients.GET("", h.ListClients)
	clients.POST("", h.CreateClient)
	clients.GET("/:id", h.GetClient)
	clients.PUT("/:id", h.UpdateClient)
	clients.DELETE("/:id", admin, h.DeleteClient)
	clients.GET("/:id/carteira", h.GetWallet)
	clients.POST("/:id/carteira/depositos", h.WalletDeposit)
	clients.POST("/:id/carteira/usos", h.WalletUse)
	clients.POST("/:id/carteira/ajustes", h.WalletAdjust)
	clients.GET("/:id/carteira/conciliacao", h.ReconcileWallet)

	trips := p.Group("/viagens")
	trips.GET("", h.ListTrips)
	trips.POST("", h.CreateTrip)
	trips.GET("/:id", h.GetTrip)
	trips.PUT("/:id", h.UpdateTrip)
	trips.DELETE("/:id", admin, h.DeleteTrip)
	trips.GET("/:id/onibus", h.ListBuses)
	trips.POST("/:id/onibus", h.CreateBus)
	trips.GET("/:id/onibus/:busId/grupos", h.ListBusGroups)
	trips.GET("/:id/passageiros", h.ListPassengers)
	trips.POST("/:id/passageiros", h.EnrollPassenger)
	trips.GET("/:id/grupos", h.ListGroups)
	trips.POST("/:id/grupos/conflitos", h.CheckGroupConflicts)
	trips.GET("/:id/setores-precos", h.GetSectorPrices)
	trips.PUT("/:id/setores-precos", h.SaveSectorPrices)
	trips.DELETE("/:id/setores-precos", admin, h.DeleteSectorPrices)
	trips.GET("/:id/receitas", h.ListRevenues)
	trips.POST("/:id/receitas", h.CreateRevenue)
	trips.GET("/:id/despesas", h.ListExpenses)
	trips.POST("/:id/despesas", h.CreateExpense)

	p.PUT("/onibus/:id", h.UpdateBus)
	p.DELETE("/onibus/:id", admin, h.DeleteBus)
	p.DELETE("/receitas/:id", admin, h.DeleteRevenue)
	p.DELETE("/despesas/:id", admin, h.DeleteExpense)

	passengers := p.Group("/passageiros")
	passengers.PUT("/:id", h.UpdatePassenger)
	passengers.DELETE("/:id", admin, h.DeletePassenger)
	passengers.POST("/:id/onibus", h.AssignBus)
	passengers.GET("/:id/parcelas", h.ListInstallments)
	passengers.POST("/:id/pagamentos", h.PayPassengerAmount)
	passengers.POST("/:id/quitar", h.SettlePassenger)
	passengers.GET("/:id/financeiro", h.PassengerFinancials)
	p.POST("/parcelas/:id/pagar", h.PayInstallment)

	finance := p.Group("/financeiro")
	finance.GET("/resumo", h.FinanceSummary)
	finance.GET("/resumo.pdf", h.FinanceSummaryPDF)
	finance.GET("/resumo.csv", h.FinanceSummaryCSV)
	finance.GET("/viagens/:id", h.TripFinancials)

	wallet := p.Group("/carteira")
	wallet.POST("/transacoes/:id/cancelar", h.CancelWalletTransaction)
	wallet.GET("/relatorio-mensal", h.WalletMonthlyReport)
	wallet.GET("/relatorio-mensal.csv", h.WalletMonthlyReportCSV)

	credits := p.Group("/creditos")
	credits.GET("", h.ListCredits)
	credits.POST("", h.CreateCredit)
	credits.POST("/:id/vincular", h.LinkCredit)
	credits.POST("/:id/reembolsar", h.RefundCredit)

	tickets := p.Group("/ingressos")
	tickets.GET("", h.ListTickets)
	tickets.POST("", h.CreateTicket)
	tickets.GET("/:id", h.GetTicket)
	tickets.DELETE("/:id", admin, h.DeleteTicket)
	tickets.GET("/:id/pagamentos", h.ListTicketPayments)
	tickets.POST("/:id/pagamentos", h.CreateTicketPayment)
	tickets.GET("/:id/comprovante.pdf", h.TicketReceipt)
	tickets.POST("/:id/whatsapp-qr", h.SendTicketQR)

	wa := p.Group("/whatsapp")
	wa.GET("/config", h.GetWhatsAppConfig)
	wa.PUT("/config", admin, h.SaveWhatsAppConfig)
	wa.POST("/lembretes", h.SendReminders)
	wa.POST("/enviar", h.SendWhatsAppMessage)

	h.SetRouter(r)
	return r
}
