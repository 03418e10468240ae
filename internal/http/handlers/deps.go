package handlers

import (
	"fmt"
	"sync"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/events"
	"caravanas/internal/http/middleware"
	"caravanas/internal/repositories"
	"caravanas/internal/services"
	"caravanas/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Deps holds the process-wide collaborators handlers build services from.
type Deps struct {
	DB                 *sqlx.DB
	Events             *events.Recorder
	Locker             services.BusLocker
	Auth               services.AuthService
	WhatsAppDelay      time.Duration
	WhatsAppTimeout    time.Duration
	FinanceConcurrency int
	ReminderDaysAhead  int
	GatewayFor         func(models.WhatsAppConfig) (services.Gateway, error)
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// Configure installs the collaborators used by every handler.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	deps = d
}

func current() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

func middlewareLog(c *gin.Context, err error) {
	utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error",
		fmt.Sprintf("method=%s path=%s err=%v", c.Request.Method, c.Request.URL.Path, err))
}

type repoSet struct {
	clients      repositories.ClientRepository
	trips        repositories.TripRepository
	buses        repositories.BusRepository
	passengers   repositories.PassengerRepository
	installments repositories.InstallmentRepository
	tickets      repositories.TicketRepository
	wallets      repositories.WalletRepository
	credits      repositories.CreditRepository
	finance      repositories.FinanceRepository
	whatsapp     repositories.WhatsAppRepository
}

func repos() repoSet {
	db := current().DB
	return repoSet{
		clients:      repositories.ClientRepository{DB: db},
		trips:        repositories.TripRepository{DB: db},
		buses:        repositories.BusRepository{DB: db},
		passengers:   repositories.PassengerRepository{DB: db},
		installments: repositories.InstallmentRepository{DB: db},
		tickets:      repositories.TicketRepository{DB: db},
		wallets:      repositories.WalletRepository{DB: db},
		credits:      repositories.CreditRepository{DB: db},
		finance:      repositories.FinanceRepository{DB: db},
		whatsapp:     repositories.WhatsAppRepository{DB: db},
	}
}

func catalogService(c *gin.Context) services.CatalogService {
	r := repos()
	return services.CatalogService{
		Clients: r.clients, Trips: r.trips, Buses: r.buses, Passengers: r.passengers,
		Installments: r.installments, RequestID: middleware.GetRequestID(c),
	}
}

func seatingService(c *gin.Context) services.SeatingService {
	r, d := repos(), current()
	return services.SeatingService{
		Passengers: r.passengers, Buses: r.buses, DB: d.DB, Locker: d.Locker,
		Events: d.Events, RequestID: middleware.GetRequestID(c),
	}
}

func financeService(c *gin.Context) services.FinanceService {
	r, d := repos(), current()
	return services.FinanceService{
		Trips: r.trips, Passengers: r.passengers, Installments: r.installments, Finance: r.finance,
		Concurrency: d.FinanceConcurrency, RequestID: middleware.GetRequestID(c),
	}
}

func sectorPriceService(c *gin.Context) services.SectorPriceService {
	r, d := repos(), current()
	return services.SectorPriceService{
		Trips: r.trips, Passengers: r.passengers, Finance: r.finance, DB: d.DB,
		Events: d.Events, RequestID: middleware.GetRequestID(c),
	}
}

func walletService(c *gin.Context) services.WalletService {
	r, d := repos(), current()
	return services.WalletService{
		Wallets: r.wallets, Clients: r.clients, DB: d.DB, Events: d.Events,
		RequestID: middleware.GetRequestID(c),
	}
}

func creditService(c *gin.Context) services.CreditService {
	r, d := repos(), current()
	return services.CreditService{
		Credits: r.credits, Clients: r.clients, Trips: r.trips, DB: d.DB, Events: d.Events,
		RequestID: middleware.GetRequestID(c),
	}
}

func installmentService(c *gin.Context) services.InstallmentService {
	r, d := repos(), current()
	return services.InstallmentService{
		Installments: r.installments, Passengers: r.passengers, DB: d.DB, Events: d.Events,
		RequestID: middleware.GetRequestID(c),
	}
}

func enrollmentService(c *gin.Context) services.EnrollmentService {
	r, d := repos(), current()
	return services.EnrollmentService{
		Clients: r.clients, Trips: r.trips, Passengers: r.passengers, Installments: r.installments,
		Wallet: walletService(c), DB: d.DB, Events: d.Events, RequestID: middleware.GetRequestID(c),
	}
}

func ticketService(c *gin.Context) services.TicketService {
	r, d := repos(), current()
	return services.TicketService{
		Tickets: r.tickets, Clients: r.clients, DB: d.DB, Events: d.Events,
		RequestID: middleware.GetRequestID(c),
	}
}

func docsService(c *gin.Context) services.DocsService {
	return services.DocsService{Tickets: ticketService(c), RequestID: middleware.GetRequestID(c)}
}

func whatsAppService(c *gin.Context) services.WhatsAppService {
	r, d := repos(), current()
	return services.WhatsAppService{
		Config: r.whatsapp, Installments: installmentService(c), DB: d.DB,
		Delay: d.WhatsAppDelay, HTTPTimeout: d.WhatsAppTimeout, RequestID: middleware.GetRequestID(c),
		GatewayFor: d.GatewayFor,
	}
}
