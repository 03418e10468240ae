package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "caravanas/internal/config"
	"caravanas/internal/events"
	router "caravanas/internal/http"
	"caravanas/internal/http/handlers"
	"caravanas/internal/jobs"
	"caravanas/internal/lock"
	"caravanas/internal/repositories"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	env := intconfig.LoadEnv()
	if env.Server.GinMode != "" {
		gin.SetMode(env.Server.GinMode)
	}
	decimal.MarshalJSONWithoutQuotes = true
	handlers.RegisterValidators()

	db := intconfig.ConnectDB(env.Database)
	defer intconfig.CloseDB()

	rdb := intconfig.ConnectRedis(env.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	producer := intconfig.ConnectKafka(env.Kafka)
	if producer != nil {
		defer producer.Close()
	}

	recorder := &events.Recorder{}
	if producer != nil {
		recorder.Topic = env.Kafka.Topic
	}

	auth := services.AuthService{
		Users:  repositories.UserRepository{DB: db},
		Secret: []byte(env.Auth.JWTSecret),
		TTL:    env.Auth.TokenTTL,
	}

	handlers.Configure(handlers.Deps{
		DB:                 db,
		Events:             recorder,
		Locker:             lock.BusLocker{Client: rdb},
		Auth:               auth,
		WhatsAppDelay:      env.WhatsApp.MessageDelay,
		WhatsAppTimeout:    env.WhatsApp.HTTPTimeout,
		FinanceConcurrency: 4,
		ReminderDaysAhead:  env.Jobs.ReminderDaysAhead,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if producer != nil {
		sender := jobs.NewOutboxSender(
			repositories.OutboxRepository{DB: db},
			events.KafkaPublisher{Producer: producer},
			env.Jobs.OutboxInterval,
			env.Jobs.OutboxMaxRetries,
		)
		go sender.Start(ctx)
	}

	if env.Jobs.ReminderEnabled {
		wa := services.WhatsAppService{
			Config: repositories.WhatsAppRepository{DB: db},
			Installments: services.InstallmentService{
				Installments: repositories.InstallmentRepository{DB: db},
				Passengers:   repositories.PassengerRepository{DB: db},
				DB:           db,
				Events:       recorder,
				RequestID:    "reminder-job",
			},
			DB:          db,
			Delay:       env.WhatsApp.MessageDelay,
			HTTPTimeout: env.WhatsApp.HTTPTimeout,
			RequestID:   "reminder-job",
		}
		job := jobs.NewReminderJob(wa, env.Jobs.ReminderInterval, env.Jobs.ReminderDaysAhead)
		go job.Start(ctx)
	}

	r := router.NewRouter(env, auth)

	srv := &http.Server{
		Addr:              env.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       env.Server.ReadTimeout,
		WriteTimeout:      env.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("servidor rodando em http://localhost%s", env.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("falha ao iniciar servidor: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("falha no desligamento: %v", err)
	}
	log.Println("servidor encerrado.")
}
