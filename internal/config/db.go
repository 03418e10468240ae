package config

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var (
	DB   *sqlx.DB
	dbMu sync.Mutex
)

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(cfg DatabaseConfig) *sqlx.DB {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "postgres", "postgresql":
		driver = "postgres"
	case "mysql":
	default:
		log.Fatalf("driver de banco não suportado: %q", cfg.Driver)
	}

	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		log.Fatalf("falha ao abrir banco: %v", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("falha ao pingar banco (%s): %v", driver, err)
	}

	DB = db
	log.Printf("conectado ao banco %s", driver)
	return DB
}

// EnsureDB pings the shared connection.
func EnsureDB(ctx context.Context) error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		return fmt.Errorf("banco não conectado")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
