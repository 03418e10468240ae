package config

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis returns nil when redis is disabled or unreachable; callers
// treat a nil client as "no distributed locking".
func ConnectRedis(cfg RedisConfig) *redis.Client {
	if !cfg.Enabled {
		log.Println("redis desabilitado: atribuições de ônibus sem lock distribuído (última escrita vence)")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("falha ao conectar no redis %s: %v (seguindo sem lock)", cfg.Addr, err)
		_ = client.Close()
		return nil
	}

	log.Printf("conectado ao redis %s", cfg.Addr)
	return client
}
