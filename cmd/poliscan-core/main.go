package main

// @title           Poliscan Core API
// @version         1.0
// @description     Policy analysis storage API. Poliscan Core stores and serves analyses of insurance-policy documents and their extracted fields.

// @contact.name   Poliscan OSS
// @contact.url    https://github.com/custodia-labs/poliscan-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/poliscan-core/internal/adapters/driven/memory"
	"github.com/custodia-labs/poliscan-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/poliscan-core/internal/adapters/driven/redis"
	httpadapter "github.com/custodia-labs/poliscan-core/internal/adapters/driving/http"
	"github.com/custodia-labs/poliscan-core/internal/core/ports/driven"
	"github.com/custodia-labs/poliscan-core/internal/core/services"
)

var version = "dev"

func main() {
	log.Printf("poliscan-core %s starting", version)

	// Configuration from environment
	host := getEnv("HOST", "0.0.0.0")
	port := getEnvInt("PORT", 8080)
	databaseURL := getEnv("DATABASE_URL", "")
	redisURL := getEnv("REDIS_URL", "")

	// Setup context with cancellation for graceful shutdown of connections
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// ===== Select policy store backend =====
	// DATABASE_URL wins over REDIS_URL; without either the store is
	// in-memory and records do not survive a restart.
	var policyStore driven.PolicyStore
	var dbPinger, redisPinger httpadapter.Pinger

	switch {
	case databaseURL != "":
		log.Println("Connecting to PostgreSQL...")
		dbConfig := postgres.Config{
			URL:             databaseURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300)) * time.Second,
			ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_SEC", 60)) * time.Second,
		}
		db, err := postgres.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Initialize schema (idempotent)
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("PostgreSQL connected and schema initialized")

		policyStore = postgres.NewPolicyStore(db)
		dbPinger = db

	case redisURL != "":
		log.Println("Connecting to Redis...")
		opts, err := goredis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := goredis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")

		policyStore = redisadapter.NewPolicyStore(redisClient)
		redisPinger = redisPingerFunc(redisClient)

	default:
		log.Println("No DATABASE_URL or REDIS_URL set, using in-memory policy store")
		policyStore = memory.NewPolicyStore()
	}

	// ===== Wire services and HTTP server =====
	policyService := services.NewPolicyService(policyStore)

	serverConfig := httpadapter.Config{
		Host:    host,
		Port:    port,
		Version: version,
	}
	server := httpadapter.NewServer(serverConfig, policyService, dbPinger, redisPinger)

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// redisPingerFunc adapts the go-redis client to the server's Pinger
func redisPingerFunc(client *goredis.Client) httpadapter.Pinger {
	return pingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
