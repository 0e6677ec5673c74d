package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"country-service/internal/cache"
	"country-service/internal/config"
	"country-service/internal/database/postgres"
	"country-service/internal/database/redis"
	"country-service/internal/event"
	"country-service/internal/handlers"
	"country-service/internal/repository"
	"country-service/internal/services"

	"github.com/gin-gonic/gin"
)

const listCacheTTL = 60 * time.Second

func setupLogging() (*os.File, error) {
	logDir := getEnv("COUNTRY_LOG_DIR", filepath.Join("log", "country_service"))
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()
	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s, retry db connection", err)
		postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}
	if db == nil {
		log.Fatalf("could not establish database connection")
	}
	defer db.Close()

	// optional collaborators
	var countryCache cache.ICountryCache
	if cfg.RedisCfg.Host != "" {
		redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
		if err != nil {
			log.Printf("Redis unavailable, running without cache: %v", err)
		} else {
			defer redisClient.Close()
			countryCache = cache.NewCountryCache(redisClient.GetClient(), listCacheTTL)
		}
	}

	var publisher event.IRefreshPublisher
	if cfg.RabbitMQCfg.Host != "" {
		conn, err := event.NewRabbitMQConnection(
			cfg.RabbitMQCfg.Host, cfg.RabbitMQCfg.Port,
			cfg.RabbitMQCfg.Username, cfg.RabbitMQCfg.Password)
		if err != nil {
			log.Printf("RabbitMQ unavailable, running without refresh events: %v", err)
		} else {
			defer conn.Close()
			publisher = event.NewRefreshPublisher(conn)
		}
	}

	r := gin.Default()

	// repositories
	countryRepository := repository.NewCountryRepository(db)

	// services
	externalDataService := services.NewExternalDataService(cfg.ExternalCfg)
	summaryImageService := services.NewSummaryImageService(countryRepository, cfg.CacheDir)
	refreshService := services.NewCountryRefreshService(
		externalDataService,
		countryRepository,
		summaryImageService,
		publisher,
		services.NewRandSource(),
	)

	// handlers
	countryHandler := handlers.NewCountryHandler(refreshService, countryRepository, summaryImageService, countryCache)
	countryHandler.RegisterRoutes(r)

	log.Printf("Starting country-service on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
