package main

import (
	"log"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/cmd/server"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/config"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := storage.NewPostgresDB(cfg.PostgresConnStr)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	srv := server.NewServer(&server.ServerConfig{
		Config: cfg,
		DB:     db,
		Logger: logger,
	})
	srv.Run()
}
