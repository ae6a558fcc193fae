package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/mockapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	db, err := mockapi.InitDB(cfg.DBDSN, cfg.DBPath)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if cfg.SeedPath != "" {
		if err := mockapi.Seed(db, cfg.SeedPath); err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
	}

	srv := mockapi.New(db, logger, []byte(cfg.JWTSecret))
	srv.Producer = mockapi.NewProducer(cfg.KafkaAddr)
	defer srv.Producer.Close()

	if cfg.ESURL != "" {
		es, err := mockapi.NewESClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("connect elasticsearch: %v", err)
		}
		srv.ES = es
		srv.ESIndex = cfg.ESIndex
		if err := srv.IndexProducts(context.Background()); err != nil {
			logger.Error("index catalog", "error", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	srv.Register(e)

	logger.Info("mock api listening", "addr", cfg.Addr)
	e.Logger.Fatal(e.Start(cfg.Addr))
}
