package main

import (
	"github.com/moonrisegoods/nps/internal/application/paymentservice"
	"github.com/moonrisegoods/nps/internal/infrastructure/clients"
	"github.com/moonrisegoods/nps/internal/infrastructure/database"
	"github.com/moonrisegoods/nps/internal/infrastructure/rpc"
	"github.com/moonrisegoods/nps/internal/repositories/catalogrepo"
	"github.com/moonrisegoods/nps/internal/repositories/sessionrepo"
	"github.com/moonrisegoods/nps/internal/repositories/txnrepo"
	"github.com/moonrisegoods/nps/internal/server"
	"github.com/moonrisegoods/nps/internal/server/websocket"
	"github.com/moonrisegoods/nps/pkg/config"
	"github.com/moonrisegoods/nps/pkg/logger"
	"github.com/moonrisegoods/nps/pkg/nanoamount"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithConfig(cfg.Logger)

	if cfg.Nano.ReceivingAddress == "" {
		log.Warn().Msg("No receiving address configured, crypto checkout is disabled")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	sessionRepo := sessionrepo.New(db, log)
	txnRepo := txnrepo.New(db, log)
	catalogRepo := catalogrepo.New(db, log)

	nanoClient := rpc.NewNanoClient(&cfg.Nano, log)
	priceClient := clients.NewPriceOracleClient(&cfg.PriceOracle, log)

	wsHub := websocket.NewWsHub(log)
	go wsHub.Run()

	paymentService := paymentservice.New(
		sessionRepo,
		txnRepo,
		catalogRepo,
		nanoClient,
		priceClient,
		cfg.Nano,
		cfg.Payment,
		nanoamount.NewEncoder(),
		log,
		wsHub,
	)

	srv := server.New(cfg, paymentService, log, wsHub)
	srv.Start()
}
