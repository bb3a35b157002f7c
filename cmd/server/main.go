package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet/internal/cache"
	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/handlers"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	if cfg.AppEnv == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	deposits := store.NewDepositStore(database)
	withdrawals := store.NewWithdrawalStore(database)
	transactions := store.NewTransactionStore(database)
	activity := store.NewActivityStore(database)
	txRunner := db.NewTxRunner(database)
	walletCache := cache.NewWalletCache(rdb, cfg.WalletCacheTTL)
	hub := websocket.NewHub()

	approvals := services.NewApprovalService(txRunner, deposits, withdrawals, wallets, transactions, activity, walletCache, hub)
	transfers := services.NewTransferService(txRunner, wallets, transactions, activity, walletCache, hub)
	userService := services.NewUserService(txRunner, users, activity)

	handler := handlers.New(database, txRunner, cfg, users, wallets, deposits, withdrawals, transactions, activity, approvals, transfers, userService, walletCache, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("wallet API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("shutdown error")
	}
}
