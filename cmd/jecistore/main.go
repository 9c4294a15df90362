package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"jecistore/internal/config"
	"jecistore/internal/http/handlers"
	applog "jecistore/internal/log"
	"jecistore/internal/repos"
)

func main() {
	cfg := config.Load()

	logger, err := applog.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	applog.SetDefault(logger)

	db, err := repos.OpenDB(cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("db.open", zap.Error(err))
	}
	defer db.Close()

	app := handlers.NewApp(db, cfg, logger)
	logger.Info("server.start", zap.String("port", cfg.Port), zap.String("db", cfg.DBDSN))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server.stop", zap.Error(err))
	}
}
