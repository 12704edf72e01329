package main

import (
	"fmt"
	"os"

	"github.com/VasiKumar/ClassAI/internal/app"
	"github.com/VasiKumar/ClassAI/internal/handlers"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/report"
	"github.com/VasiKumar/ClassAI/internal/server"
	"github.com/VasiKumar/ClassAI/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	port := utils.GetEnv("DASHBOARD_PORT", "8080", log)
	monitorBin := utils.GetEnv("MONITOR_BIN", "./monitor", log)
	configFile := utils.GetEnv("MONITOR_CONFIG_FILE", app.DefaultConfigFile, log)
	stopFile := utils.GetEnv("MONITOR_STOP_FILE", app.DefaultStopFile, log)
	storePath := utils.GetEnv("REPORT_STORE", "reports.db", log)

	// Store
	store, err := report.NewStore(storePath, log)
	if err != nil {
		log.Fatal("Report store init failed", "path", storePath, "error", err)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	reportHandler := handlers.NewReportHandler(store)
	sessionHandler := handlers.NewSessionHandler(monitorBin, configFile, stopFile, log)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ReportHandler:  reportHandler,
		SessionHandler: sessionHandler,
	})

	log.Info("Dashboard listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
