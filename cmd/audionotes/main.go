package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/VasiKumar/ClassAI/internal/clients/gcp"
	"github.com/VasiKumar/ClassAI/internal/notes"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
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

	if err := run(log); err != nil {
		log.Error("Notes pipeline failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	fs := flag.NewFlagSet("audionotes", flag.ContinueOnError)
	spool := fs.String("spool", utils.GetEnv("AUDIO_SPOOL_DIR", "audio_chunks", log), "directory the recorder drops WAV chunks into")
	out := fs.String("out", utils.GetEnv("NOTES_OUT_DIR", ".", log), "directory the notes document is written to")
	session := fs.String("session", utils.GetEnv("MONITOR_SESSION_ID", "", log), "session id the notes belong to")
	stopFile := fs.String("stop-file", utils.GetEnv("NOTES_STOP_FILE", "notes_stop.signal", log), "sentinel file that ends the pipeline")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *session == "" {
		*session = uuid.NewString()
	}

	trans, err := gcp.NewTranscriber(log)
	if err != nil {
		return err
	}
	defer trans.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline := notes.NewPipeline(notes.Options{
		SpoolDir:  *spool,
		OutDir:    *out,
		SessionID: *session,
		StopFile:  *stopFile,
	}, trans, log)

	path, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	log.Info("Notes pipeline finished", "path", path)
	return nil
}
