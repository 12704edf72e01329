package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VasiKumar/ClassAI/internal/analyzer"
	"github.com/VasiKumar/ClassAI/internal/app"
	"github.com/VasiKumar/ClassAI/internal/capture"
	"github.com/VasiKumar/ClassAI/internal/clients/gcp"
	"github.com/VasiKumar/ClassAI/internal/gallery"
	"github.com/VasiKumar/ClassAI/internal/monitor"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/recognize"
	"github.com/VasiKumar/ClassAI/internal/report"
	"github.com/VasiKumar/ClassAI/internal/utils"
	"github.com/VasiKumar/ClassAI/internal/vision"
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
		log.Error("Session failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	// Config
	cfg, err := app.Load(os.Args[1:], log)
	if err != nil {
		return err
	}
	log.Info("Session configured",
		"session_id", cfg.SessionID,
		"duration_s", cfg.DurationSec,
		"threshold_pct", cfg.ThresholdPct,
		"mobile_detection", cfg.MobileDetection,
	)

	cascadeDir := utils.GetEnv("CASCADE_DIR", "haarcascades", log)

	// Recognition strategy
	candidates := []recognize.Candidate{}
	if gcp.HasCredentials() {
		candidates = append(candidates, recognize.Candidate{
			Name: "cloud",
			Probe: func() (*recognize.Strategy, error) {
				faces, err := gcp.NewFaceFinder(log)
				if err != nil {
					return nil, err
				}
				eyes, err := capture.NewCascadeDetector(cascadeDir, log)
				if err != nil {
					faces.Close()
					return nil, err
				}
				return &recognize.Strategy{
					Name:    "cloud",
					Faces:   faces,
					Eyes:    eyes,
					Encoder: recognize.NewGridEncoder(),
				}, nil
			},
		})
	}
	candidates = append(candidates,
		recognize.Candidate{
			Name: "classical",
			Probe: func() (*recognize.Strategy, error) {
				det, err := capture.NewCascadeDetector(cascadeDir, log)
				if err != nil {
					return nil, err
				}
				return &recognize.Strategy{
					Name:    "classical",
					Faces:   det,
					Eyes:    det,
					Encoder: recognize.NewGridEncoder(),
				}, nil
			},
		},
		recognize.Candidate{
			Name: "histogram",
			Probe: func() (*recognize.Strategy, error) {
				det, err := capture.NewCascadeDetector(cascadeDir, log)
				if err != nil {
					return nil, err
				}
				return &recognize.Strategy{
					Name:    "histogram",
					Faces:   det,
					Eyes:    det,
					Encoder: recognize.NewHistogramEncoder(),
				}, nil
			},
		},
	)
	strat, err := recognize.Select(candidates, log)
	if err != nil {
		return err
	}
	defer strat.Close()

	// Phone detection
	var phones analyzer.PhoneDetector
	if cfg.MobileDetection {
		modelPath := utils.GetEnv("PHONE_MODEL", "yolov8n.onnx", log)
		dnn, err := capture.NewDNNPhoneDetector(modelPath, log)
		if err != nil {
			log.Warn("Phone model unavailable, using geometric fallback", "model", modelPath, "error", err)
			phones = analyzer.NewGeometricPhoneDetector(capture.NewCannyProposer(), log)
		} else {
			defer dnn.Close()
			phones = dnn
		}
	}

	// Report persistence
	store, err := report.NewStore(cfg.StorePath, log)
	if err != nil {
		log.Warn("Report store unavailable, reports will not be indexed", "path", cfg.StorePath, "error", err)
		store = nil
	}
	var uploader report.Uploader
	if os.Getenv("REPORT_GCS_BUCKET_NAME") != "" {
		bucket, err := gcp.NewReportBucket(log)
		if err != nil {
			log.Warn("Report bucket unavailable, reports stay local", "error", err)
		} else {
			defer bucket.Close()
			uploader = bucket
		}
	}
	writer := report.NewWriter(report.WriterConfig{
		Dir:             cfg.ReportDir,
		DurationSec:     cfg.DurationSec,
		ThresholdPct:    cfg.ThresholdPct,
		MobileDetection: cfg.MobileDetection,
		SessionID:       cfg.SessionID,
	}, store, uploader, log)

	// Session
	stats := monitor.NewStatsBook()
	annot := vision.NewAnnotator(utils.GetEnv("ANNOTATION_FONT", "", log), log)
	train := func(ctx context.Context) (monitor.FrameProcessor, error) {
		src, err := gallery.NewSource(cfg.PhotosPath)
		if err != nil {
			return nil, err
		}
		g, err := gallery.NewTrainer(strat, log).Train(ctx, src)
		if err != nil {
			return nil, err
		}
		return analyzer.New(strat, g, phones, stats, annot, log), nil
	}

	camera := capture.NewWebcam(cfg.CameraIndex, log)
	var display monitor.Display
	if !cfg.Headless {
		display = capture.NewWindow("Classroom Monitor", log)
	}

	ctrl := monitor.New(camera, display, train, stats, writer, monitor.Options{
		Duration: time.Duration(cfg.DurationSec) * time.Second,
		StopFile: cfg.StopFile,
	}, log)

	// Signals only flag the loop; the loop finishes the in-flight frame.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Termination signal received", "signal", sig.String())
		ctrl.RequestStop()
	}()

	// Safety net: whatever path run exits through, the report is emitted at
	// most once.
	defer func() {
		if _, ferr := ctrl.Finalize(); ferr != nil {
			log.Error("Final report emission failed", "error", ferr)
		}
	}()

	return ctrl.Run(context.Background())
}
