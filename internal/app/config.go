package app

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/utils"
)

// Config is the full session configuration, constructed once at startup and
// injected everywhere. Precedence: CLI flags > config file > env defaults.
type Config struct {
	PhotosPath      string
	DurationSec     int
	ThresholdPct    int
	MobileDetection bool
	CameraIndex     int
	StopFile        string
	ReportDir       string
	StorePath       string
	SessionID       string
	Headless        bool
	ConfigFile      string
}

// FileConfig mirrors monitor_config.yaml written by the dashboard before it
// launches a session. All fields are optional.
type FileConfig struct {
	Duration              *int    `yaml:"duration"`
	Threshold             *int    `yaml:"threshold"`
	EnableMobileDetection *bool   `yaml:"enable_mobile_detection"`
	Photos                *string `yaml:"photos"`
	Camera                *int    `yaml:"camera"`
	SessionID             *string `yaml:"session_id"`
}

const (
	DefaultStopFile   = "monitor_stop.signal"
	DefaultConfigFile = "monitor_config.yaml"
)

// Load parses args (without the program name) against env-sourced defaults
// and an optional config file. A missing config file is not an error.
func Load(args []string, log *logger.Logger) (Config, error) {
	cfg := Config{
		PhotosPath:      utils.GetEnv("STUDENT_PHOTOS_PATH", "sample_student_photos", log),
		DurationSec:     utils.GetEnvAsInt("MONITOR_DURATION", 300, log),
		ThresholdPct:    utils.GetEnvAsInt("FOCUS_THRESHOLD", 50, log),
		MobileDetection: utils.GetEnvAsBool("ENABLE_MOBILE_DETECTION", false, log),
		CameraIndex:     utils.GetEnvAsInt("CAMERA_INDEX", 0, log),
		StopFile:        utils.GetEnv("MONITOR_STOP_FILE", DefaultStopFile, log),
		ReportDir:       utils.GetEnv("REPORT_DIR", ".", log),
		StorePath:       utils.GetEnv("REPORT_STORE", "reports.db", log),
	}

	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	photos := fs.String("photos", cfg.PhotosPath, "path to student photo zips (directory or single zip)")
	duration := fs.Int("duration", cfg.DurationSec, "monitoring duration in seconds")
	threshold := fs.Int("threshold", cfg.ThresholdPct, "focus threshold percentage (0-100)")
	mobile := fs.Bool("enable-mobile-detection", cfg.MobileDetection, "enable mobile phone detection")
	camera := fs.Int("camera", cfg.CameraIndex, "camera device index")
	headless := fs.Bool("headless", false, "run without the live display window")
	configFile := fs.String("config", DefaultConfigFile, "session config file path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Headless = *headless
	cfg.ConfigFile = *configFile

	// File values apply first so explicitly set flags can override them.
	fc, err := readFileConfig(*configFile)
	if err != nil {
		return Config{}, err
	}
	if fc != nil {
		if log != nil {
			log.Info("Loaded session config file", "path", *configFile)
		}
		if fc.Duration != nil {
			cfg.DurationSec = *fc.Duration
		}
		if fc.Threshold != nil {
			cfg.ThresholdPct = *fc.Threshold
		}
		if fc.EnableMobileDetection != nil {
			cfg.MobileDetection = *fc.EnableMobileDetection
		}
		if fc.Photos != nil {
			cfg.PhotosPath = *fc.Photos
		}
		if fc.Camera != nil {
			cfg.CameraIndex = *fc.Camera
		}
		if fc.SessionID != nil {
			cfg.SessionID = *fc.SessionID
		}
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["photos"] {
		cfg.PhotosPath = *photos
	}
	if set["duration"] {
		cfg.DurationSec = *duration
	}
	if set["threshold"] {
		cfg.ThresholdPct = *threshold
	}
	if set["enable-mobile-detection"] {
		cfg.MobileDetection = *mobile
	}
	if set["camera"] {
		cfg.CameraIndex = *camera
	}

	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.DurationSec <= 0 {
		return Config{}, fmt.Errorf("duration must be positive, got %d", cfg.DurationSec)
	}
	if cfg.ThresholdPct < 0 || cfg.ThresholdPct > 100 {
		return Config{}, fmt.Errorf("threshold must be within 0-100, got %d", cfg.ThresholdPct)
	}
	return cfg, nil
}

// WriteFileConfig persists a FileConfig for a monitor process to pick up.
// Used by the dashboard before spawning a session.
func WriteFileConfig(path string, fc FileConfig) error {
	b, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func readFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}
