package handlers

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VasiKumar/ClassAI/internal/app"
	pkgerrors "github.com/VasiKumar/ClassAI/internal/pkg/errors"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

// SessionHandler launches and stops monitor sessions on behalf of the
// dashboard. The monitor runs as a separate process; start writes the
// config file it reads, stop drops the sentinel file it polls for. At most
// one session runs at a time.
type SessionHandler struct {
	monitorBin string
	configFile string
	stopFile   string
	log        *logger.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	sessionID string
	startedAt time.Time
}

func NewSessionHandler(monitorBin, configFile, stopFile string, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		monitorBin: monitorBin,
		configFile: configFile,
		stopFile:   stopFile,
		log:        log.With("service", "SessionHandler"),
	}
}

type startSessionRequest struct {
	Duration              *int    `json:"duration"`
	Threshold             *int    `json:"threshold"`
	EnableMobileDetection *bool   `json:"enable_mobile_detection"`
	Photos                *string `json:"photos"`
	Camera                *int    `json:"camera"`
}

func (sh *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.running() {
		RespondError(c, http.StatusConflict, "session_already_running",
			fmt.Errorf("session %s is already running", sh.sessionID))
		return
	}

	sessionID := uuid.NewString()
	fc := app.FileConfig{
		Duration:              req.Duration,
		Threshold:             req.Threshold,
		EnableMobileDetection: req.EnableMobileDetection,
		Photos:                req.Photos,
		Camera:                req.Camera,
		SessionID:             &sessionID,
	}
	if err := app.WriteFileConfig(sh.configFile, fc); err != nil {
		RespondError(c, http.StatusInternalServerError, "config_write_failed", err)
		return
	}

	cmd := exec.Command(sh.monitorBin, "-config", sh.configFile, "-headless")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		RespondError(c, http.StatusInternalServerError, "session_start_failed", err)
		return
	}
	sh.cmd = cmd
	sh.sessionID = sessionID
	sh.startedAt = time.Now()
	sh.log.Info("Monitor session started", "session_id", sessionID, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		sh.mu.Lock()
		sh.cmd = nil
		sh.mu.Unlock()
		if err != nil {
			sh.log.Warn("Monitor session exited with error", "session_id", sessionID, "error", err)
			return
		}
		sh.log.Info("Monitor session finished", "session_id", sessionID)
	}()

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"pid":        cmd.Process.Pid,
	})
}

func (sh *SessionHandler) Stop(c *gin.Context) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if !sh.running() {
		RespondError(c, http.StatusConflict, "session_not_running", pkgerrors.ErrSessionNotRunning)
		return
	}

	f, err := os.Create(sh.stopFile)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "session_stop_failed", err)
		return
	}
	_ = f.Close()
	sh.log.Info("Stop requested", "session_id", sh.sessionID, "stop_file", sh.stopFile)
	RespondOK(c, gin.H{"stopping": sh.sessionID})
}

func (sh *SessionHandler) Status(c *gin.Context) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if !sh.running() {
		RespondOK(c, gin.H{"running": false})
		return
	}
	RespondOK(c, gin.H{
		"running":    true,
		"session_id": sh.sessionID,
		"started_at": sh.startedAt.Format(time.RFC3339),
		"elapsed":    int(time.Since(sh.startedAt).Seconds()),
	})
}

// running must be called with mu held.
func (sh *SessionHandler) running() bool {
	return sh.cmd != nil && sh.cmd.Process != nil
}
