package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	pkgerrors "github.com/VasiKumar/ClassAI/internal/pkg/errors"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

// SessionRow is the report index record the dashboard lists sessions from.
// The per-student payload is kept as a JSON document; the filterable
// session attributes get their own columns.
type SessionRow struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID       string         `gorm:"index" json:"session_id"`
	FileName        string         `gorm:"uniqueIndex;not null" json:"file_name"`
	GeneratedAt     time.Time      `gorm:"index" json:"generated_at"`
	Duration        int            `json:"duration"`
	Threshold       int            `json:"threshold"`
	MobileDetection bool           `json:"mobile_detection"`
	Students        datatypes.JSON `json:"students"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (SessionRow) TableName() string { return "session_report" }

// Store is the sqlite-backed session index.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStore(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	slog := log.With("service", "ReportStore")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open report store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate report store: %w", err)
	}
	return &Store{db: db, log: slog}, nil
}

func (s *Store) Save(rep *Report, fileName string) error {
	students, err := json.Marshal(rep.Students)
	if err != nil {
		return fmt.Errorf("marshal students: %w", err)
	}
	generatedAt, err := time.Parse(time.RFC3339, rep.Timestamp)
	if err != nil {
		generatedAt = time.Now()
	}
	row := SessionRow{
		ID:              uuid.New(),
		SessionID:       rep.SessionID,
		FileName:        fileName,
		GeneratedAt:     generatedAt,
		Duration:        rep.Duration,
		Threshold:       rep.Threshold,
		MobileDetection: rep.MobileDetectionEnabled,
		Students:        datatypes.JSON(students),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert session row: %w", err)
	}
	return nil
}

// List returns the most recent sessions, newest first.
func (s *Store) List(limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []SessionRow
	if err := s.db.Order("generated_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return rows, nil
}

func (s *Store) GetByName(fileName string) (*SessionRow, error) {
	var row SessionRow
	err := s.db.Where("file_name = ?", fileName).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", fileName, err)
	}
	return &row, nil
}

func (s *Store) DeleteByName(fileName string) error {
	if err := s.db.Where("file_name = ?", fileName).Delete(&SessionRow{}).Error; err != nil {
		return fmt.Errorf("delete session %s: %w", fileName, err)
	}
	return nil
}
