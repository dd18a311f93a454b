package orm

import (
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/sora/fundtracker/internal/infra/persistence/marketrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/runrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/taskrepo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Provider = wire.NewSet(New)

type Config struct {
	Path               string
	BusyTimeout        time.Duration
	MaxIdleConnections int
}

type Storage struct {
	db *gorm.DB
}

func New(cfg Config) (*Storage, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 单写者，所有写入经过同一个连接
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Migrate 自动迁移所有表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&taskrepo.TaskPo{},
		&runrepo.RunPo{},
		&marketrepo.QuotePo{},
		&marketrepo.HistoryBarPo{},
		&marketrepo.AnalysisPo{},
		&marketrepo.SignalPo{},
		&marketrepo.ReportPo{},
	)
}

func (s *Storage) DB() *gorm.DB {
	return s.db
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
