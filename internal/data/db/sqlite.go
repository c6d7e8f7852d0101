package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/calaisgraph/internal/platform/envutil"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

// SQLiteService is the single-file backend used for local runs and tests.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(logg *logger.Logger) (*SQLiteService, error) {
	return OpenSQLite(logg, envutil.String("SQLITE_PATH", "calais.db"))
}

func OpenSQLite(logg *logger.Logger, path string) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite %q: %w", path, err)
	}
	// SQLite serializes writers; one connection keeps transactions from
	// tripping over SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	serviceLog.Info("opened", "path", path)
	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }
