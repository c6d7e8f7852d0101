package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/calaisgraph/internal/platform/envutil"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

// Open connects to the backend named by DB_DRIVER (postgres or sqlite).
func Open(logg *logger.Logger) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(envutil.String("DB_DRIVER", "sqlite")))
	switch driver {
	case "postgres", "postgresql":
		svc, err := NewPostgresService(logg)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	case "sqlite", "sqlite3", "":
		svc, err := NewSQLiteService(logg)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}
