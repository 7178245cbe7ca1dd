package db

import (
	"fmt"
	"strings"

	glebarez "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	TypeSQLite    = "sqlite"
	TypeSQLiteCGO = "sqlite-cgo"
	TypePostgres  = "postgres"
	TypeMySQL     = "mysql"
)

// Dialect picks the gorm driver. The desk default is the pure Go sqlite
// driver so a single binary runs without cgo.
func Dialect(cfg Config) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case TypeMySQL:
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
		)), nil
	case TypePostgres:
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	case TypeSQLite, "":
		return glebarez.Open(sqlitePath(cfg.Path)), nil
	case TypeSQLiteCGO:
		return sqlite.Open(sqlitePath(cfg.Path)), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.Type)
	}
}

func sqlitePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "cyberdesk.db"
	}
	return path
}
