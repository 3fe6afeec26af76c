package database

import (
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New creates a GORM database connection and brings the schema up to date.
// When databaseURL is provided PostgreSQL is used, otherwise SQLite at sqlitePath.
func New(databaseURL, sqlitePath string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := Open(databaseURL, sqlitePath)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logBackend(db, sqlitePath, log)
	return db, nil
}

// Open connects without running migrations.
func Open(databaseURL, sqlitePath string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	if databaseURL != "" {
		return gorm.Open(postgres.Open(databaseURL), gormConfig)
	}
	if sqlitePath == "" {
		sqlitePath = "notes.db"
	}
	return gorm.Open(sqlite.Open(sqlitePath), gormConfig)
}

func logBackend(db *gorm.DB, sqlitePath string, log zerolog.Logger) {
	dialector := db.Dialector.Name()
	switch strings.ToLower(dialector) {
	case "postgres":
		log.Info().Msg("database: connected to PostgreSQL")
	case "sqlite":
		log.Info().Str("path", sqlitePath).Msg("database: using SQLite")
	default:
		log.Info().Str("dialector", dialector).Msg("database: connected")
	}
}
