package database

import (
	"database/sql"

	"github.com/charmbracelet/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path  string // Path to SQLite database file
	Debug bool   // Log every SQL statement
}

// DB wraps the GORM database instance
type DB struct {
	db *gorm.DB
}

// NewDB opens the frame capture database with the pure Go SQLite driver
func NewDB(config Config, log *log.Logger) (*DB, error) {
	var gormLog logger.Interface
	if log != nil {
		level := logger.Warn
		if config.Debug {
			level = logger.Info
		}
		gormLog = logger.New(
			log.StandardLog(),
			logger.Config{
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	dialector := sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        config.Path,
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := configureSQLite(sqlDB); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&FrameRecord{}); err != nil {
		return nil, err
	}

	if log != nil {
		log.Debug("capture database ready", "path", config.Path)
	}

	return &DB{db: db}, nil
}

func configureSQLite(sqlDB *sql.DB) error {
	pragmaSettings := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=memory",
	}

	for _, pragma := range pragmaSettings {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}

	return nil
}

// GetDB returns the underlying GORM database instance
func (db *DB) GetDB() *gorm.DB {
	return db.db
}

// Frames returns a repository over the captured frames
func (db *DB) Frames() *FrameRepository {
	return NewFrameRepository(db.db)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database connection is healthy
func (db *DB) Health() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
