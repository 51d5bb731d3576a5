package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cataloguebot/whatsapp-gate/internal/models"
)

// Config is the PostgreSQL connection. INSTANCE_CONNECTION_NAME switches to
// the Cloud SQL unix socket.
type Config struct {
	User                   string        `env:"DB_USER" envDefault:"postgres"`
	Password               string        `env:"DB_PASS"`
	Name                   string        `env:"DB_NAME" envDefault:"catalogue"`
	Host                   string        `env:"DB_HOST" envDefault:"localhost"`
	Port                   int           `env:"DB_PORT" envDefault:"5432"`
	SSLMode                string        `env:"DB_SSLMODE" envDefault:"disable"`
	InstanceConnectionName string        `env:"INSTANCE_CONNECTION_NAME"`
	MaxOpenConns           int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime        time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// For Cloud Run with Cloud SQL
const socketDir = "/cloudsql"

// DSN builds the libpq connection string.
func (c Config) DSN() string {
	if c.InstanceConnectionName != "" {
		return fmt.Sprintf("host=%s/%s user=%s password=%s dbname=%s sslmode=disable",
			socketDir, c.InstanceConnectionName, c.User, c.Password, c.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// Connect opens the database and applies the pool settings.
func Connect(cfg Config, log *slog.Logger) (*gorm.DB, error) {
	if cfg.InstanceConnectionName != "" {
		log.Info("connecting to Cloud SQL via socket", slog.String("instance", cfg.InstanceConnectionName))
	} else {
		log.Info("connecting to PostgreSQL", slog.String("host", cfg.Host), slog.Int("port", cfg.Port))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Migrate creates or updates the tables this service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.WhatsAppSession{}, &models.Product{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
