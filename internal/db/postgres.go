package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
	"github.com/moneybadgers/walkthrough-backend/internal/utils"
)

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService opens the configured database. DB_DRIVER selects
// postgres (default) or sqlite; callers fall back to in-memory storage
// when the connection fails.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))
	switch driver {
	case "postgres":
		return newPostgres(log, serviceLog)
	case "sqlite":
		return newSQLite(log, serviceLog)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func newPostgres(log, serviceLog *logger.Logger) (*DatabaseService, error) {
	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "walkthrough", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &DatabaseService{db: db, log: serviceLog}, nil
}

func newSQLite(log, serviceLog *logger.Logger) (*DatabaseService, error) {
	path := utils.GetEnv("SQLITE_PATH", "./app.db", log)

	log.Info("Opening SQLite database...", "path", path)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Error("Failed to open SQLite database", "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &DatabaseService{db: db, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.CatalogItem{},
		&types.LeaderboardEntry{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

// SeedCatalog upserts the catalog so the items table always mirrors the
// configured product list.
func (s *DatabaseService) SeedCatalog(cat *catalog.Catalog) error {
	for _, item := range cat.Items() {
		row := types.CatalogItem{ID: item.ID, Name: item.Name, Price: item.Price}
		if err := s.db.Save(&row).Error; err != nil {
			s.log.Error("Failed to seed catalog item", "item_id", item.ID, "error", err)
			return err
		}
	}
	s.log.Info("Catalog seeded", "items", cat.Size())
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
