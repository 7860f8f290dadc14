package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/types"
	"github.com/jobhackerbot/backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	//1) Get and Set Environment Variables
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "jobhacker", log)

	//2) Construct DSN From Environment Variables
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	//3) Attempt DB Connection
	serviceLog.Info("Connecting to Postgres...", "host", postgresHost, "dbname", postgresName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres DB", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
	}
	serviceLog.Info("Connected to Postgres")

	return &PostgresService{db: db, log: serviceLog}, nil
}

// AutoMigrateAll migrates the GORM models, then wires the cascade foreign
// keys explicitly: user deletion takes tokens, pages and messages with it,
// page deletion hard-deletes the page's messages.
func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Starting AutoMigrateAll for all GORM models now...")

	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Page{},
		&types.ChatMessage{},
	)
	if err != nil {
		s.log.Error("AutoMigrateAll failed for base tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for base tables now...")
	type fk struct {
		table, name, column, refTable, refColumn string
	}
	fks := []fk{
		{"user_tokens", "fk_user_tokens_user_id", "user_id", "users", "id"},
		{"pages", "fk_pages_user_id", "user_id", "users", "id"},
		{"chat_messages", "fk_chat_messages_user_id", "user_id", "users", "id"},
		{"chat_messages", "fk_chat_messages_page_id", "page_id", "pages", "id"},
	}
	for _, c := range fks {
		if err := s.db.Exec(fmt.Sprintf(
			`ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q`, c.table, c.name,
		)).Error; err != nil {
			return fmt.Errorf("failed to drop %s: %w", c.name, err)
		}
		if err := s.db.Exec(fmt.Sprintf(
			`ALTER TABLE %q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q (%q) ON DELETE CASCADE`,
			c.table, c.name, c.column, c.refTable, c.refColumn,
		)).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	s.log.Info("AutoMigrateAll completed successfully")

	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
