package db

import (
	"fmt"

	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/gorm"
)

// Migrate applies the schema and indexes for all models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Keyword{},
		&models.ScanResult{},
		&models.ChatMessage{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// ddl defines an index statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_projects_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_projects_user_id_created_at
				ON projects (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_scan_results_keyword_project",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_scan_results_keyword_project
				ON scan_results (project_id, keyword_id)
			`,
		},
		{
			name: "idx_chat_messages_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_chat_messages_user_id_created_at
				ON chat_messages (user_id, created_at DESC)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}
