package main

import (
	"log"

	"civic-assistant-be/internal/config"
	"civic-assistant-be/internal/model"
	"civic-assistant-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 1. Extensions (AutoMigrate does not create them)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		`CREATE EXTENSION IF NOT EXISTS pg_trgm;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 2. Tables
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		// Legislature
		&model.Member{},
		&model.Committee{},
		&model.Bill{},
		&model.BillSponsor{},
		&model.BillChunk{},
		// Civic datasets
		&model.BudgetItem{},
		&model.Contract{},
		&model.LobbyingFiling{},
		// Conversations
		&model.ChatSession{},
		&model.ChatMessage{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 3. Indexes GORM tags cannot express
	log.Println("Step 3: Creating search indexes...")

	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_bill_chunks_embedding ON bill_chunks
		 USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
		`CREATE INDEX IF NOT EXISTS idx_bills_title_trgm ON bills USING gin (title gin_trgm_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_members_name_trgm ON members USING gin (name gin_trgm_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session_created ON chat_messages (chat_session_id, created_at);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
