package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var DB *sql.DB

func Connect() error {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "3306")
	user := getEnv("DB_USER", "finviz")
	password := getEnv("DB_PASSWORD", "finviz")
	dbname := getEnv("DB_NAME", "finviz")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, password, host, port, dbname)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		err = DB.Ping()
		if err == nil {
			log.Println("Connected to MySQL database")
			return nil
		}
		log.Printf("Waiting for database... (%d/30)\n", i+1)
		time.Sleep(time.Second)
	}

	return fmt.Errorf("failed to connect to database after 30 attempts: %w", err)
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}

func RunMigrations() error {
	migrations := []string{
		// Users table for multi-tenancy (clients and advisors)
		`CREATE TABLE IF NOT EXISTS users (
			id INT PRIMARY KEY AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'client',
			created_by_advisor_id INT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (created_by_advisor_id) REFERENCES users(id) ON DELETE SET NULL
		)`,
		// Advisor-client relationships
		`CREATE TABLE IF NOT EXISTS advisor_clients (
			id INT PRIMARY KEY AUTO_INCREMENT,
			advisor_id INT NOT NULL,
			client_id INT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			access_level VARCHAR(20) NOT NULL DEFAULT 'full',
			invitation_token VARCHAR(255),
			invitation_expires_at TIMESTAMP NULL,
			accepted_at TIMESTAMP NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_advisor_client (advisor_id, client_id),
			FOREIGN KEY (advisor_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (client_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		// Saved projection runs: one row per entry-point invocation a
		// client or advisor chose to keep. params/results hold the raw
		// JSON of whichever models.*Input/*Result shape `kind` names.
		`CREATE TABLE IF NOT EXISTS simulation_history (
			id INT PRIMARY KEY AUTO_INCREMENT,
			user_id INT NOT NULL,
			run_by_user_id INT NOT NULL,
			kind VARCHAR(30) NOT NULL,
			name VARCHAR(255),
			notes TEXT,
			params JSON NOT NULL,
			results JSON NOT NULL,
			final_p50 DECIMAL(15,2) NOT NULL DEFAULT 0,
			time_horizon_years INT NOT NULL DEFAULT 0,
			is_favorite BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (run_by_user_id) REFERENCES users(id) ON DELETE CASCADE,
			INDEX idx_user_created (user_id, created_at)
		)`,
	}

	for _, migration := range migrations {
		_, err := DB.Exec(migration)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("Database migrations completed")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
