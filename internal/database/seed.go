package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"astrodesk/internal/models"
)

const (
	seedAdminEmail    = "admin@astrodesk.local"
	seedAdminPassword = "admin"
)

// Seed inserts the development admin account. Safe to run on every start:
// once any user exists it does nothing.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO users (email, password_hash, display_name, role) VALUES ($1, $2, $3, $4)`,
		seedAdminEmail, string(hash), "Admin", models.RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user", "email", seedAdminEmail)
	return nil
}
