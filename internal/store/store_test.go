// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"astrodesk/internal/database"
	"astrodesk/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "astrodesk")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "astrodesk")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a user for the test and removes it (with its cascaded
// subjects, charts, and interpretations) when the test finishes.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()

	email := "test-" + uuid.NewString() + "@astrodesk.local"
	u, err := NewUserStore(db).Create(email, "s3cret", "Test User", models.RoleMember)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// testSubject creates a subject owned by the given user.
func testSubject(t *testing.T, db *sql.DB, ownerID uuid.UUID) *models.Subject {
	t.Helper()

	birthTime := "08:45"
	sub, err := NewSubjectStore(db).Create(&models.Subject{
		OwnerID:   ownerID,
		Name:      "Test Subject",
		BirthDate: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
		BirthTime: &birthTime,
		Latitude:  44.43,
		Longitude: 26.10,
		Timezone:  "Europe/Bucharest",
	})
	if err != nil {
		t.Fatalf("create test subject: %v", err)
	}
	return sub
}
