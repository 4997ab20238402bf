// store_test.go provides the shared database helpers for the store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"unseenindonesia/internal/database"
	"unseenindonesia/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "unseen")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "unseen")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
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

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testProfile inserts a throwaway profile and removes it after the test.
func testProfile(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	username := "tester-" + id.String()[:8]
	if _, err := NewProfileStore(db).EnsureExists(context.Background(), &models.Profile{ID: id, Username: &username}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM profiles WHERE id = $1", id) })
	return id
}

// testRemedyCategory inserts a uniquely named remedy category.
func testRemedyCategory(t *testing.T, db *sql.DB) *models.RemedyCategory {
	t.Helper()
	c, err := NewCategoryStore(db).Create(context.Background(), &models.RemedyCategory{
		Name: "Kategori " + uuid.NewString()[:8],
		Icon: "leaf",
	})
	if err != nil {
		t.Fatalf("create remedy category: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM remedy_categories WHERE id = $1", c.ID) })
	return c
}

// testStoryCategory inserts a uniquely named story category.
func testStoryCategory(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.QueryRow(`INSERT INTO categories (name, icon) VALUES ($1, 'book') RETURNING id`,
		"Cerita "+uuid.NewString()[:8]).Scan(&id)
	if err != nil {
		t.Fatalf("create story category: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM categories WHERE id = $1", id) })
	return id
}

// cleanRemedy removes a remedy and every child row. Registered cleanups
// run last-in first-out, so this runs before its category and author go.
func cleanRemedy(t *testing.T, db *sql.DB, id uuid.UUID) {
	t.Helper()
	t.Cleanup(func() {
		for _, table := range []string{
			"remedy_verifications", "remedy_testimonials", "remedy_images",
			"remedy_benefits", "remedy_steps", "remedy_ingredients",
		} {
			db.Exec("DELETE FROM "+table+" WHERE remedy_id = $1", id)
		}
		db.Exec("DELETE FROM remedies WHERE id = $1", id)
	})
}

// cleanStory removes a story and every child row.
func cleanStory(t *testing.T, db *sql.DB, id uuid.UUID) {
	t.Helper()
	t.Cleanup(func() {
		for _, table := range []string{"verifications", "story_sources", "story_images"} {
			db.Exec("DELETE FROM "+table+" WHERE story_id = $1", id)
		}
		db.Exec("DELETE FROM stories WHERE id = $1", id)
	})
}

func strPtr(s string) *string { return &s }
