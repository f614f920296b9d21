package database

import (
	"os"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	// Create a temporary database file
	tmpFile := "test_database.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestInitialize(t *testing.T) {
	tmpFile := "test_init.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// Verify tables were created
	tables := []string{
		"push_subscriptions",
		"guard_checks",
	}

	for _, table := range tables {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		err := db.QueryRow(query, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestInitialize_Indexes(t *testing.T) {
	tmpFile := "test_indexes.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	var name string
	query := "SELECT name FROM sqlite_master WHERE type='index' AND name=?"
	err = db.QueryRow(query, "idx_guard_checks_service").Scan(&name)
	if err != nil {
		t.Errorf("Index idx_guard_checks_service was not created: %v", err)
	}
}

func TestSubscriptionUpsert(t *testing.T) {
	tmpFile := "test_upsert.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// Endpoint is the natural key; a second insert must update in place
	insert := `INSERT INTO push_subscriptions (endpoint, p256dh, auth, user_agent)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth, user_agent = excluded.user_agent`

	if _, err := db.Exec(insert, "https://push.example/ep1", "key-a", "auth-a", "ua"); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if _, err := db.Exec(insert, "https://push.example/ep1", "key-b", "auth-b", "ua"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM push_subscriptions").Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 subscription after upsert, got %d", count)
	}

	var p256dh string
	if err := db.QueryRow("SELECT p256dh FROM push_subscriptions WHERE endpoint = ?", "https://push.example/ep1").Scan(&p256dh); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if p256dh != "key-b" {
		t.Errorf("Expected upserted key key-b, got %s", p256dh)
	}
}

func TestGuardCheckInsert(t *testing.T) {
	tmpFile := "test_guard.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO guard_checks (service_name, service_url, status, response_ms, error, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"memory-store", "https://example.test", "healthy", 120, "", time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var status string
	if err := db.QueryRow("SELECT status FROM guard_checks WHERE service_name = ?", "memory-store").Scan(&status); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if status != "healthy" {
		t.Errorf("Expected status healthy, got %s", status)
	}
}
