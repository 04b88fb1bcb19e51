package store

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quill-server-go/internal/platform/storage"
)

func newTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:cred-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&storage.RefreshCredential{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestSQLiteStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLite(newTestSQLiteDB(t))
	if err != nil {
		t.Fatalf("NewSQLite error: %v", err)
	}
	return s
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	exerciseLifecycle(t, newTestSQLiteStore(t))
}

func TestSQLiteStoreReplace(t *testing.T) {
	exerciseReplace(t, newTestSQLiteStore(t))
}

func TestSQLiteStoreSweep(t *testing.T) {
	exerciseSweep(t, newTestSQLiteStore(t))
}

func TestNewSQLiteRequiresHandle(t *testing.T) {
	if _, err := NewSQLite(nil); err == nil {
		t.Fatal("expected error for nil database handle")
	}
}
