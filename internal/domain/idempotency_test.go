package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestIdempotency_Migration_UniqueKeyPerScope(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_user_scope_key") {
		t.Fatalf("expected composite index ux_user_scope_key to exist")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID: "id-1", UserID: 1, Scope: "reminder", Key: "k1",
		ResourceID: 7, Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.UserID != 1 || got.Scope != "reminder" || got.ResourceID != 7 || got.Status != 201 {
		t.Fatalf("unexpected row: %+v", got)
	}

	dup := &Idempotency{
		ID: "id-2", UserID: 1, Scope: "reminder", Key: "k1",
		ResourceID: 8, Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, scope, key)")
	}

	// Same key in another scope is a different operation.
	other := &Idempotency{
		ID: "id-3", UserID: 1, Scope: "medication", Key: "k1",
		ResourceID: 9, Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("insert other scope: %v", err)
	}
}
