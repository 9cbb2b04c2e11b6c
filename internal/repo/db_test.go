package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/pill-mate/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	// The parent directory check fails before the driver is involved.
	if !os.IsNotExist(err) {
		t.Fatalf("want a not-exist error, got %v", err)
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	// Every pooled connection gets the DSN pragmas.
	for _, tc := range []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	} {
		var got string
		if err := db.Raw("PRAGMA " + tc.pragma).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", tc.pragma, err)
		}
		if strings.ToLower(got) != tc.want {
			t.Fatalf("PRAGMA %s = %q, want %q", tc.pragma, got, tc.want)
		}
	}

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.User{}, &domain.UserHelp{}, &domain.Medication{}, &domain.Reminder{}, &domain.Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Quick insert round-trip to prove schema is usable.
	user := &domain.User{HomeAssistantUserID: "0123456789abcdef0123456789abcdef", Role: domain.RoleHelped}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	med := &domain.Medication{Name: "Doliprane", Quantity: 10, Unit: domain.UnitTablet, UserID: user.ID}
	if err := db.Create(med).Error; err != nil {
		t.Fatalf("insert medication: %v", err)
	}
	rem := &domain.Reminder{Time: "08:00", Frequency: 1, Quantity: 1, NextDate: "2025-03-15", MedicationID: med.ID, UserID: user.ID}
	if err := db.Create(rem).Error; err != nil {
		t.Fatalf("insert reminder: %v", err)
	}

	// Foreign keys are enforced on pooled connections.
	orphan := &domain.Reminder{Time: "08:00", Frequency: 1, Quantity: 1, NextDate: "2025-03-15", MedicationID: 999, UserID: user.ID}
	if err := db.Create(orphan).Error; err == nil {
		t.Fatalf("expected foreign key violation for unknown medication")
	}

	var got domain.Reminder
	if err := db.First(&got, rem.ID).Error; err != nil || got.NextDate != "2025-03-15" {
		t.Fatalf("readback reminder failed: err=%v got=%+v", err, got)
	}
}

func TestDSN_AppendsPragmas(t *testing.T) {
	got := dsn("app.db")
	if !strings.HasPrefix(got, "app.db?_pragma=journal_mode(WAL)&") {
		t.Fatalf("unexpected dsn %q", got)
	}
	got = dsn("file:x?mode=memory")
	if !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Fatalf("unexpected dsn %q", got)
	}
}
