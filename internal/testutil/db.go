// Package testutil opens throwaway SQLite-backed stores for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/kargoline/tmsgo/internal/database"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/store"
)

// OpenStore opens a migrated store on a fresh SQLite database under the
// test's temp dir. The database is torn down with the test.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "tms_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	err = db.AutoMigrate(
		&models.Customer{},
		&models.Driver{},
		&models.Vehicle{},
		&models.JobOrder{},
		&models.Manifest{},
		&models.ManifestJobOrder{},
		&models.DeliveryOrder{},
		&models.Invoice{},
		&models.Assignment{},
		&models.StatusHistory{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return store.New(db)
}
