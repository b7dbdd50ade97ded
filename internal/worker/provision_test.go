package worker

import (
	"context"
	"os"
	"testing"
)

func TestCreateDatabase_ProvisionsInstance(t *testing.T) {
	dir := t.TempDir()
	p := NewProvisioner(dir, testSchema, discardLogger())
	ctx := context.Background()

	if err := p.CreateDatabase(ctx, "w1"); err != nil {
		t.Fatalf("CreateDatabase() failed: %v", err)
	}

	if _, err := os.Stat(DatabasePath(dir, "w1")); os.IsNotExist(err) {
		t.Error("worker database file was not created")
	}
	if err := p.IsHealthy(ctx, "w1"); err != nil {
		t.Errorf("IsHealthy() failed after provisioning: %v", err)
	}
}

func TestCreateDatabase_IdempotentAtBoot(t *testing.T) {
	dir := t.TempDir()
	p := NewProvisioner(dir, testSchema, discardLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := p.CreateDatabase(ctx, "w1"); err != nil {
			t.Fatalf("CreateDatabase() call %d failed: %v", i+1, err)
		}
	}
	if err := p.IsHealthy(ctx, "w1"); err != nil {
		t.Errorf("IsHealthy() failed: %v", err)
	}
}

func TestCreateDatabase_ReprovisionDropsRows(t *testing.T) {
	reg, dir := newTestRegistry(t, "w1")
	ctx := context.Background()

	w, err := reg.GetOrCreateClient("w1")
	if err != nil {
		t.Fatalf("GetOrCreateClient() failed: %v", err)
	}
	if _, err := w.Client.Insert(ctx, "lesson_plans", map[string]any{"title": "Alpha"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	reg.DisconnectAll()

	p := NewProvisioner(dir, testSchema, discardLogger())
	if err := p.CreateDatabase(ctx, "w1"); err != nil {
		t.Fatalf("re-provision failed: %v", err)
	}

	w, err = reg.GetOrCreateClient("w1")
	if err != nil {
		t.Fatalf("GetOrCreateClient() failed: %v", err)
	}
	count, err := w.Client.Count(ctx, "lesson_plans")
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("lesson_plans has %d rows after re-provision, want 0", count)
	}
}

func TestCreateDatabase_BadSchema(t *testing.T) {
	p := NewProvisioner(t.TempDir(), "CREATE GIBBERISH", discardLogger())

	err := p.CreateDatabase(context.Background(), "w1")
	if err == nil {
		t.Fatal("expected provisioning error for bad schema, got nil")
	}
	if !IsProvisioningError(err) {
		t.Errorf("expected provisioning classification, got: %v", err)
	}
}

func TestIsHealthy_MissingSchema(t *testing.T) {
	dir := t.TempDir()
	// Bookkeeping-only schema provisions an instance with no user tables.
	p := NewProvisioner(dir, "CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)", discardLogger())
	ctx := context.Background()

	if err := p.CreateDatabase(ctx, "w1"); err != nil {
		t.Fatalf("CreateDatabase() failed: %v", err)
	}
	err := p.IsHealthy(ctx, "w1")
	if err == nil {
		t.Fatal("expected health check failure for schemaless instance")
	}
	if !IsProvisioningError(err) {
		t.Errorf("expected provisioning classification, got: %v", err)
	}
}
