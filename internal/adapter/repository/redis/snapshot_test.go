package redis

import (
	"context"
	"testing"
	"time"
)

func TestSnapshotStoreSaveAndLoad(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewSnapshotStore(client)
	ctx := context.Background()

	sweptAt := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	snapshot := &DelinquencySnapshot{
		SweptAt: sweptAt,
		LoanIDs: []string{"loan-1", "loan-2"},
	}

	if err := store.Save(ctx, snapshot, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, sweptAt)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded == nil || len(loaded.LoanIDs) != 2 || loaded.LoanIDs[0] != "loan-1" {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}
}

func TestSnapshotStoreLoadMissingDay(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewSnapshotStore(client)

	loaded, err := store.Load(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded != nil {
		t.Fatalf("expected nil snapshot for missing day, got %+v", loaded)
	}
}
