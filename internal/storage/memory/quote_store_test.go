package memory

import (
	"context"
	"testing"
	"time"
)

func TestQuoteStore_TTL(t *testing.T) {
	store := NewQuoteStore()
	now := time.Now().UTC()
	store.SetNow(func() time.Time { return now })

	ctx := context.Background()
	if err := store.Put(ctx, "sig-1", 15*time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.Exists(ctx, "sig-1")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v; want true", ok, err)
	}

	// После истечения TTL подпись пропадает.
	store.SetNow(func() time.Time { return now.Add(16 * time.Minute) })
	ok, err = store.Exists(ctx, "sig-1")
	if err != nil || ok {
		t.Fatalf("exists = %v, %v; want false", ok, err)
	}
}

func TestQuoteStore_MissingSignature(t *testing.T) {
	store := NewQuoteStore()
	ok, err := store.Exists(context.Background(), "unknown")
	if err != nil || ok {
		t.Fatalf("exists = %v, %v; want false", ok, err)
	}
}
