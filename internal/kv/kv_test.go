package kv

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	if _, found, err := mem.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	if err := mem.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, found, err := mem.Get(ctx, "k")
	if err != nil || !found || string(value) != "v1" {
		t.Fatalf("get: value=%q found=%v err=%v", value, found, err)
	}

	if err := mem.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = mem.Get(ctx, "k")
	if string(value) != "v2" {
		t.Fatalf("expected overwrite, got %q", value)
	}

	if err := mem.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := mem.Get(ctx, "k"); found {
		t.Fatalf("expected key gone after delete")
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	original := []byte("abc")
	if err := mem.Set(ctx, "k", original); err != nil {
		t.Fatalf("set: %v", err)
	}
	original[0] = 'x'

	value, _, _ := mem.Get(ctx, "k")
	if string(value) != "abc" {
		t.Fatalf("stored value must not alias caller slice, got %q", value)
	}

	value[0] = 'y'
	again, _, _ := mem.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value must not alias stored slice, got %q", again)
	}
}
