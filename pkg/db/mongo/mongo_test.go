package mongo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithTimeout_UsesShorterDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancelChild := WithTimeout(parent, time.Hour)
	defer cancelChild()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline %s should follow the parent, not the hour timeout", time.Until(deadline))
	}
}

func TestWithTimeout_AddsDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, ok := ctx.Deadline(); !ok {
		t.Error("expected a deadline on a background context")
	}
}

func TestObjectIDs(t *testing.T) {
	ids, err := ObjectIDs([]string{"665f1c2ab1e8a3d4c9e7f001", "665f1c2ab1e8a3d4c9e7f002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[1].Hex() != "665f1c2ab1e8a3d4c9e7f002" {
		t.Errorf("unexpected ids %v", ids)
	}

	if _, err := ObjectIDs([]string{"665f1c2ab1e8a3d4c9e7f001", "slot-1"}); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
	if IsTransient(errors.New("validation failed")) {
		t.Error("plain errors are not transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be transient")
	}
}
