package mongo

import (
	"context"
	"testing"
	"time"
)

func TestWithTimeout_KeepsShorterParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, done := WithTimeout(parent, time.Hour)
	defer done()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline should follow parent, got %s", time.Until(deadline))
	}
}

func TestWithTimeout_AddsDeadline(t *testing.T) {
	ctx, done := WithTimeout(context.Background(), time.Second)
	defer done()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("expected deadline")
	}
}

func TestObjectIDs_SkipsMalformed(t *testing.T) {
	got := ObjectIDs([]string{"507f1f77bcf86cd799439011", "nope"})
	if len(got) != 1 || got[0].Hex() != "507f1f77bcf86cd799439011" {
		t.Errorf("ObjectIDs() = %v", got)
	}
}
