package auth

import (
	"context"
	"testing"
)

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{UserID: 7, Name: "Alice", Email: "alice@example.com"})

	p, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected principal on context")
	}
	if p.UserID != 7 || p.Email != "alice@example.com" {
		t.Errorf("principal = %+v", p)
	}
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
}

func TestEmptyContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no principal")
	}
	if UserID(context.Background()) != 0 {
		t.Error("UserID on empty context should be 0")
	}
}
