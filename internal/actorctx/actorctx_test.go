package actorctx_test

import (
	"context"
	"testing"

	"github.com/geocoder89/taskhub/internal/actorctx"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := actorctx.WithUserID(context.Background(), "user-1")

	id, ok := actorctx.UserIDFrom(ctx)
	if !ok || id != "user-1" {
		t.Fatalf("got (%q, %v), want (user-1, true)", id, ok)
	}

	if _, ok := actorctx.UserIDFrom(context.Background()); ok {
		t.Fatalf("expected no user id on a bare context")
	}

	if _, ok := actorctx.UserIDFrom(actorctx.WithUserID(context.Background(), "")); ok {
		t.Fatalf("empty user id should not count")
	}
}
