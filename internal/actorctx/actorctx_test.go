package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

func TestIdentityRoundTrip(t *testing.T) {
	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatalf("expected no identity on empty context")
	}

	ctx := WithIdentity(context.Background(), auth.Identity{UserID: "u1", Role: user.RoleAdmin})

	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID != "u1" || id.Role != user.RoleAdmin {
		t.Fatalf("unexpected identity: %+v ok=%v", id, ok)
	}

	if _, ok := UserIDFrom(WithIdentity(context.Background(), auth.Identity{})); ok {
		t.Fatalf("empty user id must not count as an identity")
	}
}
