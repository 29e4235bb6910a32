package principal

import (
	"context"
	"testing"

	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context must be anonymous")
	}

	ctx := WithUser(context.Background(), domain.User{ID: "u1", Role: domain.RoleAdmin})
	user, ok := FromContext(ctx)
	if !ok || user.ID != "u1" || !user.IsAdmin() {
		t.Errorf("unexpected principal %+v ok=%v", user, ok)
	}
}

func TestMustFromContextPanicsWhenAnonymous(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustFromContext(context.Background())
}
