package owner

import (
	"context"
	"testing"
)

func TestOwnerContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ctx := WithOwner(context.Background(), "op-1")
		got, ok := FromContext(ctx)
		if !ok || got != "op-1" {
			t.Errorf("FromContext() = %q, %v; want op-1, true", got, ok)
		}
	})

	t.Run("missing owner", func(t *testing.T) {
		if _, ok := FromContext(context.Background()); ok {
			t.Error("FromContext() ok = true for empty context")
		}
	})

	t.Run("empty owner treated as missing", func(t *testing.T) {
		ctx := WithOwner(context.Background(), "")
		if _, ok := FromContext(ctx); ok {
			t.Error("FromContext() ok = true for empty owner id")
		}
	})
}
