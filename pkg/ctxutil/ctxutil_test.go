package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestActorIDFromCtx(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	tests := []struct {
		name   string
		ctx    context.Context
		want   uuid.UUID
		wantOK bool
	}{
		{name: "set", ctx: WithActorID(context.Background(), id), want: id, wantOK: true},
		{name: "empty context", ctx: context.Background(), want: uuid.Nil},
		{name: "nil uuid", ctx: WithActorID(context.Background(), uuid.Nil), want: uuid.Nil},
		{name: "wrong type", ctx: context.WithValue(context.Background(), ctxKey("actor_id"), id.String()), want: uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ActorIDFromCtx(tt.ctx)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ActorIDFromCtx() = (%s, %v), want (%s, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestActorRef(t *testing.T) {
	t.Parallel()

	if ref := ActorRef(context.Background()); ref != nil {
		t.Fatalf("expected nil ref for anonymous context, got %s", ref)
	}

	id := uuid.New()
	ref := ActorRef(WithActorID(context.Background(), id))
	if ref == nil || *ref != id {
		t.Fatalf("expected ref to %s, got %v", id, ref)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromCtx(ctx); got != "req-123" {
		t.Fatalf("expected req-123, got %q", got)
	}
}
