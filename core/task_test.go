package core

import (
	"context"
	"testing"
)

func TestRoute_String(t *testing.T) {
	tests := map[Route]string{
		RouteForeground: "foreground",
		RouteBackground: "background",
		RouteInline:     "inline",
		Route(99):       "unknown",
	}
	for route, want := range tests {
		if got := route.String(); got != want {
			t.Errorf("Route(%d).String() = %q, want %q", int(route), got, want)
		}
	}
}

// TestContextIdentity verifies runner identity travels in the context
// Given: A context naming runner A
// When: Identity is queried for A, another runner and a plain context
// Then: Only A matches
func TestContextIdentity(t *testing.T) {
	a := &queueRunner{}
	b := &queueRunner{}
	ctx := WithTaskRunner(context.Background(), a)

	if !IsRunningOn(ctx, a) {
		t.Error("IsRunningOn(ctx, a) = false")
	}
	if IsRunningOn(ctx, b) {
		t.Error("IsRunningOn(ctx, b) = true")
	}
	if IsRunningOn(context.Background(), a) {
		t.Error("IsRunningOn(Background, a) = true")
	}
	if IsRunningOn(ctx, nil) {
		t.Error("IsRunningOn(ctx, nil) = true")
	}
	//nolint:staticcheck // nil ctx is accepted
	if CurrentTaskRunner(nil) != nil {
		t.Error("CurrentTaskRunner(nil) != nil")
	}
}
