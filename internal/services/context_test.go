package services_test

import (
	"context"
	"testing"

	"streamstrip/internal/services"
)

func TestContextValuesRoundTrip(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-42")
	ctx = services.WithStage(ctx, "uploading")
	ctx = services.WithCorrelationID(ctx, "100:7")

	checks := []struct {
		name string
		get  func(context.Context) (string, bool)
		want string
	}{
		{"job id", services.JobIDFromContext, "job-42"},
		{"stage", services.StageFromContext, "uploading"},
		{"correlation id", services.CorrelationIDFromContext, "100:7"},
	}
	for _, c := range checks {
		if got, ok := c.get(ctx); !ok || got != c.want {
			t.Errorf("%s = %q (%v), want %q", c.name, got, ok, c.want)
		}
	}
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	base := context.Background()
	ctx := services.WithStage(services.WithJobID(base, ""), "")
	if ctx != base {
		t.Fatal("empty values should return the parent context")
	}
	if _, ok := services.CorrelationIDFromContext(ctx); ok {
		t.Fatal("unexpected correlation id")
	}
}

func TestInnerStageShadowsOuter(t *testing.T) {
	ctx := services.WithStage(context.Background(), "downloading")
	ctx = services.WithStage(ctx, "transforming")
	if stage, _ := services.StageFromContext(ctx); stage != "transforming" {
		t.Fatalf("stage = %q, want transforming", stage)
	}
}
