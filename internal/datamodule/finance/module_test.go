package finance

import (
	"testing"

	"github.com/dashcache/dashcache/internal/datamodule"
)

func TestFinanceMetadataRegistration(t *testing.T) {
	meta, ok := datamodule.Resolve("FINANCE")
	if !ok {
		t.Fatalf("finance module not registered")
	}
	if meta.Profile.MaxAge != financeDefaultMaxAge {
		t.Fatalf("unexpected max age: %s", meta.Profile.MaxAge)
	}
	if meta.Profile.BackgroundRefreshThreshold != 0.6 {
		t.Fatalf("expected early refresh threshold, got %v", meta.Profile.BackgroundRefreshThreshold)
	}
}
