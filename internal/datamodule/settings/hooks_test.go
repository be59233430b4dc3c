package settings

import (
	"testing"

	"github.com/dashcache/dashcache/internal/proxy/hooks"
)

func TestSettingsHooksBypassSession(t *testing.T) {
	h, ok := hooks.Fetch("settings")
	if !ok || h.CachePolicy == nil {
		t.Fatalf("settings hooks not registered")
	}
	ctx := &hooks.RequestContext{Dataset: "settings", ModuleKey: "settings"}
	if h.CachePolicy(ctx, "/session", hooks.CachePolicy{AllowCache: true}).AllowCache {
		t.Fatalf("/session must bypass cache")
	}
	if !h.CachePolicy(ctx, "/roles", hooks.CachePolicy{AllowCache: true}).AllowCache {
		t.Fatalf("/roles should be cached")
	}
}
